package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/classroster/internal/logging"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// handleParseRoster ingests a spreadsheet sent as the multipart field "file".
// On success the body is the JSON array of accepted students and X-Upload-ID
// names the cached result.
func (s *Server) handleParseRoster(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, fmt.Errorf("file too large (limit %s): %w", humanize.IBytes(uint64(maxSize)), err))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	logging.FromContext(r.Context()).Debug("roster upload received",
		"file", header.Filename,
		"size", humanize.IBytes(uint64(header.Size)),
	)

	ctx := WithRequestMetadata(r.Context(), r)
	roster, err := s.service.ParseRoster(ctx, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("X-Upload-ID", roster.BatchID.String())
	writeJSON(w, http.StatusOK, roster.Students)
}

// handleRosterResult returns a cached roster with its advisory issues.
func (s *Server) handleRosterResult(w http.ResponseWriter, r *http.Request) {
	roster, err := s.service.RosterResult(chi.URLParam(r, "uploadID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}
