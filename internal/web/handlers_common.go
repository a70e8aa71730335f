package web

// handlers_common.go contains shared request helpers and the health endpoints.

import (
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/classroster/internal/core"
)

// readBody reads at most limit bytes of the request body.
// Larger bodies fail with *http.MaxBytesError.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return body, nil
}

// HealthResponse reports liveness plus the state of the decode slots.
type HealthResponse struct {
	Status   string             `json:"status"`
	Uploads  core.LimiterStatus `json:"uploads"`
	Archive  bool               `json:"archive"`
	Students int                `json:"students"`
	Groups   int                `json:"groups"`
	Cached   int                `json:"cached_rosters"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.service.Current()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Uploads:  s.service.LimiterStatus(),
		Archive:  s.service.ArchiveEnabled(),
		Students: len(snap.Students),
		Groups:   len(snap.Groups),
		Cached:   s.service.CachedRosters(),
	})
}

// handleUploadQueueStatus returns the current state of the upload limiter.
// Used for monitoring and to check if the system can accept more uploads.
func (s *Server) handleUploadQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}
