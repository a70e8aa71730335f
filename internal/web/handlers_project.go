package web

import (
	"net/http"

	"github.com/JonMunkholm/classroster/internal/core"
)

// ProjectResponse acknowledges an accepted project document.
type ProjectResponse struct {
	Status   string `json:"status"`
	Students int    `json:"students"`
	Groups   int    `json:"groups"`
}

func projectResponse(status string, snap *core.Snapshot) ProjectResponse {
	return ProjectResponse{
		Status:   status,
		Students: len(snap.Students),
		Groups:   len(snap.Groups),
	}
}

// handleLoadProject validates the JSON body and replaces the live state.
// A rejected document leaves the previous state in place.
func (s *Server) handleLoadProject(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.cfg.Project.MaxBodySize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	snap, err := s.service.LoadProject(WithRequestMetadata(r.Context(), r), body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse("state replaced", snap))
}

// handleCheckProject validates the JSON body without committing it.
func (s *Server) handleCheckProject(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, s.cfg.Project.MaxBodySize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	snap, err := s.service.CheckProject(body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse("valid", snap))
}

// handleCurrentProject returns the live snapshot.
func (s *Server) handleCurrentProject(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Current())
}
