package web

import (
	"net/http"

	"github.com/JonMunkholm/classroster/internal/core"
	"github.com/go-chi/chi/v5"
)

// handleListProjects lists saved projects, newest first.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.service.ListProjects(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if projects == nil {
		projects = []core.ProjectSummary{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// handleSaveProject saves the live snapshot under {name}.
func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	summary, err := s.service.SaveProject(ctx, chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleLoadNamedProject makes a saved project the live state.
func (s *Server) handleLoadNamedProject(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	snap, err := s.service.LoadNamedProject(ctx, chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse("state replaced", snap))
}

// handleDeleteProject removes a saved project.
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProject(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
