package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/afcpln/listingnet/internal/models"
)

// handleRegisterUser upserts an account together with its saved searches.
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	saved, err := s.userSvc.Register(r.Context(), &u)
	if err != nil {
		s.writeServiceError(w, err, "failed to save user")
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.userSvc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to load user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
