package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/afcpln/listingnet/internal/service"
)

// handleListEmailLog returns recent delivered notifications.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListEmailLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.notificationSvc.ListLog(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing email log failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list email log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleTestNotification sends a test email through the active transport.
func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	transport, err := s.notificationSvc.TestNotification(r.Context(), req.To)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent", "transport": transport})
}
