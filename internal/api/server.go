// Package api implements the REST handlers: event intake for the
// notification pipeline, account maintenance and the delivery log.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/afcpln/listingnet/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	userSvc         service.UserService
	notificationSvc service.NotificationService
	publisher       service.EventPublisher
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided services.
func New(userSvc service.UserService, notificationSvc service.NotificationService, publisher service.EventPublisher, logger *slog.Logger) *Server {
	return &Server{
		userSvc:         userSvc,
		notificationSvc: notificationSvc,
		publisher:       publisher,
		logger:          logger,
	}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	// Event intake
	r.Post("/events/listing-published", s.handleListingPublished)
	r.Post("/events/conversation-message", s.handleConversationMessage)

	// Accounts
	r.Post("/users", s.handleRegisterUser)
	r.Get("/users/{id}", s.handleGetUser)

	// Delivery log
	r.Get("/email-log", s.handleListEmailLog)
	r.Post("/notifications/test", s.handleTestNotification)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps typed service errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallbackMsg string) {
	var ve *service.ValidationError
	var nf *service.NotFoundError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, nf.Error())
	default:
		s.logger.Error(fallbackMsg, "error", err)
		writeError(w, http.StatusInternalServerError, fallbackMsg)
	}
}
