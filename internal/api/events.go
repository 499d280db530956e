package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/afcpln/listingnet/internal/service"
)

// handleListingPublished accepts a newly published listing and queues the
// saved-search fan-out. The response never reflects delivery outcomes.
func (s *Server) handleListingPublished(w http.ResponseWriter, r *http.Request) {
	var evt service.ListingPublishedEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if strings.TrimSpace(evt.Listing.ID) == "" {
		writeError(w, http.StatusBadRequest, "listing.id is required")
		return
	}

	s.publisher.Publish(service.EventListingPublished, evt)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "listing_id": evt.Listing.ID})
}

// handleConversationMessage accepts a stored conversation message and queues
// the notification to the other participant.
func (s *Server) handleConversationMessage(w http.ResponseWriter, r *http.Request) {
	var evt service.MessageSentEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if strings.TrimSpace(evt.Conversation.ID) == "" {
		writeError(w, http.StatusBadRequest, "conversation.id is required")
		return
	}
	if strings.TrimSpace(evt.Message.Body) == "" {
		writeError(w, http.StatusBadRequest, "message.body is required")
		return
	}

	s.publisher.Publish(service.EventMessageSent, evt)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "conversation_id": evt.Conversation.ID})
}
