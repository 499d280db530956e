package service

import "github.com/afcpln/listingnet/internal/models"

// Event types carried on the bus.
const (
	EventListingPublished = "listing.published"
	EventMessageSent      = "conversation.message_sent"
)

// EventPublisher is the interface for publishing application events.
// Handlers use it to hand work to the notifiers without depending on a
// concrete event bus implementation.
type EventPublisher interface {
	Publish(eventType string, payload any)
}

// ListingPublishedEvent is the payload of EventListingPublished.
type ListingPublishedEvent struct {
	Listing models.Listing `json:"listing"`
}

// MessageSentEvent is the payload of EventMessageSent.
type MessageSentEvent struct {
	Conversation models.Conversation        `json:"conversation"`
	Message      models.ConversationMessage `json:"message"`
}
