package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/afcpln/listingnet/internal/eventbus"
)

const defaultEventTimeout = 30 * time.Second

// Subscriber routes bus events to the notifiers. Message events run under a
// per-event timeout; listing events do not, since the fan-out bounds each
// delivery itself.
type Subscriber struct {
	listings      *ListingNotifier
	conversations *ConversationNotifier
	logger        *slog.Logger
	timeout       time.Duration
	baseCtx       context.Context
}

// NewSubscriber creates a Subscriber. Every event is processed under a
// context derived from ctx, so cancelling ctx aborts in-flight deliveries.
func NewSubscriber(ctx context.Context, listings *ListingNotifier, conversations *ConversationNotifier, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		listings:      listings,
		conversations: conversations,
		logger:        logger,
		timeout:       defaultEventTimeout,
		baseCtx:       ctx,
	}
}

// Register subscribes to bus.
func (s *Subscriber) Register(bus eventbus.EventBus) {
	bus.Subscribe(s.Handle)
}

// Handle processes one event. Unknown event types are ignored.
func (s *Subscriber) Handle(e eventbus.Event) {
	switch e.Type {
	case EventListingPublished:
		var evt ListingPublishedEvent
		switch p := e.Payload.(type) {
		case ListingPublishedEvent:
			evt = p
		case *ListingPublishedEvent:
			if p == nil {
				s.malformed(e)
				return
			}
			evt = *p
		default:
			s.malformed(e)
			return
		}
		s.listings.NotifyForNewListing(s.baseCtx, evt.Listing)

	case EventMessageSent:
		var evt MessageSentEvent
		switch p := e.Payload.(type) {
		case MessageSentEvent:
			evt = p
		case *MessageSentEvent:
			if p == nil {
				s.malformed(e)
				return
			}
			evt = *p
		default:
			s.malformed(e)
			return
		}
		ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
		defer cancel()
		s.conversations.MessageSent(ctx, evt.Conversation, evt.Message)

	default:
		s.logger.Debug("ignoring event", "event_type", e.Type, "event_id", e.ID)
	}
}

func (s *Subscriber) malformed(e eventbus.Event) {
	s.logger.Error("event payload has unexpected type",
		"event_type", e.Type, "event_id", e.ID, "payload_type", fmt.Sprintf("%T", e.Payload))
}
