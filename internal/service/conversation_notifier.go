package service

import (
	"context"
	"log/slog"

	"github.com/afcpln/listingnet/internal/models"
)

// ConversationDeliverer sends one message notification.
type ConversationDeliverer interface {
	SendConversationNotification(ctx context.Context, conv models.Conversation, msg models.ConversationMessage) error
}

// ConversationNotifier tells the other participant of a conversation that a
// new message arrived. It is fire-and-forget: the message has already been
// stored, so delivery problems are only logged.
type ConversationNotifier struct {
	deliverer ConversationDeliverer
	logger    *slog.Logger
}

// NewConversationNotifier creates a ConversationNotifier.
func NewConversationNotifier(deliverer ConversationDeliverer, logger *slog.Logger) *ConversationNotifier {
	return &ConversationNotifier{deliverer: deliverer, logger: logger}
}

// MessageSent notifies the participant who did not write msg.
func (n *ConversationNotifier) MessageSent(ctx context.Context, conv models.Conversation, msg models.ConversationMessage) {
	if err := n.deliverer.SendConversationNotification(ctx, conv, msg); err != nil {
		n.logger.Error("conversation notification failed",
			"conversation_id", conv.ID, "sender_id", msg.SenderID, "error", err)
	}
}
