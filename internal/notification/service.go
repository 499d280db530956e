package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/afcpln/listingnet/internal/metrics"
	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/storage"
)

const tracerName = "github.com/afcpln/listingnet/internal/notification"

// Notification kinds, used in logs, metrics and spans.
const (
	KindListingMatch = "listing_match"
	KindConversation = "conversation_message"
	KindWelcome      = "welcome"
	KindTest         = "test"
)

// UserLookup hydrates participant references that carry only an id.
type UserLookup interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records delivery outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer replaces the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithClock replaces the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service builds notification content, delivers it through the resolved
// transport and records every successful delivery in the audit log.
type Service struct {
	resolver *Resolver
	audit    storage.AuditStore
	users    UserLookup
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// NewService creates a Service. users may be nil, in which case participant
// references without an embedded email are treated as unresolved.
func NewService(resolver *Resolver, audit storage.AuditStore, users UserLookup, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		resolver: resolver,
		audit:    audit,
		users:    users,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// auditFields carries the references stored with an audit entry.
type auditFields struct {
	userID     string
	listingID  string
	messageID  string
	searchName string
	skip       bool
}

type deliveryResult struct {
	provenance string
	receipt    Receipt
}

// SendListingMatchNotification emails buyer about a listing matching search.
func (s *Service) SendListingMatchNotification(ctx context.Context, buyer models.User, listing models.Listing, search models.SavedSearch) error {
	msg := listingMatchMessage(buyer, listing, search)
	_, err := s.deliver(ctx, KindListingMatch, msg, auditFields{
		userID:     buyer.ID,
		listingID:  listing.ID,
		searchName: search.Name,
	})
	return err
}

// SendConversationNotification emails the conversation participant who did
// not send msg. A recipient without a usable address is skipped silently.
func (s *Service) SendConversationNotification(ctx context.Context, conv models.Conversation, msg models.ConversationMessage) error {
	recipientRef, senderRef, senderKnown := pickRecipient(conv, msg.SenderID)

	recipient := s.normalizeParticipant(ctx, recipientRef)
	if strings.TrimSpace(recipient.Email) == "" {
		s.logger.Debug("conversation notification skipped: recipient has no email",
			"conversation_id", conv.ID, "recipient_id", recipientRef.ID())
		s.metrics.ObserveDelivery(KindConversation, "", metrics.StatusSkipped)
		return nil
	}

	var sender models.UserSummary
	if senderKnown {
		sender = s.normalizeParticipant(ctx, senderRef)
	}

	m := conversationMessage(recipient, sender, senderKnown, conv.Listing, normalizeMessageBody(msg.Body))
	_, err := s.deliver(ctx, KindConversation, m, auditFields{
		userID:    recipient.ID,
		listingID: conv.Listing.ID,
		messageID: msg.ID,
	})
	return err
}

// SendWelcomeNotification sends the registration email. Users without an
// email address are skipped.
func (s *Service) SendWelcomeNotification(ctx context.Context, user models.User) error {
	if strings.TrimSpace(user.Email) == "" {
		return nil
	}
	_, err := s.deliver(ctx, KindWelcome, welcomeMessage(user), auditFields{userID: user.ID})
	return err
}

// SendTestNotification sends a test email to the given address and returns
// which transport handled it. Test sends are not audited.
func (s *Service) SendTestNotification(ctx context.Context, to string) (string, error) {
	res, err := s.deliver(ctx, KindTest, testMessage(to), auditFields{skip: true})
	if err != nil {
		return "", err
	}
	return res.provenance, nil
}

// deliver resolves the transport, sends msg and falls back to SMTP once when
// the primary provider rejects it. The audit entry is written only after a
// successful send.
func (s *Service) deliver(ctx context.Context, kind string, msg Message, fields auditFields) (res deliveryResult, err error) {
	ctx, span := s.tracer.Start(ctx, "notification.deliver", trace.WithAttributes(
		attribute.String("notification.kind", kind),
		attribute.String("notification.user_id", fields.userID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("notification.transport", res.provenance))
		}
		span.End()
	}()

	if msg.To == "" {
		s.metrics.ObserveDelivery(kind, "", metrics.StatusFailed)
		return deliveryResult{}, ErrMissingRecipient
	}

	t, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.logger.Error("resolving mail transport failed", "kind", kind, "error", err)
		s.metrics.ObserveDelivery(kind, "", metrics.StatusFailed)
		return deliveryResult{}, err
	}
	if msg.From == "" {
		msg.From = t.From
	}

	switch t.Kind {
	case KindPrimary:
		var perr *ProviderError
		res, perr = s.attemptPrimary(ctx, t.Provider, msg)
		if perr != nil {
			s.logger.Warn("primary provider rejected message, falling back to smtp",
				"kind", kind, "provider", perr.Provider, "category", perr.Category, "error", perr.Err)
			res, err = s.attemptFallback(ctx, msg, perr)
		}
	default:
		var receipt Receipt
		receipt, err = t.Provider.Send(ctx, msg)
		if err != nil {
			err = fmt.Errorf("sending via %s: %w", t.Provider.Name(), err)
		}
		res = deliveryResult{provenance: t.Provider.Name(), receipt: receipt}
	}

	if err != nil {
		s.logger.Error("notification delivery failed", "kind", kind, "to", msg.To, "error", err)
		s.metrics.ObserveDelivery(kind, t.Provider.Name(), metrics.StatusFailed)
		return deliveryResult{}, err
	}

	s.logger.Info("notification delivered",
		"kind", kind, "to", msg.To, "transport", res.provenance, "receipt_id", res.receipt.ID)
	s.metrics.ObserveDelivery(kind, res.provenance, metrics.StatusDelivered)

	if !fields.skip {
		s.recordAudit(ctx, msg, fields, res)
	}
	return res, nil
}

func (s *Service) attemptPrimary(ctx context.Context, p Provider, msg Message) (deliveryResult, *ProviderError) {
	receipt, err := p.Send(ctx, msg)
	if err != nil {
		return deliveryResult{}, Classify(p.Name(), err)
	}
	return deliveryResult{provenance: p.Name(), receipt: receipt}, nil
}

func (s *Service) attemptFallback(ctx context.Context, msg Message, cause *ProviderError) (deliveryResult, error) {
	fb, err := s.resolver.Fallback(ctx)
	if err != nil {
		return deliveryResult{}, &DeliveryExhaustedError{Primary: cause, Fallback: err}
	}
	receipt, err := fb.Send(ctx, msg)
	if err != nil {
		return deliveryResult{}, &DeliveryExhaustedError{Primary: cause, Fallback: err}
	}
	return deliveryResult{
		provenance: fmt.Sprintf("%s-fallback:%s", cause.Provider, cause.Category),
		receipt:    receipt,
	}, nil
}

// recordAudit appends the delivery to the audit log. The message has already
// left the system, so a failed write is logged and not returned.
func (s *Service) recordAudit(ctx context.Context, msg Message, fields auditFields, res deliveryResult) {
	if s.audit == nil {
		return
	}
	entry := models.AuditLogEntry{
		ID:                uuid.NewString(),
		UserID:            fields.userID,
		ListingID:         fields.listingID,
		MessageID:         fields.messageID,
		SearchName:        fields.searchName,
		To:                msg.To,
		Subject:           msg.Subject,
		Body:              msg.Text,
		Transport:         res.provenance,
		TransportResponse: res.receipt.Response,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.audit.RecordDelivery(ctx, entry); err != nil {
		s.logger.Error("failed to record delivered notification", "to", msg.To, "error", err)
	}
}

// pickRecipient returns the participant to notify and the sender. An
// unmatched sender notifies the agent.
func pickRecipient(conv models.Conversation, senderID string) (recipient, sender models.ParticipantRef, senderKnown bool) {
	switch {
	case senderID != "" && senderID == conv.Agent.ID():
		return conv.Buyer, conv.Agent, true
	case senderID != "" && senderID == conv.Buyer.ID():
		return conv.Agent, conv.Buyer, true
	}
	return conv.Agent, models.ParticipantRef{}, false
}

// normalizeParticipant always yields a UserSummary. Embedded references with
// an email are used as-is; anything else is hydrated by id. A failed lookup is
// logged and leaves the participant unresolved.
func (s *Service) normalizeParticipant(ctx context.Context, ref models.ParticipantRef) models.UserSummary {
	embedded, ok := ref.Embedded()
	if ok && strings.TrimSpace(embedded.Email) != "" {
		return embedded
	}
	summary := models.UserSummary{ID: ref.ID()}
	if ok {
		summary = embedded
	}
	if summary.ID == "" || s.users == nil {
		return summary
	}

	user, err := s.users.FindUserByID(ctx, summary.ID)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, storage.ErrNotFound) {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "participant lookup failed", "user_id", summary.ID, "error", err)
		return summary
	}
	hydrated := user.Summary()
	if hydrated.FullName == "" {
		hydrated.FullName = summary.FullName
	}
	return hydrated
}
