package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/storage"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// TestSender sends a one-off test email and reports the transport used.
type TestSender interface {
	SendTestNotification(ctx context.Context, to string) (string, error)
}

// NotificationService exposes the delivery audit log and test sends.
type NotificationService interface {
	// ListLog returns the most recent delivered notifications, newest first.
	// A non-positive limit selects the default; larger limits are capped.
	ListLog(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
	// TestNotification sends a test email to the given address and returns
	// the provenance of the transport that delivered it.
	TestNotification(ctx context.Context, to string) (string, error)
}

type notificationServiceImpl struct {
	store  storage.AuditStore
	sender TestSender
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store storage.AuditStore, sender TestSender) NotificationService {
	return &notificationServiceImpl{store: store, sender: sender}
}

func (s *notificationServiceImpl) ListLog(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultLogLimit
	case limit > maxLogLimit:
		limit = maxLogLimit
	}
	entries, err := s.store.ListDeliveries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notification log: %w", err)
	}
	return entries, nil
}

func (s *notificationServiceImpl) TestNotification(ctx context.Context, to string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", &ValidationError{Field: "to", Message: "recipient address is required"}
	}
	return s.sender.SendTestNotification(ctx, to)
}
