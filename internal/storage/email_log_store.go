package storage

import (
	"context"

	"github.com/afcpln/listingnet/internal/models"
)

// AuditStore is the append-only log of delivered notifications.
type AuditStore interface {
	// RecordDelivery appends one entry. Entries are never updated or deleted.
	RecordDelivery(ctx context.Context, entry models.AuditLogEntry) error
	// ListDeliveries returns the most recent entries, up to limit.
	ListDeliveries(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
}
