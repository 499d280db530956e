package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/afcpln/listingnet/internal/models"
)

// SQLiteAuditStore implements AuditStore backed by SQLite.
type SQLiteAuditStore struct {
	db *sql.DB
}

// NewSQLiteAuditStore returns a new SQLiteAuditStore.
func NewSQLiteAuditStore(db *sql.DB) *SQLiteAuditStore {
	return &SQLiteAuditStore{db: db}
}

// RecordDelivery inserts an email_log row. A missing id or timestamp is filled in.
func (s *SQLiteAuditStore) RecordDelivery(ctx context.Context, entry models.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_log
			(id, user_id, listing_id, message_id, search_name, to_address, subject, body,
			 transport, transport_response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.ListingID, entry.MessageID, entry.SearchName,
		entry.To, entry.Subject, entry.Body, entry.Transport, entry.TransportResponse,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting email log: %w", err)
	}
	return nil
}

// ListDeliveries returns the most recent entries ordered by created_at descending.
func (s *SQLiteAuditStore) ListDeliveries(ctx context.Context, limit int) (entries []models.AuditLogEntry, err error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, listing_id, message_id, search_name, to_address, subject, body,
		       transport, transport_response, created_at
		FROM email_log
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying email log: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ListingID, &e.MessageID, &e.SearchName,
			&e.To, &e.Subject, &e.Body, &e.Transport, &e.TransportResponse, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning email log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating email log rows: %w", err)
	}
	return entries, nil
}
