package models

import "time"

// AuditLogEntry records one successfully delivered notification. Entries are
// append-only.
type AuditLogEntry struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	ListingID         string    `json:"listing_id,omitempty"`
	MessageID         string    `json:"message_id,omitempty"`
	SearchName        string    `json:"search_name,omitempty"`
	To                string    `json:"to"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	Transport         string    `json:"transport"`
	TransportResponse string    `json:"transport_response,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
