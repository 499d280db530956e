package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/storage"
)

func TestSQLiteAuditStore(t *testing.T) {
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	store := storage.NewSQLiteAuditStore(db)
	ctx := context.Background()

	t.Run("record and list", func(t *testing.T) {
		entry := models.AuditLogEntry{
			UserID:     "u-1",
			ListingID:  "l-1",
			SearchName: "North Loop Buyers",
			To:         "bea@example.com",
			Subject:    `New listing in North Loop for your saved search "North Loop Buyers"`,
			Body:       "Hi Bea",
			Transport:  "resend",
			CreatedAt:  time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, store.RecordDelivery(ctx, entry))

		list, err := store.ListDeliveries(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 1)

		got := list[0]
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, entry.UserID, got.UserID)
		assert.Equal(t, entry.ListingID, got.ListingID)
		assert.Equal(t, entry.SearchName, got.SearchName)
		assert.Equal(t, entry.To, got.To)
		assert.Equal(t, entry.Subject, got.Subject)
		assert.Equal(t, entry.Transport, got.Transport)
	})

	t.Run("newest first", func(t *testing.T) {
		entry := models.AuditLogEntry{
			UserID:    "u-2",
			MessageID: "m-1",
			To:        "agent@example.com",
			Subject:   "New message",
			Body:      "hello",
			Transport: "resend-fallback:domain-unverified",
			CreatedAt: time.Now().UTC().Add(time.Minute),
		}
		require.NoError(t, store.RecordDelivery(ctx, entry))

		list, err := store.ListDeliveries(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "resend-fallback:domain-unverified", list[0].Transport)
		assert.Equal(t, "m-1", list[0].MessageID)
	})

	t.Run("default limit", func(t *testing.T) {
		list, err := store.ListDeliveries(ctx, 0)
		require.NoError(t, err)
		assert.NotNil(t, list)
	})
}
