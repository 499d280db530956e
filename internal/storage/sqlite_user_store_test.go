package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/storage"
)

func newUserStore(t *testing.T) *storage.SQLiteUserStore {
	t.Helper()
	db, _, err := storage.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewSQLiteUserStore(db)
}

func TestSQLiteUserStore_SaveAndFind(t *testing.T) {
	store := newUserStore(t)
	ctx := context.Background()

	buyer := &models.User{
		FullName: "Bea Buyer",
		Email:    "bea@example.com",
		SavedSearches: []models.SavedSearch{
			{
				Name:        "North Loop Buyers",
				Areas:       []string{"North Loop"},
				MinPrice:    models.Float64(200000),
				MaxPrice:    models.Float64(500000),
				MinBedrooms: models.Int(2),
			},
			{Name: "Anything with a pool", Keywords: []string{"pool"}},
		},
	}
	require.NoError(t, store.SaveUser(ctx, buyer))
	require.NotEmpty(t, buyer.ID)
	assert.Equal(t, models.RoleUser, buyer.Role)

	got, err := store.FindUserByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bea Buyer", got.FullName)
	require.Len(t, got.SavedSearches, 2)

	first := got.SavedSearches[0]
	assert.Equal(t, "North Loop Buyers", first.Name)
	assert.Equal(t, []string{"North Loop"}, first.Areas)
	require.NotNil(t, first.MinPrice)
	assert.InDelta(t, 200000, *first.MinPrice, 0.001)
	require.NotNil(t, first.MinBedrooms)
	assert.Equal(t, 2, *first.MinBedrooms)
	assert.Nil(t, first.MinBathrooms)
	assert.Empty(t, first.Keywords)

	assert.Equal(t, []string{"pool"}, got.SavedSearches[1].Keywords)
}

func TestSQLiteUserStore_SaveReplacesSearches(t *testing.T) {
	store := newUserStore(t)
	ctx := context.Background()

	u := &models.User{ID: "u-1", Email: "a@example.com", SavedSearches: []models.SavedSearch{{Name: "one"}, {Name: "two"}}}
	require.NoError(t, store.SaveUser(ctx, u))

	u.SavedSearches = []models.SavedSearch{{Name: "three"}}
	require.NoError(t, store.SaveUser(ctx, u))

	got, err := store.FindUserByID(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, got.SavedSearches, 1)
	assert.Equal(t, "three", got.SavedSearches[0].Name)
}

func TestSQLiteUserStore_RejectsNegativeBounds(t *testing.T) {
	store := newUserStore(t)
	u := &models.User{Email: "a@example.com", SavedSearches: []models.SavedSearch{{Name: "bad", MinPrice: models.Float64(-1)}}}
	assert.Error(t, store.SaveUser(context.Background(), u))
}

func TestSQLiteUserStore_FindUserByID_NotFound(t *testing.T) {
	store := newUserStore(t)
	_, err := store.FindUserByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLiteUserStore_FindUsersWithSavedSearches(t *testing.T) {
	store := newUserStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveUser(ctx, &models.User{ID: "b-1", Email: "b1@example.com",
		SavedSearches: []models.SavedSearch{{Name: "s1"}}}))
	require.NoError(t, store.SaveUser(ctx, &models.User{ID: "b-2", Email: "b2@example.com",
		SavedSearches: []models.SavedSearch{{Name: "s2"}, {Name: "s3"}}}))
	require.NoError(t, store.SaveUser(ctx, &models.User{ID: "b-3", Email: "b3@example.com"}))
	require.NoError(t, store.SaveUser(ctx, &models.User{ID: "a-1", Email: "agent@example.com", Role: models.RoleAgent,
		SavedSearches: []models.SavedSearch{{Name: "agents do not get alerts"}}}))

	users, err := store.FindUsersWithSavedSearches(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "b-1", users[0].ID)
	assert.Len(t, users[0].SavedSearches, 1)
	assert.Equal(t, "b-2", users[1].ID)
	assert.Len(t, users[1].SavedSearches, 2)
}
