package storage

import (
	"context"
	"errors"

	"github.com/afcpln/listingnet/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// UserStore defines the read access the notification pipeline needs to user
// accounts, plus the upsert used to seed and maintain buyers.
type UserStore interface {
	// SaveUser inserts or updates the user and replaces its saved searches.
	// Missing ids are generated.
	SaveUser(ctx context.Context, user *models.User) error
	// FindUserByID returns the user with its saved searches, or ErrNotFound.
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	// FindUsersWithSavedSearches returns every buyer account holding at least
	// one saved search.
	FindUsersWithSavedSearches(ctx context.Context) ([]*models.User, error)
}
