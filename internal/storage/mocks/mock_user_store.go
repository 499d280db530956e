package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/afcpln/listingnet/internal/models"
)

// MockUserStore is a mock implementation of storage.UserStore.
type MockUserStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockUserStore) SaveUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

//nolint:revive
func (m *MockUserStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

//nolint:revive
func (m *MockUserStore) FindUsersWithSavedSearches(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}
