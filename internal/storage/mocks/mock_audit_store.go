package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/afcpln/listingnet/internal/models"
)

// MockAuditStore is a mock implementation of storage.AuditStore.
type MockAuditStore struct {
	mock.Mock
}

//nolint:revive
func (m *MockAuditStore) RecordDelivery(ctx context.Context, entry models.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

//nolint:revive
func (m *MockAuditStore) ListDeliveries(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLogEntry), args.Error(1)
}
