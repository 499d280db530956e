package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/afcpln/listingnet/internal/models"
)

// MockNotificationService is a mock implementation of service.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationService) ListLog(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLogEntry), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) TestNotification(ctx context.Context, to string) (string, error) {
	args := m.Called(ctx, to)
	return args.String(0), args.Error(1)
}
