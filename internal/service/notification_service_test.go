package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/service"
	"github.com/afcpln/listingnet/internal/storage/mocks"
)

type fakeTestSender struct {
	to         string
	provenance string
	err        error
}

func (f *fakeTestSender) SendTestNotification(_ context.Context, to string) (string, error) {
	f.to = to
	return f.provenance, f.err
}

func TestNotificationService_ListLogLimits(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default when zero", 0, 50},
		{"default when negative", -3, 50},
		{"passes through", 10, 10},
		{"capped", 10000, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mocks.MockAuditStore)
			store.On("ListDeliveries", mock.Anything, tt.wantLimit).Return([]models.AuditLogEntry{{ID: "e1"}}, nil)

			entries, err := service.NewNotificationService(store, &fakeTestSender{}).ListLog(context.Background(), tt.limit)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
			store.AssertExpectations(t)
		})
	}
}

func TestNotificationService_ListLogError(t *testing.T) {
	store := new(mocks.MockAuditStore)
	store.On("ListDeliveries", mock.Anything, 50).Return(nil, errors.New("db closed"))

	_, err := service.NewNotificationService(store, &fakeTestSender{}).ListLog(context.Background(), 0)
	assert.ErrorContains(t, err, "listing notification log")
}

func TestNotificationService_TestNotification(t *testing.T) {
	sender := &fakeTestSender{provenance: "resend"}
	svc := service.NewNotificationService(new(mocks.MockAuditStore), sender)

	got, err := svc.TestNotification(context.Background(), "  ops@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "resend", got)
	assert.Equal(t, "ops@example.com", sender.to)

	_, err = svc.TestNotification(context.Background(), " ")
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
}
