package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher is a mock implementation of service.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

//nolint:revive
func (m *MockEventPublisher) Publish(eventType string, payload any) {
	m.Called(eventType, payload)
}
