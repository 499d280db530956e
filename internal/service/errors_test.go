package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/afcpln/listingnet/internal/service"
)

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.NotFoundError
		expected string
	}{
		{
			name:     "user",
			err:      &service.NotFoundError{Resource: "user", ID: "buyer-1"},
			expected: `user "buyer-1" not found`,
		},
		{
			name:     "empty ID",
			err:      &service.NotFoundError{Resource: "user", ID: ""},
			expected: `user "" not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *service.ValidationError
		expected string
	}{
		{
			name:     "with field",
			err:      &service.ValidationError{Field: "email", Message: "email is required"},
			expected: `validation error for "email": email is required`,
		},
		{
			name:     "without field",
			err:      &service.ValidationError{Message: "bad request"},
			expected: "bad request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("registering: %w", &service.ValidationError{Field: "role", Message: "invalid"})

	var ve *service.ValidationError
	assert.True(t, errors.As(wrapped, &ve))
	assert.Equal(t, "role", ve.Field)

	var nf *service.NotFoundError
	assert.False(t, errors.As(wrapped, &nf))
}
