package notification

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Rejection categories assigned to primary provider failures.
const (
	CategoryDomainUnverified = "domain-unverified"
	CategoryTestingOnly      = "testing-recipient-only"
	CategoryUnauthorized     = "unauthorized"
	CategoryRateLimited      = "rate-limited"
	CategoryInvalidRequest   = "invalid-request"
	CategoryServerError      = "server-error"
	CategoryUnknown          = "unknown"
)

// ErrMissingRecipient is returned when a message has no destination address.
var ErrMissingRecipient = errors.New("notification has no recipient address")

// ProviderError is a classified rejection from the primary provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Category   string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s rejected message (%s, status %d): %v", e.Provider, e.Category, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s rejected message (%s): %v", e.Provider, e.Category, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// DeliveryExhaustedError is returned when both the primary provider and the
// SMTP fallback failed.
type DeliveryExhaustedError struct {
	Primary  *ProviderError
	Fallback error
}

func (e *DeliveryExhaustedError) Error() string {
	return fmt.Sprintf("delivery exhausted: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

func (e *DeliveryExhaustedError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// TransportConstructionError is returned when a transport client cannot be
// built from the current configuration. It is never cached.
type TransportConstructionError struct {
	Transport string
	Err       error
}

func (e *TransportConstructionError) Error() string {
	return fmt.Sprintf("constructing %s transport: %v", e.Transport, e.Err)
}

func (e *TransportConstructionError) Unwrap() error { return e.Err }

// statusCoder is implemented by provider errors that expose an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// Classify turns a provider failure into a ProviderError with a category
// derived from the status code when available and the message text otherwise.
func Classify(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	status := 0
	var sc statusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}
	return &ProviderError{
		Provider:   provider,
		StatusCode: status,
		Category:   categorize(status, err.Error()),
		Err:        err,
	}
}

func categorize(status int, msg string) string {
	m := strings.ToLower(msg)
	switch {
	case strings.Contains(m, "domain") && (strings.Contains(m, "not verified") || strings.Contains(m, "verify")):
		return CategoryDomainUnverified
	case strings.Contains(m, "only send testing emails"):
		return CategoryTestingOnly
	case status == http.StatusUnauthorized || status == http.StatusForbidden,
		strings.Contains(m, "api key"), strings.Contains(m, "unauthorized"), strings.Contains(m, "not authorized"):
		return CategoryUnauthorized
	case status == http.StatusTooManyRequests, strings.Contains(m, "rate limit"), strings.Contains(m, "too many requests"):
		return CategoryRateLimited
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity,
		strings.Contains(m, "invalid"), strings.Contains(m, "validation"):
		return CategoryInvalidRequest
	case status >= http.StatusInternalServerError:
		return CategoryServerError
	}
	return CategoryUnknown
}
