package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// JSONProvider is the inert transport. It renders the message as JSON and
// performs no network I/O, so the service stays usable without any mail
// configuration.
type JSONProvider struct{}

// NewJSONProvider returns the inert provider.
func NewJSONProvider() *JSONProvider { return &JSONProvider{} }

// Name returns the provider identifier.
func (p *JSONProvider) Name() string { return "json" }

// Send accepts any message and returns its JSON rendering as the response.
func (p *JSONProvider) Send(_ context.Context, msg Message) (Receipt, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(struct {
		MessageID string `json:"message_id"`
		Message
	}{MessageID: id, Message: msg})
	if err != nil {
		return Receipt{}, fmt.Errorf("encoding message: %w", err)
	}
	return Receipt{ID: id, Response: string(raw)}, nil
}
