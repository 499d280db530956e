package notification

import (
	"context"
	"errors"

	"github.com/resend/resend-go/v2"
)

// resendEmails is the slice of the Resend client used for delivery.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendProvider delivers notifications through the Resend HTTP API.
type ResendProvider struct {
	emails resendEmails
}

// NewResendProvider creates a ResendProvider for apiKey.
func NewResendProvider(apiKey string) (*ResendProvider, error) {
	if apiKey == "" {
		return nil, errors.New("resend API key is empty")
	}
	client := resend.NewClient(apiKey)
	return &ResendProvider{emails: client.Emails}, nil
}

// Name returns the provider identifier.
func (p *ResendProvider) Name() string { return "resend" }

// Send delivers msg through the Resend API.
func (p *ResendProvider) Send(ctx context.Context, msg Message) (Receipt, error) {
	if msg.To == "" {
		return Receipt{}, ErrMissingRecipient
	}
	sent, err := p.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	})
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{ID: sent.Id, Response: "resend id " + sent.Id}, nil
}
