package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = 30 * time.Second

// SMTPProvider delivers notifications via SMTP using the go-mail library.
// The underlying client is built once and reused across concurrent sends.
type SMTPProvider struct {
	settings SMTPSettings
	client   *mail.Client
}

// NewSMTPProvider creates a new SMTPProvider with the given settings. No
// connection is made until the first Send.
func NewSMTPProvider(settings SMTPSettings) (*SMTPProvider, error) {
	opts := []mail.Option{
		mail.WithPort(settings.Port),
		mail.WithTimeout(smtpTimeout),
	}
	if settings.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.Username),
			mail.WithPassword(settings.Password),
		)
	}

	c, err := mail.NewClient(settings.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &SMTPProvider{settings: settings, client: c}, nil
}

// Name returns the provider identifier.
func (p *SMTPProvider) Name() string { return "smtp" }

// Send delivers msg using the configured SMTP server.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) (Receipt, error) {
	if msg.To == "" {
		return Receipt{}, ErrMissingRecipient
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return Receipt{}, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return Receipt{}, fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetMessageID()

	// Plain-text body with an HTML alternative when one was rendered.
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}

	if err := p.client.DialAndSendWithContext(ctx, m); err != nil {
		return Receipt{}, err
	}

	var id string
	if v := m.GetGenHeader(mail.HeaderMessageID); len(v) > 0 {
		id = v[0]
	}
	return Receipt{
		ID:       id,
		Response: fmt.Sprintf("accepted by %s:%d %s", p.settings.Host, p.settings.Port, id),
	}, nil
}
