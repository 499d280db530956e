// Package notification builds and delivers buyer and agent email notifications.
// Delivery goes through a Provider chosen by the Resolver: the Resend API when
// a key is configured, an SMTP server otherwise, and an inert JSON transport
// when nothing is configured. A rejected Resend send is retried once over SMTP.
package notification

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

// Receipt describes what the provider reported for an accepted message.
type Receipt struct {
	ID       string
	Response string
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "resend", "smtp").
	Name() string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) (Receipt, error)
}
