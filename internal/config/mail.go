package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// DefaultFromName is the display name wrapped around the sender address when
// EMAIL_FROM_NAME is not set.
const DefaultFromName = "AFC Private Listings"

// MailConfig is the outbound email configuration. It is read from the
// environment on every delivery so credential changes apply without restart.
// Numeric and boolean values are kept as strings so that a variable set to ""
// reads as unset instead of failing to parse.
type MailConfig struct {
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`

	// Sender address, first non-empty wins.
	EmailFrom         string `envconfig:"EMAIL_FROM"`
	ResendFrom        string `envconfig:"RESEND_FROM"`
	ResendFromEmail   string `envconfig:"RESEND_FROM_EMAIL"`
	ResendSender      string `envconfig:"RESEND_SENDER"`
	ResendFromAddress string `envconfig:"RESEND_FROM_ADDRESS"`

	FromName     string `envconfig:"EMAIL_FROM_NAME" default:"AFC Private Listings"`
	ResendDomain string `envconfig:"RESEND_DOMAIN"`

	// Transport forces the inert transport when set to "json", "inert" or "noop".
	Transport string `envconfig:"EMAIL_TRANSPORT"`

	SMTPURL      string `envconfig:"SMTP_URL"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     string `envconfig:"SMTP_PORT"`
	SMTPSecure   string `envconfig:"SMTP_SECURE"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASS"`
}

// LoadMail reads MailConfig from the environment.
func LoadMail() (*MailConfig, error) {
	var c MailConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading mail config: %w", err)
	}
	return &c, nil
}

// ExplicitFrom returns the first configured sender address, or "".
func (c *MailConfig) ExplicitFrom() string {
	for _, v := range []string{c.EmailFrom, c.ResendFrom, c.ResendFromEmail, c.ResendSender, c.ResendFromAddress} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ForceInert reports whether the inert transport was requested explicitly.
func (c *MailConfig) ForceInert() bool {
	switch strings.ToLower(strings.TrimSpace(c.Transport)) {
	case "json", "inert", "noop":
		return true
	}
	return false
}

// Port parses SMTP_PORT. It returns 0 when unset or malformed.
func (c *MailConfig) Port() int {
	p, err := strconv.Atoi(strings.TrimSpace(c.SMTPPort))
	if err != nil || p < 0 {
		return 0
	}
	return p
}

// Secure parses SMTP_SECURE leniently.
func (c *MailConfig) Secure() bool {
	switch strings.ToLower(strings.TrimSpace(c.SMTPSecure)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
