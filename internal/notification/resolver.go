package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// TransportKind names which delivery path the resolver selected.
type TransportKind string

// Transport kinds.
const (
	KindPrimary TransportKind = "primary"
	KindDirect  TransportKind = "direct"
	KindInert   TransportKind = "inert"
)

// TransportKinds lists every kind, in preference order.
var TransportKinds = []string{string(KindPrimary), string(KindDirect), string(KindInert)}

// Transport is the resolver's answer for one delivery.
type Transport struct {
	Kind     TransportKind
	Provider Provider
	// From is the sender address derived from the same configuration snapshot.
	From string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithPrimaryFactory replaces the constructor used for the API provider.
func WithPrimaryFactory(fn func(apiKey string) (Provider, error)) ResolverOption {
	return func(r *Resolver) { r.newPrimary = fn }
}

// WithDirectFactory replaces the constructor used for SMTP providers.
func WithDirectFactory(fn func(SMTPSettings) (Provider, error)) ResolverOption {
	return func(r *Resolver) { r.newDirect = fn }
}

// WithInertProvider replaces the inert provider.
func WithInertProvider(p Provider) ResolverOption {
	return func(r *Resolver) { r.inert = p }
}

// Resolver picks the active mail transport from the current configuration
// and caches the clients it builds. Clients are keyed by a fingerprint of the
// settings that produced them, so a rotated credential forces a rebuild. Two
// callers racing on a stale key may both rebuild; the last one wins.
type Resolver struct {
	loadConfig MailConfigLoader
	logger     *slog.Logger
	newPrimary func(apiKey string) (Provider, error)
	newDirect  func(SMTPSettings) (Provider, error)
	inert      Provider

	mu         sync.Mutex
	primaryKey string
	primary    Provider
	directKey  string
	direct     Provider

	inertWarning sync.Once
}

// NewResolver creates a Resolver that reads configuration through loader.
func NewResolver(loader MailConfigLoader, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		loadConfig: loader,
		logger:     logger,
		newPrimary: func(apiKey string) (Provider, error) { return NewResendProvider(apiKey) },
		newDirect:  func(s SMTPSettings) (Provider, error) { return NewSMTPProvider(s) },
		inert:      NewJSONProvider(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve selects the transport for the next delivery. Order: the API
// provider when a key is configured and its client can be built, then an
// explicit inert override, an SMTP URL, SMTP host settings, and finally the
// inert transport.
func (r *Resolver) Resolve(_ context.Context) (Transport, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return Transport{}, fmt.Errorf("loading mail config: %w", err)
	}
	from := FromAddress(cfg)

	if key := strings.TrimSpace(cfg.ResendAPIKey); key != "" {
		p, err := r.primaryFor(key)
		if err == nil {
			return Transport{Kind: KindPrimary, Provider: p, From: from}, nil
		}
		r.logger.Warn("primary mail transport unavailable, trying direct transport", "error", err)
	}

	switch {
	case cfg.ForceInert():
		return r.inertTransport(from, "forced by EMAIL_TRANSPORT"), nil
	case strings.TrimSpace(cfg.SMTPURL) != "":
		settings, err := ParseSMTPURL(cfg.SMTPURL)
		if err != nil {
			return Transport{}, &TransportConstructionError{Transport: "smtp", Err: err}
		}
		p, err := r.directFor(settings)
		if err != nil {
			return Transport{}, err
		}
		return Transport{Kind: KindDirect, Provider: p, From: from}, nil
	case strings.TrimSpace(cfg.SMTPHost) != "":
		p, err := r.directFor(smtpSettingsFromFields(cfg))
		if err != nil {
			return Transport{}, err
		}
		return Transport{Kind: KindDirect, Provider: p, From: from}, nil
	}
	return r.inertTransport(from, "no mail transport configured"), nil
}

// Fallback returns the SMTP provider used after a primary rejection. It
// ignores the inert override: the primary already failed, so the message goes
// to an SMTP server, localhost:587 when nothing else is configured.
func (r *Resolver) Fallback(_ context.Context) (Provider, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading mail config: %w", err)
	}
	settings := smtpSettingsFromFields(cfg)
	if raw := strings.TrimSpace(cfg.SMTPURL); raw != "" {
		fromURL, err := ParseSMTPURL(raw)
		if err != nil {
			return nil, &TransportConstructionError{Transport: "smtp", Err: err}
		}
		settings = fromURL
	}
	return r.directFor(settings)
}

func (r *Resolver) primaryFor(apiKey string) (Provider, error) {
	key := fingerprint(apiKey)

	r.mu.Lock()
	if r.primary != nil && r.primaryKey == key {
		p := r.primary
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	p, err := r.newPrimary(apiKey)
	if err != nil {
		return nil, &TransportConstructionError{Transport: "resend", Err: err}
	}

	r.mu.Lock()
	r.primary, r.primaryKey = p, key
	r.mu.Unlock()
	return p, nil
}

func (r *Resolver) directFor(settings SMTPSettings) (Provider, error) {
	key := settings.fingerprint()

	r.mu.Lock()
	if r.direct != nil && r.directKey == key {
		p := r.direct
		r.mu.Unlock()
		return p, nil
	}
	r.mu.Unlock()

	p, err := r.newDirect(settings)
	if err != nil {
		return nil, &TransportConstructionError{Transport: "smtp", Err: err}
	}

	r.mu.Lock()
	r.direct, r.directKey = p, key
	r.mu.Unlock()
	return p, nil
}

func (r *Resolver) inertTransport(from, reason string) Transport {
	r.inertWarning.Do(func() {
		r.logger.Warn("using inert mail transport; notifications will not leave this process",
			"reason", reason)
	})
	return Transport{Kind: KindInert, Provider: r.inert, From: from}
}
