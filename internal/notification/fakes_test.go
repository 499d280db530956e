package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/afcpln/listingnet/internal/config"
)

// fakeProvider records every message it is asked to send.
type fakeProvider struct {
	name string
	err  error

	mu   sync.Mutex
	sent []Message
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Send(_ context.Context, msg Message) (Receipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	if p.err != nil {
		return Receipt{}, p.err
	}
	return Receipt{ID: p.name + "-1", Response: p.name + " ok"}, nil
}

func (p *fakeProvider) messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.sent...)
}

// statusErr mimics an API error that carries an HTTP status.
type statusErr struct {
	status int
	msg    string
}

func (e *statusErr) Error() string   { return e.msg }
func (e *statusErr) StatusCode() int { return e.status }

// staticConfig returns a loader that always yields a copy of cfg.
func staticConfig(cfg config.MailConfig) MailConfigLoader {
	return func() (*config.MailConfig, error) {
		c := cfg
		return &c, nil
	}
}

// mutableConfig lets a test change the configuration between resolutions.
type mutableConfig struct {
	mu  sync.Mutex
	cfg config.MailConfig
	err error
}

func (m *mutableConfig) set(cfg config.MailConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
}

func (m *mutableConfig) load() (*config.MailConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c := m.cfg
	return &c, nil
}

// factoryCounter builds fake providers and counts constructions.
type factoryCounter struct {
	mu       sync.Mutex
	primary  int
	direct   int
	lastKey  string
	lastSMTP SMTPSettings

	primaryErr error
	directErr  error
	primaryOut *fakeProvider
	directOut  *fakeProvider
}

func newFactoryCounter() *factoryCounter {
	return &factoryCounter{
		primaryOut: &fakeProvider{name: "resend"},
		directOut:  &fakeProvider{name: "smtp"},
	}
}

func (f *factoryCounter) newPrimary(key string) (Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primary++
	f.lastKey = key
	if f.primaryErr != nil {
		return nil, f.primaryErr
	}
	return f.primaryOut, nil
}

func (f *factoryCounter) newDirect(s SMTPSettings) (Provider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct++
	f.lastSMTP = s
	if f.directErr != nil {
		return nil, f.directErr
	}
	return f.directOut, nil
}

func (f *factoryCounter) options() []ResolverOption {
	return []ResolverOption{
		WithPrimaryFactory(f.newPrimary),
		WithDirectFactory(f.newDirect),
	}
}

var errBoom = errors.New("boom")
