// Package scheduler runs the periodic background jobs of the service. Today
// that is the transport probe, which re-resolves the mail transport so the
// active-transport gauge and logs follow configuration changes even when no
// notification is being sent.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/afcpln/listingnet/internal/metrics"
	"github.com/afcpln/listingnet/internal/notification"
)

const defaultProbeInterval = 5 * time.Minute

// TransportResolver is the part of notification.Resolver the probe needs.
type TransportResolver interface {
	Resolve(ctx context.Context) (notification.Transport, error)
}

// Config holds the scheduler configuration.
type Config struct {
	Resolver      TransportResolver
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	ProbeInterval time.Duration
}

// Scheduler manages background jobs using gocron.
type Scheduler struct {
	cron   gocron.Scheduler
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	lastKind notification.TransportKind
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = defaultProbeInterval
	}
	return &Scheduler{cron: cron, cfg: cfg, logger: cfg.Logger}, nil
}

// Start schedules the transport probe, runs it once immediately and starts
// the gocron scheduler. ctx bounds every probe run.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(s.cfg.ProbeInterval),
		gocron.NewTask(func() {
			_, _ = s.Probe(ctx)
		}),
		gocron.WithName("transport-probe"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling transport probe: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "probe_interval", s.cfg.ProbeInterval.String())
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// Probe resolves the current transport and publishes it. A change of
// transport is logged at info level; an unchanged one only at debug.
func (s *Scheduler) Probe(ctx context.Context) (notification.TransportKind, error) {
	t, err := s.cfg.Resolver.Resolve(ctx)
	if err != nil {
		s.logger.Warn("transport probe failed", "error", err)
		return "", err
	}

	s.cfg.Metrics.SetActiveTransport(string(t.Kind), notification.TransportKinds...)

	s.mu.Lock()
	previous := s.lastKind
	s.lastKind = t.Kind
	s.mu.Unlock()

	if previous != t.Kind {
		s.logger.Info("active mail transport", "kind", t.Kind, "provider", t.Provider.Name(), "previous", previous)
	} else {
		s.logger.Debug("active mail transport unchanged", "kind", t.Kind)
	}
	return t.Kind, nil
}
