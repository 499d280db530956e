package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/afcpln/listingnet/internal/api"
	"github.com/afcpln/listingnet/internal/build"
	"github.com/afcpln/listingnet/internal/config"
	"github.com/afcpln/listingnet/internal/dedupe"
	"github.com/afcpln/listingnet/internal/eventbus"
	"github.com/afcpln/listingnet/internal/logger"
	"github.com/afcpln/listingnet/internal/scheduler"
	"github.com/afcpln/listingnet/internal/server"
	"github.com/afcpln/listingnet/internal/service"
	"github.com/afcpln/listingnet/internal/telemetry"
)

const eventBusWorkers = 4

// NewServeCmd returns the "serve" subcommand that starts the HTTP server and
// the notification pipeline behind it.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the event intake API and notification pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(build.Version, serverURL, logFile)

			if err := runServe(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "An error occurred. Please check the logs at: %s\n", logFile)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logCloser.Close() //nolint:errcheck

	sysLogger.Info("listingnet starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		build.Attrs(),
	)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, build.Version, sysLogger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	if cfg.OTLPEndpoint != "" {
		sysLogger = logger.Tee(sysLogger, cfg.SlogLevel(), telemetry.LogHandler())
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			sysLogger.Warn("flushing traces failed", "error", err)
		}
	}()

	a, err := newApp(cfg, sysLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			sysLogger.Warn("closing database failed", "error", err)
		}
	}()

	guard, closeGuard, err := newDedupeGuard(ctx, cfg, sysLogger)
	if err != nil {
		return err
	}
	defer closeGuard()

	listings := service.NewListingNotifier(a.users, a.delivery, sysLogger,
		service.WithMaxConcurrency(cfg.NotifyMaxConcurrency),
		service.WithDedupeGuard(guard),
		service.WithFanoutMetrics(a.metrics),
	)
	conversations := service.NewConversationNotifier(a.delivery, sysLogger)

	bus := eventbus.New(eventBusWorkers, sysLogger)
	// Closed before the database so queued deliveries drain and can still
	// write their audit entries after a shutdown signal.
	defer bus.Close()
	service.NewSubscriber(context.WithoutCancel(ctx), listings, conversations, sysLogger).Register(bus)

	if cfg.TransportProbeInterval > 0 {
		sched, err := scheduler.New(scheduler.Config{
			Resolver:      a.resolver,
			Metrics:       a.metrics,
			Logger:        sysLogger,
			ProbeInterval: cfg.TransportProbeInterval,
		})
		if err != nil {
			return fmt.Errorf("creating scheduler: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("starting scheduler: %w", err)
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				sysLogger.Warn("stopping scheduler failed", "error", err)
			}
		}()
	}

	userSvc := service.NewUserService(a.users, a.delivery, sysLogger)
	notificationSvc := service.NewNotificationService(a.audit, a.delivery)

	apiSrv := api.New(userSvc, notificationSvc, bus, sysLogger)
	srv := server.New(apiSrv, cfg.Port, sysLogger, server.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Gatherer:       a.registry,
	})

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	return srv.Run(ctx)
}

// newDedupeGuard returns the Redis guard when REDIS_URL is set and the
// in-process guard otherwise.
func newDedupeGuard(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (dedupe.Guard, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-process publish dedupe", "ttl", cfg.DedupeTTL.String())
		return dedupe.NewMemoryGuard(cfg.DedupeTTL), func() {}, nil
	}

	guard, err := dedupe.Connect(ctx, cfg.RedisURL, cfg.DedupeTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting dedupe redis: %w", err)
	}
	logger.Info("using redis publish dedupe", "ttl", cfg.DedupeTTL.String())
	return guard, func() {
		if err := guard.Close(); err != nil {
			logger.Warn("closing redis failed", "error", err)
		}
	}, nil
}

// printBanner writes the startup banner to stdout. It is the only output
// visible in the terminal during normal operation; all structured logs go
// to the log file instead.
func printBanner(version, serverURL, logFile string) {
	fmt.Print("\n  l i s t i n g n e t\n\n")
	fmt.Printf("listingnet %s running.\n", version)
	fmt.Printf("API: %s/api\n", serverURL)
	fmt.Printf("Logs: %s\n\n", logFile)
}
