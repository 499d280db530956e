package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/afcpln/listingnet/internal/config"
	"github.com/afcpln/listingnet/internal/metrics"
	"github.com/afcpln/listingnet/internal/notification"
	"github.com/afcpln/listingnet/internal/storage"
)

// app holds the components every subcommand shares: the database, the stores
// built on it and the delivery service.
type app struct {
	db       *sql.DB
	users    *storage.SQLiteUserStore
	audit    *storage.SQLiteAuditStore
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	resolver *notification.Resolver
	delivery *notification.Service
}

func newApp(cfg *config.AppConfig, logger *slog.Logger) (*app, error) {
	db, fresh, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if fresh {
		logger.Info("initialized new database", "path", cfg.DBPath())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	users := storage.NewSQLiteUserStore(db)
	audit := storage.NewSQLiteAuditStore(db)
	resolver := notification.NewResolver(config.LoadMail, logger)
	delivery := notification.NewService(resolver, audit, users, logger, notification.WithMetrics(m))

	return &app{
		db:       db,
		users:    users,
		audit:    audit,
		registry: registry,
		metrics:  m,
		resolver: resolver,
		delivery: delivery,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
