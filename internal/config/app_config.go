package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.listingnet.
	DataDir string `envconfig:"LISTINGNET_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// RedisURL enables the shared publish-event dedupe guard. When empty an
	// in-process guard is used.
	RedisURL string `envconfig:"REDIS_URL"`

	// NotifyMaxConcurrency bounds how many deliveries one publish event runs at once.
	NotifyMaxConcurrency int `envconfig:"NOTIFY_MAX_CONCURRENCY" default:"8"`

	// TransportProbeInterval is how often the active mail transport is re-resolved
	// and reported. Zero disables the probe.
	TransportProbeInterval time.Duration `envconfig:"TRANSPORT_PROBE_INTERVAL" default:"5m"`

	// DedupeTTL is how long a published listing id is remembered.
	DedupeTTL time.Duration `envconfig:"DEDUPE_TTL" default:"24h"`

	// CORSAllowedOrigins is a comma-separated origin list for the HTTP API.
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// OTLPEndpoint enables trace export over OTLP/gRPC, e.g. http://localhost:4317.
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.listingnet if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".listingnet")
	}
	if c.NotifyMaxConcurrency <= 0 {
		c.NotifyMaxConcurrency = 8
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (<data>/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite database file.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "listingnet.db")
}
