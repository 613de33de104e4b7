// Package config defines server configuration and how it is loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"shotlog/internal/advisor"
)

// Store drivers
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "console" or "json" output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":18910".
	Addr string `koanf:"addr"`

	// StoreDriver picks the record store: bolt or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// DBPath is the database file. Empty means the XDG data directory.
	DBPath string `koanf:"db_path"`

	// SecureCookies sets the Secure flag on the alias cookie.
	SecureCookies bool `koanf:"secure_cookies"`

	// TracingEnabled turns on the OTLP exporter.
	TracingEnabled bool `koanf:"tracing_enabled"`

	// OTLPEndpoint is the host:port of the OTLP HTTP collector.
	OTLPEndpoint string `koanf:"otlp_endpoint"`

	// AdviceLanguage selects the advice catalog, "en" or "da".
	AdviceLanguage string `koanf:"advice_language"`

	// MetricsInterval is how often record gauges are refreshed.
	MetricsInterval time.Duration `koanf:"metrics_interval"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "console",
		Addr:            ":18910",
		StoreDriver:     DriverBolt,
		OTLPEndpoint:    "localhost:4318",
		AdviceLanguage:  "en",
		MetricsInterval: 30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks field values after loading.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.StoreDriver != DriverBolt && c.StoreDriver != DriverSQLite {
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if !slices.Contains(advisor.Languages, c.AdviceLanguage) {
		return fmt.Errorf("%w: unsupported advice language %q", ErrInvalidConfig, c.AdviceLanguage)
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("%w: metrics_interval must be positive", ErrInvalidConfig)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be console or json", ErrInvalidConfig)
	}
	return nil
}

// ResolveDBPath returns DBPath, or a file under $XDG_DATA_HOME/shotlog
// (~/.local/share/shotlog) named after the driver.
func (c *Config) ResolveDBPath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: resolve home directory: %w", ErrLoadConfig, err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	name := "shotlog.db"
	if c.StoreDriver == DriverSQLite {
		name = "shotlog.sqlite"
	}
	return filepath.Join(dataDir, "shotlog", name), nil
}
