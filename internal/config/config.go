package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"

	"minishield-dashboard/internal/store"
)

// Config holds all configuration for the dashboard.
type Config struct {
	API      APIConfig
	Database DatabaseConfig
	Serve    ServeConfig
}

// APIConfig holds settings for talking to the WAF gateway.
type APIConfig struct {
	// URL overrides the persisted backend address when set. The effective
	// address is resolved per call, not at startup, so it may change
	// mid-session through `config set api-url`.
	URL            string        `env:"MINISHIELD_API_URL"`
	RequestTimeout time.Duration `env:"MINISHIELD_API_TIMEOUT" envDefault:"15s"`
}

// DatabaseConfig holds the local settings database configuration.
type DatabaseConfig struct {
	Driver string `env:"MINISHIELD_DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"MINISHIELD_DB_DSN"`
}

// ServeConfig holds the local web facade configuration.
type ServeConfig struct {
	Host string `env:"MINISHIELD_SERVE_HOST" envDefault:"127.0.0.1"`
	Port int    `env:"MINISHIELD_SERVE_PORT" envDefault:"8090"`
}

// Addr returns the facade listen address in host:port format.
func (c *ServeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.API); err != nil {
		return nil, fmt.Errorf("parsing api config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Serve); err != nil {
		return nil, fmt.Errorf("parsing serve config: %w", err)
	}

	if cfg.Database.DSN == "" {
		dsn, err := defaultDSN()
		if err != nil {
			return nil, err
		}
		cfg.Database.DSN = dsn
	}

	return cfg, nil
}

func defaultDSN() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".minishield")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return filepath.Join(dir, "dashboard.db"), nil
}

// Resolver yields the backend base address at call time. An empty string
// means the dashboard is unconfigured and no call may be attempted.
type Resolver func(ctx context.Context) string

// NewResolver builds the address chain: environment override first, then
// the persisted setting.
func (c *Config) NewResolver(settings *store.Store) Resolver {
	return func(ctx context.Context) string {
		if c.API.URL != "" {
			return strings.TrimRight(c.API.URL, "/")
		}
		v, err := settings.Get(ctx, store.KeyAPIURL)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return ""
			}
			return ""
		}
		return strings.TrimRight(v, "/")
	}
}

// StaticResolver returns a resolver pinned to one address. Tests use it.
func StaticResolver(url string) Resolver {
	url = strings.TrimRight(url, "/")
	return func(context.Context) string { return url }
}
