// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Credential store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

var (
	// ErrInvalidAPIURL indicates FITGOALZ_API_URL is not an absolute http(s) URL.
	ErrInvalidAPIURL = errors.New("invalid API URL")
	// ErrUnknownStore indicates an unsupported credential store backend.
	ErrUnknownStore = errors.New("unknown credential store")
)

// Config holds all client configuration.
// All fields are populated from environment variables.
type Config struct {
	// Backend origin and path prefix (e.g. "/api" on some deployments)
	APIURL         string        `env:"FITGOALZ_API_URL" envDefault:"http://localhost:8000"`
	APIPrefix      string        `env:"FITGOALZ_API_PREFIX" envDefault:""`
	RequestTimeout time.Duration `env:"FITGOALZ_REQUEST_TIMEOUT" envDefault:"30s"`

	// Credential storage
	Profile              string `env:"FITGOALZ_PROFILE" envDefault:"default"`
	CredentialStore      string `env:"FITGOALZ_CREDENTIAL_STORE" envDefault:"file"`
	CredentialDir        string `env:"FITGOALZ_CREDENTIAL_DIR"`
	CredentialPassphrase string `env:"FITGOALZ_CREDENTIAL_PASSPHRASE"`
	RedisURL             string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	SQLitePath           string `env:"SQLITE_PATH"`
	DatabaseURL          string `env:"DATABASE_URL"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Pushgateway address; empty disables metric pushes
	MetricsPushURL string `env:"METRICS_PUSH_URL" envDefault:""`
}

// BaseURL returns the API origin without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.APIURL, "/")
}

// Prefix returns the API path prefix normalized to "" or "/segment".
func (c *Config) Prefix() string {
	return NormalizePrefix(c.APIPrefix)
}

// CredentialPath returns the directory holding file-backed credentials.
// Falls back to the user config directory when FITGOALZ_CREDENTIAL_DIR is unset.
func (c *Config) CredentialPath() (string, error) {
	if c.CredentialDir != "" {
		return c.CredentialDir, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "fitgoalz"), nil
}

// SQLiteFile returns the SQLite database path for the sqlite store.
func (c *Config) SQLiteFile() (string, error) {
	if c.SQLitePath != "" {
		return c.SQLitePath, nil
	}
	dir, err := c.CredentialPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.db"), nil
}

// Validate checks values env parsing cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIURL, c.APIURL)
	}

	switch c.CredentialStore {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres credential store")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.CredentialStore)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NormalizePrefix trims slashes and returns "" or "/a/b".
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
