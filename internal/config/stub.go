package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// StubConfig configures the in-memory stub backend.
type StubConfig struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8000"`

	// Path prefix the stub mounts its routes under
	APIPrefix string `env:"FITGOALZ_API_PREFIX" envDefault:""`

	// Token signing
	JWTSecret string        `env:"JWT_SECRET" envDefault:"fitgoalz-dev-secret"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"30m"`

	// Browser access and request limits
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// IsDevelopment returns true if running in development mode.
func (c *StubConfig) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *StubConfig) IsProduction() bool {
	return c.AppEnv == "production"
}

// Prefix returns the normalized route prefix.
func (c *StubConfig) Prefix() string {
	return NormalizePrefix(c.APIPrefix)
}

// LoadStub parses environment variables for the stub backend.
// The development signing secret is refused in production.
func LoadStub() (*StubConfig, error) {
	cfg := &StubConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.IsProduction() && cfg.JWTSecret == "fitgoalz-dev-secret" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	return cfg, nil
}
