// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds runtime configuration for the user service. The JWT secret is
// loaded once at startup and treated as immutable afterwards.
type Config struct {
	Environment   string        `env:"APP_ENV" envDefault:"development"`
	Addr          string        `env:"API_ADDR" envDefault:":4000"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL   string        `env:"DATABASE_URL" envDefault:"postgres://usersvc:usersvc@db:5432/usersvc?sslmode=disable"`
	MigrationsDir string        `env:"DB_MIGRATIONS_DIR" envDefault:"db/migrations"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"supersecuresecret"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	RateLimitRedisAddr string `env:"RATE_LIMIT_REDIS_ADDR"`
	RateLimitRedisPass string `env:"RATE_LIMIT_REDIS_PASSWORD"`
	RateLimitRedisDB   int    `env:"RATE_LIMIT_REDIS_DB" envDefault:"0"`
}

// Load parses configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt secret must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}
