// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	GRPCPort    string   `env:"GRPC_PORT"` // empty disables the gRPC listener
	Debug       bool     `env:"DEBUG" envDefault:"false"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	Problem   ProblemConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
}

// ProblemConfig controls problem generation and grading.
type ProblemConfig struct {
	Mode              string        `env:"PROBLEM_MODE" envDefault:"random"`
	Min               int           `env:"PROBLEM_MIN" envDefault:"1"`
	Max               int           `env:"PROBLEM_MAX" envDefault:"67"`
	Seed              int64         `env:"PROBLEM_SEED" envDefault:"0"`
	TTL               time.Duration `env:"PROBLEM_TTL" envDefault:"1h"`
	DefaultTolerance  float64       `env:"DEFAULT_TOLERANCE" envDefault:"0.5"`
	AllowDebugAnswers bool          `env:"ALLOW_DEBUG_ANSWERS" envDefault:"true"`
}

// StoreConfig selects and configures the problem registry.
type StoreConfig struct {
	Driver      string        `env:"STORE_DRIVER" envDefault:"memory"`
	DBPath      string        `env:"DB_PATH" envDefault:"./data/problems.db"`
	TTLInterval time.Duration `env:"TTL_INTERVAL" envDefault:"5m"`
}

// RateLimitConfig throttles answer submissions per client IP.
type RateLimitConfig struct {
	PerSecond float64 `env:"CHECK_RATE_LIMIT" envDefault:"20"`
	Burst     int     `env:"CHECK_RATE_BURST" envDefault:"40"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.GRPCPort != "" && c.GRPCPort == c.Port {
		return fmt.Errorf("GRPC_PORT must differ from PORT")
	}
	switch c.Problem.Mode {
	case "random", "example":
	default:
		return fmt.Errorf("PROBLEM_MODE must be random or example, got %q", c.Problem.Mode)
	}
	if c.Problem.Min < 1 || c.Problem.Max < c.Problem.Min {
		return fmt.Errorf("PROBLEM_MIN/PROBLEM_MAX must satisfy 1 <= min <= max, got %d..%d", c.Problem.Min, c.Problem.Max)
	}
	if c.Problem.TTL < 0 {
		return fmt.Errorf("PROBLEM_TTL cannot be negative")
	}
	if c.Problem.DefaultTolerance < 0 {
		return fmt.Errorf("DEFAULT_TOLERANCE cannot be negative")
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty with the sqlite driver")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be memory or sqlite, got %q", c.Store.Driver)
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("CHECK_RATE_LIMIT and CHECK_RATE_BURST must be > 0")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Debug
}

// SlogLevel returns the configured log level. DEBUG=true forces debug.
func (c *Config) SlogLevel() (slog.Level, error) {
	if c.Debug {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
