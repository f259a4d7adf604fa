package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.Problem.Mode != "random" {
		t.Errorf("expected random mode, got %s", cfg.Problem.Mode)
	}
	if cfg.Problem.Min != 1 || cfg.Problem.Max != 67 {
		t.Errorf("expected range 1..67, got %d..%d", cfg.Problem.Min, cfg.Problem.Max)
	}
	if cfg.Problem.DefaultTolerance != 0.5 {
		t.Errorf("expected tolerance 0.5, got %v", cfg.Problem.DefaultTolerance)
	}
	if cfg.Problem.TTL != time.Hour {
		t.Errorf("expected ttl 1h, got %v", cfg.Problem.TTL)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected memory driver, got %s", cfg.Store.Driver)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("expected CORS origins [*], got %v", cfg.CORSOrigins)
	}
	if cfg.IsDevelopment() {
		t.Error("expected non-development by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PROBLEM_MODE", "example")
	t.Setenv("PROBLEM_TTL", "0")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9000" || cfg.Problem.Mode != "example" || cfg.Store.Driver != "sqlite" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.Problem.TTL != 0 {
		t.Errorf("expected ttl 0, got %v", cfg.Problem.TTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("expected 2 CORS origins, got %v", cfg.CORSOrigins)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v (%v)", level, err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad mode", "PROBLEM_MODE", "chaos"},
		{"bad driver", "STORE_DRIVER", "postgres"},
		{"bad range", "PROBLEM_MIN", "100"},
		{"negative tolerance", "DEFAULT_TOLERANCE", "-1"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"zero rate", "CHECK_RATE_LIMIT", "0"},
		{"unparseable int", "PROBLEM_MAX", "lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
