package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validConfig() *Config {
	return &Config{
		Port:           "8080",
		DataBackend:    BackendSQLite,
		DBPath:         "./data/test.db",
		JWTSecret:      "0123456789abcdef0123",
		TokenTTL:       time.Hour,
		SnapshotTTL:    time.Minute,
		SnapshotSize:   10,
		CacheSweepSpec: "@every 1m",
		BudgetTarget:   decimal.NewFromInt(1000),
		LogFormat:      "text",
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SNAPSHOT_TTL", "90s")
	t.Setenv("SNAPSHOT_SIZE", "not-a-number")
	t.Setenv("BUDGET_TARGET", "2500000.50")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DataBackend != BackendMemory {
		t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
	}
	if cfg.SnapshotTTL != 90*time.Second {
		t.Errorf("SnapshotTTL = %v, want 90s", cfg.SnapshotTTL)
	}
	if cfg.SnapshotSize != 1000 {
		t.Errorf("SnapshotSize = %d, want default 1000", cfg.SnapshotSize)
	}
	if !cfg.BudgetTarget.Equal(decimal.RequireFromString("2500000.5")) {
		t.Errorf("BudgetTarget = %s", cfg.BudgetTarget)
	}
	if cfg.CacheSweepSpec != "@every 5m" {
		t.Errorf("CacheSweepSpec = %q, want default", cfg.CacheSweepSpec)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "memory backend needs no path", mutate: func(c *Config) { c.DataBackend = BackendMemory; c.DBPath = "" }},
		{name: "bad port", mutate: func(c *Config) { c.Port = "http" }, wantErr: "invalid port"},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }, wantErr: "between 1 and 65535"},
		{name: "unknown backend", mutate: func(c *Config) { c.DataBackend = "sheets" }, wantErr: "invalid data backend"},
		{name: "postgres without url", mutate: func(c *Config) { c.DataBackend = BackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: "at least 16"},
		{name: "bad amqp scheme", mutate: func(c *Config) { c.AMQPURL = "http://localhost" }, wantErr: "AMQP URL scheme"},
		{name: "amqp without queue", mutate: func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "x" }, wantErr: "queue name"},
		{name: "bad cron spec", mutate: func(c *Config) { c.CacheSweepSpec = "every five minutes" }, wantErr: "CACHE_SWEEP_SPEC"},
		{name: "zero budget", mutate: func(c *Config) { c.BudgetTarget = decimal.Zero }, wantErr: "BUDGET_TARGET"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.JWTSecret = ""
	cfg.SnapshotSize = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := strings.Count(err.Error(), "\n  - "); got != 3 {
		t.Errorf("expected 3 problems, got %d in %q", got, err)
	}
}
