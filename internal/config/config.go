// Package config loads process configuration from environment variables
// using github.com/caarlos0/env struct tags. A .env file is honored in
// development via godotenv (loaded by cmd/corrigo before parsing).
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `env:"CORRIGO_ADDR" envDefault:":8080"`

	// DBPath is the DuckDB file backing presets and correction history.
	DBPath string `env:"CORRIGO_DB_PATH" envDefault:"corrigo.db"`

	// AllowedOrigins feeds the CORS layer for the browser front-end.
	AllowedOrigins []string `env:"CORRIGO_CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`

	Engine EngineConfig
	Jobs   JobsConfig
}

// EngineConfig configures the upstream correction engine client.
type EngineConfig struct {
	// APIKey is the upstream credential. Absence is a fatal startup
	// condition, never a per-request error.
	APIKey  string `env:"CLAUDE_API_KEY"`
	BaseURL string `env:"CLAUDE_BASE_URL" envDefault:"https://api.anthropic.com/v1"`
	Model   string `env:"CLAUDE_MODEL" envDefault:"claude-sonnet-4-20250514"`

	// MaxOutputTokens bounds the upstream completion size.
	MaxOutputTokens int     `env:"CLAUDE_MAX_OUTPUT_TOKENS" envDefault:"10000"`
	Temperature     float64 `env:"CLAUDE_TEMPERATURE" envDefault:"0.3"`

	// SyncTimeout bounds the request/response path (front-end wall-clock
	// limits); AsyncTimeout bounds background-job calls.
	SyncTimeout  time.Duration `env:"CORRIGO_SYNC_TIMEOUT" envDefault:"25s"`
	AsyncTimeout time.Duration `env:"CORRIGO_ASYNC_TIMEOUT" envDefault:"120s"`
}

// JobsConfig configures the in-memory job store.
type JobsConfig struct {
	// Retention is how long an unconsumed job record may live.
	Retention time.Duration `env:"CORRIGO_JOB_RETENTION" envDefault:"10m"`

	// SweepInterval is the period of the expiry sweep, independent of
	// request traffic.
	SweepInterval time.Duration `env:"CORRIGO_JOB_SWEEP_INTERVAL" envDefault:"5m"`
}

// Load parses the environment and applies guardrails.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sanitize clamps values loaded from env to sane ranges.
func (c *Config) Sanitize() {
	if c.Engine.MaxOutputTokens <= 0 {
		c.Engine.MaxOutputTokens = 10000
	}
	if c.Engine.Temperature < 0 || c.Engine.Temperature > 1 {
		c.Engine.Temperature = 0.3
	}
	if c.Engine.SyncTimeout <= 0 {
		c.Engine.SyncTimeout = 25 * time.Second
	}
	if c.Engine.AsyncTimeout <= 0 {
		c.Engine.AsyncTimeout = 120 * time.Second
	}
	if c.Jobs.Retention <= 0 {
		c.Jobs.Retention = 10 * time.Minute
	}
	if c.Jobs.SweepInterval <= 0 {
		c.Jobs.SweepInterval = 5 * time.Minute
	}
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	if c.Engine.APIKey == "" {
		return fmt.Errorf("CLAUDE_API_KEY is not set")
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("CLAUDE_BASE_URL must not be empty")
	}
	return nil
}
