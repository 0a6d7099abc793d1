package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "corrigo.db", cfg.DBPath)
	assert.Equal(t, "https://api.anthropic.com/v1", cfg.Engine.BaseURL)
	assert.Equal(t, 25*time.Second, cfg.Engine.SyncTimeout)
	assert.Equal(t, 120*time.Second, cfg.Engine.AsyncTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Jobs.Retention)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.SweepInterval)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:5173")
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLAUDE_API_KEY")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLAUDE_API_KEY", "test-key")
	t.Setenv("CORRIGO_ADDR", ":9090")
	t.Setenv("CORRIGO_SYNC_TIMEOUT", "10s")
	t.Setenv("CORRIGO_CORS_ORIGINS", "https://rédaction.example.fr")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.Engine.SyncTimeout)
	assert.Equal(t, []string{"https://rédaction.example.fr"}, cfg.AllowedOrigins)
}

func TestSanitizeClampsBadValues(t *testing.T) {
	cfg := &Config{}
	cfg.Engine.MaxOutputTokens = -1
	cfg.Engine.Temperature = 7.5
	cfg.Engine.SyncTimeout = -time.Second
	cfg.Jobs.Retention = 0

	cfg.Sanitize()

	assert.Equal(t, 10000, cfg.Engine.MaxOutputTokens)
	assert.Equal(t, 0.3, cfg.Engine.Temperature)
	assert.Equal(t, 25*time.Second, cfg.Engine.SyncTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Jobs.Retention)
}
