package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

func TestNewManager_Defaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "http://localhost:8501", cfg.Scoring.BaseURL)
	assert.Equal(t, 3, cfg.Scoring.MaxRetries)
	assert.Equal(t, 1000, cfg.Batch.MaxSize)
	assert.Equal(t, 8, cfg.Batch.MaxConcurrency)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Period)
	assert.Equal(t, "sqlite", cfg.History.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, manager.Validate())
}

func TestManager_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{
			name:   "invalid port",
			mutate: func(c *domain.Config) { c.Server.Port = 0 },
		},
		{
			name:   "port out of range",
			mutate: func(c *domain.Config) { c.Server.Port = 70000 },
		},
		{
			name:   "missing scoring base url",
			mutate: func(c *domain.Config) { c.Scoring.BaseURL = "" },
		},
		{
			name:   "non-positive cache ttl",
			mutate: func(c *domain.Config) { c.Cache.TTL = 0 },
		},
		{
			name:   "non-positive batch size",
			mutate: func(c *domain.Config) { c.Batch.MaxSize = 0 },
		},
		{
			name:   "non-positive batch concurrency",
			mutate: func(c *domain.Config) { c.Batch.MaxConcurrency = -1 },
		},
		{
			name:   "unknown history backend",
			mutate: func(c *domain.Config) { c.History.Backend = "dynamo" },
		},
		{
			name: "postgres backend without url",
			mutate: func(c *domain.Config) {
				c.History.Backend = "postgres"
				c.History.DatabaseURL = ""
			},
		},
		{
			name:   "invalid log level",
			mutate: func(c *domain.Config) { c.Logging.Level = "verbose" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewManager()
			require.NoError(t, err)

			tt.mutate(manager.GetConfig())
			assert.Error(t, manager.Validate())
		})
	}
}

func TestManager_Validate_NoneBackend(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	manager.GetConfig().History.Backend = "none"
	assert.NoError(t, manager.Validate())
}
