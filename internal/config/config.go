package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// Manager loads and validates server configuration using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment, and defaults.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/fraud-scoring-server/")

	viper.SetEnvPrefix("FRAUD_SCORING")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars cover everything.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Centrality cache defaults. TTL matches the model's one-hour staleness
	// budget for topology scores.
	viper.SetDefault("cache.redis_url", "redis://localhost:6379")
	viper.SetDefault("cache.ttl", "3600s")
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.memory_size", 4096)
	viper.SetDefault("cache.dial_timeout", "4s")

	// Scoring engine client defaults
	viper.SetDefault("scoring.base_url", "http://localhost:8501")
	viper.SetDefault("scoring.timeout", "30s")
	viper.SetDefault("scoring.max_retries", 3)
	viper.SetDefault("scoring.rate_limit", 50)

	// Artifact defaults
	viper.SetDefault("artifacts.dir", "./artifacts")
	viper.SetDefault("artifacts.procedure_vocabulary", "vocabulary_hcpcs.json")
	viper.SetDefault("artifacts.provider_type_vocabulary", "vocabulary_provider_type.json")

	// Batch defaults
	viper.SetDefault("batch.max_size", 1000)
	viper.SetDefault("batch.max_concurrency", 8)

	// History defaults
	viper.SetDefault("history.backend", "sqlite")
	viper.SetDefault("history.sqlite_path", "./data/predictions.db")
	viper.SetDefault("history.database_url", "")
	viper.SetDefault("history.migrations_path", "./migrations")

	// Inbound rate limit defaults
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.period", "60s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration.
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetCacheConfig returns centrality cache configuration.
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// GetScoringConfig returns scoring engine client configuration.
func (m *Manager) GetScoringConfig() *domain.ScoringConfig {
	return &m.config.Scoring
}

// Reload reloads the configuration.
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Scoring.BaseURL == "" {
		return fmt.Errorf("scoring engine base URL is required")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if config.Batch.MaxSize <= 0 {
		return fmt.Errorf("batch max size must be positive")
	}
	if config.Batch.MaxConcurrency <= 0 {
		return fmt.Errorf("batch max concurrency must be positive")
	}

	switch strings.ToLower(config.History.Backend) {
	case "sqlite":
		if config.History.SQLitePath == "" {
			return fmt.Errorf("sqlite history backend requires a database path")
		}
	case "postgres":
		if config.History.DatabaseURL == "" {
			return fmt.Errorf("postgres history backend requires a database URL")
		}
	case "none":
	default:
		return fmt.Errorf("invalid history backend: %s", config.History.Backend)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode.
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}
