package domain

import "time"

// Config is the complete server configuration.
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Scoring     ScoringConfig   `mapstructure:"scoring"`
	Artifacts   ArtifactConfig  `mapstructure:"artifacts"`
	Batch       BatchConfig     `mapstructure:"batch"`
	History     HistoryConfig   `mapstructure:"history"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// CacheConfig holds centrality cache configuration. When RedisURL is empty
// the server falls back to the in-process TTL store.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	TTL         time.Duration `mapstructure:"ttl"`
	PoolSize    int           `mapstructure:"pool_size"`
	MemorySize  int           `mapstructure:"memory_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// ScoringConfig holds scoring engine client configuration.
type ScoringConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RateLimit  int           `mapstructure:"rate_limit"`
}

// ArtifactConfig locates the vocabulary artifacts loaded at startup.
type ArtifactConfig struct {
	Dir                    string `mapstructure:"dir"`
	ProcedureVocabulary    string `mapstructure:"procedure_vocabulary"`
	ProviderTypeVocabulary string `mapstructure:"provider_type_vocabulary"`
}

// BatchConfig bounds batch processing.
type BatchConfig struct {
	MaxSize        int `mapstructure:"max_size"`
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// HistoryConfig selects the prediction history backend.
type HistoryConfig struct {
	Backend        string `mapstructure:"backend"` // "sqlite" or "postgres"
	SQLitePath     string `mapstructure:"sqlite_path"`
	DatabaseURL    string `mapstructure:"database_url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RateLimitConfig bounds inbound request rate.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Period   time.Duration `mapstructure:"period"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
