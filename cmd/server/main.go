package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/medicare-fraud-scoring-server/internal/api"
	"github.com/medicare-fraud-scoring-server/internal/artifacts"
	"github.com/medicare-fraud-scoring-server/internal/cache"
	"github.com/medicare-fraud-scoring-server/internal/config"
	"github.com/medicare-fraud-scoring-server/internal/database"
	"github.com/medicare-fraud-scoring-server/internal/domain"
	"github.com/medicare-fraud-scoring-server/internal/graphfeat"
	"github.com/medicare-fraud-scoring-server/internal/history"
	"github.com/medicare-fraud-scoring-server/internal/pipeline"
	"github.com/medicare-fraud-scoring-server/pkg/scoring"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(&cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting Medicare fraud scoring server")

	// Vocabulary artifacts are process-critical: without them no claim can
	// be encoded, so a load failure is fatal at startup.
	vocabularies, err := artifacts.LoadVocabularies(&cfg.Artifacts, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load vocabulary artifacts")
	}

	cacheStore, cacheHealth := newCacheStore(cfg, logger)
	centrality := graphfeat.NewService(cacheStore, cfg.Cache.TTL, logger)

	scorer := scoring.NewClient(scoring.Config{
		BaseURL:    cfg.Scoring.BaseURL,
		Timeout:    cfg.Scoring.Timeout,
		MaxRetries: cfg.Scoring.MaxRetries,
		RateLimit:  cfg.Scoring.RateLimit,
	}, logger)

	historyStore := newHistoryStore(cfg, logger)
	if historyStore != nil {
		defer historyStore.Close()
	}

	predictor := pipeline.NewPredictor(
		vocabularies.Procedure,
		vocabularies.ProviderType,
		centrality,
		scorer,
		logger,
		pipeline.Options{
			History:             historyStore,
			BatchMaxConcurrency: cfg.Batch.MaxConcurrency,
		},
	)

	server := api.NewServer(cfg, logger, api.Options{
		Predictor:   predictor,
		Scorer:      scorer,
		History:     historyStore,
		CacheHealth: cacheHealth,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.ToLower(cfg.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// newCacheStore connects to Redis when configured and falls back to the
// in-process TTL store otherwise. The cache is an optimization: an
// unreachable Redis degrades the deployment, it does not stop it.
func newCacheStore(cfg *domain.Config, logger *logrus.Logger) (domain.CacheStore, func(context.Context) error) {
	if cfg.Cache.RedisURL == "" {
		logger.Info("No Redis URL configured, using in-process centrality cache")
		return cache.NewMemoryStore(cfg.Cache.MemorySize, cfg.Cache.TTL), nil
	}

	redisStore, err := cache.NewRedisStore(&cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unreachable, falling back to in-process centrality cache")
		return cache.NewMemoryStore(cfg.Cache.MemorySize, cfg.Cache.TTL), nil
	}
	return redisStore, redisStore.Ping
}

// newHistoryStore builds the prediction history backend. History is
// operational telemetry, so backend failures log and disable it rather
// than stopping startup.
func newHistoryStore(cfg *domain.Config, logger *logrus.Logger) domain.PredictionStore {
	switch strings.ToLower(cfg.History.Backend) {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.History.SQLitePath)
		if err != nil {
			logger.WithError(err).Warn("Failed to open SQLite prediction history, continuing without history")
			return nil
		}
		logger.WithField("path", cfg.History.SQLitePath).Info("Prediction history enabled (SQLite)")
		return store
	case "postgres":
		runner, err := database.NewMigrationRunner(cfg.History.DatabaseURL, cfg.History.MigrationsPath, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to prepare history migrations, continuing without history")
			return nil
		}
		defer runner.Close()
		if err := runner.Up(); err != nil {
			logger.WithError(err).Warn("Failed to run history migrations, continuing without history")
			return nil
		}

		store, err := history.NewPostgresStoreFromURL(cfg.History.DatabaseURL)
		if err != nil {
			logger.WithError(err).Warn("Failed to open Postgres prediction history, continuing without history")
			return nil
		}
		logger.Info("Prediction history enabled (Postgres)")
		return store
	default:
		logger.Info("Prediction history disabled")
		return nil
	}
}
