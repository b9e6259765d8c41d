// Package api is the HTTP surface of the fraud scoring server. The core
// pipeline lives in internal/pipeline; this layer only binds requests,
// maps error kinds to status codes, and reports health.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/medicare-fraud-scoring-server/internal/domain"
	"github.com/medicare-fraud-scoring-server/internal/middleware"
	"github.com/medicare-fraud-scoring-server/internal/pipeline"
)

// Server represents the HTTP server.
type Server struct {
	cfg       *domain.Config
	router    *gin.Engine
	server    *http.Server
	log       *logrus.Logger
	predictor *pipeline.Predictor
	scorer    domain.ScoringEngine
	history   domain.PredictionStore // optional
	// cacheHealth pings the cache store; nil when the in-process store is
	// in use.
	cacheHealth func(ctx context.Context) error
}

// Options carries the collaborators the server exposes endpoints for.
type Options struct {
	Predictor   *pipeline.Predictor
	Scorer      domain.ScoringEngine
	History     domain.PredictionStore
	CacheHealth func(ctx context.Context) error
}

// NewServer creates a new HTTP server instance.
func NewServer(cfg *domain.Config, logger *logrus.Logger, opts Options) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Period))

	server := &Server{
		cfg:         cfg,
		router:      router,
		log:         logger,
		predictor:   opts.Predictor,
		scorer:      opts.Scorer,
		history:     opts.History,
		cacheHealth: opts.CacheHealth,
	}

	server.setupRoutes()

	return server
}

// Start starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the configured handler, primarily for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/predict", s.handlePredict)
	s.router.POST("/predict/batch", s.handlePredictBatch)
	s.router.GET("/model/importance", s.handleFeatureImportance)
	s.router.GET("/predictions", s.handleListPredictions)
}
