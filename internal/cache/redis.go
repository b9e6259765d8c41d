// Package cache provides the key-value stores behind the centrality cache:
// a Redis-backed store for deployments and an in-process TTL store used
// when Redis is not configured.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// RedisStore implements domain.CacheStore on a Redis connection. The store
// is passive: values expire server-side and concurrent writers race under
// last-write-wins, which is acceptable for idempotent approximations.
type RedisStore struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewRedisStore creates a Redis-backed cache store from a redis:// URL.
// The connection is verified eagerly so a misconfigured cache shows up at
// startup rather than as per-request fallthrough.
func NewRedisStore(cfg *domain.CacheConfig, logger *logrus.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, domain.NewCacheUnavailableError("parse url", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, domain.NewCacheUnavailableError("ping", err)
	}

	logger.WithField("addr", opts.Addr).Info("Connected to Redis cache store")

	return &RedisStore{client: client, log: logger}, nil
}

// Get retrieves a value. A missing key is (_, false, nil); any transport
// error is wrapped as CacheUnavailableError.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domain.NewCacheUnavailableError("get", err)
	}
	return value, true, nil
}

// Set writes a value with a TTL as a single atomic put.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return domain.NewCacheUnavailableError("set", err)
	}
	return nil
}

// Ping reports store reachability for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return domain.NewCacheUnavailableError("ping", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
