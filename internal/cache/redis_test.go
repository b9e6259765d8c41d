package cache

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

func TestNewRedisStore_BadURL(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := NewRedisStore(&domain.CacheConfig{RedisURL: "not-a-url"}, logger)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindCacheUnavailable, domain.ErrorKind(err))
}

// TestRedisStore_RoundTrip exercises a live Redis when TEST_REDIS_URL is
// set; otherwise it is skipped.
func TestRedisStore_RoundTrip(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set, skipping Redis integration test")
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := NewRedisStore(&domain.CacheConfig{RedisURL: redisURL}, logger)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	key := "centrality:test:" + uuid.New().String()

	_, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, key, "payload", time.Minute))

	value, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "payload", value)

	require.NoError(t, store.Ping(ctx))
}
