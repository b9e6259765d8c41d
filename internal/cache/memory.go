package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore implements domain.CacheStore with an in-process expirable
// LRU. The TTL is fixed at construction time; the per-call TTL on Set is
// ignored, which matches how the centrality cache uses a single fixed TTL.
// Used when no Redis URL is configured, and in tests.
type MemoryStore struct {
	lru *expirable.LRU[string, string]
	ttl time.Duration
}

// NewMemoryStore creates an in-process store holding up to size entries,
// each expiring ttl after its write.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 4096
	}
	return &MemoryStore{
		lru: expirable.NewLRU[string, string](size, nil, ttl),
		ttl: ttl,
	}
}

// Get retrieves a value; expired or evicted keys read as missing.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := s.lru.Get(key)
	return value, ok, nil
}

// Set writes a value. The ttl argument is accepted for interface
// compatibility; entries expire on the store's construction-time TTL.
func (s *MemoryStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.lru.Add(key, value)
	return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}
