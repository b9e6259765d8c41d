package graphfeat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// cacheKeyPrefix namespaces centrality entries in the shared store.
const cacheKeyPrefix = "centrality:"

// Stats tracks centrality cache performance counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Recomputes  int64 `json:"recomputes"`
	StoreErrors int64 `json:"store_errors"`
}

// Service produces CentralityRecords for providers, serving from a
// time-bounded cache when possible and recomputing from the claim's graph
// fragment otherwise. The cache is an optimization, not a correctness
// dependency: an unreachable store degrades to recomputation on every
// request. Concurrent writers for the same provider race under
// last-write-wins, which is acceptable for idempotent approximations.
type Service struct {
	store domain.CacheStore
	ttl   time.Duration
	log   *logrus.Logger

	statsMu sync.Mutex
	stats   Stats
}

// NewService creates a centrality service over a cache store. Entries are
// written with the given TTL and silently disappear on expiry.
func NewService(store domain.CacheStore, ttl time.Duration, logger *logrus.Logger) *Service {
	return &Service{store: store, ttl: ttl, log: logger}
}

// Measures returns the topology scores for the claim's provider. The
// second return reports whether the record came from the cache.
func (s *Service) Measures(ctx context.Context, claim *domain.ClaimRecord) (*domain.CentralityRecord, bool, error) {
	key := cacheKeyPrefix + claim.ProviderID

	if record := s.fromCache(ctx, key); record != nil {
		s.count(func(st *Stats) { st.Hits++ })
		return record, true, nil
	}
	s.count(func(st *Stats) { st.Misses++ })

	record, err := s.recompute(claim)
	if err != nil {
		return nil, false, err
	}

	s.writeBack(ctx, key, record)
	return record, false, nil
}

// fromCache attempts a cache read. Store errors and undecodable or
// incomplete payloads are treated as misses; the store error path is the
// recovered CACHE_UNAVAILABLE case.
func (s *Service) fromCache(ctx context.Context, key string) *domain.CentralityRecord {
	value, found, err := s.store.Get(ctx, key)
	if err != nil {
		s.count(func(st *Stats) { st.StoreErrors++ })
		s.log.WithError(err).WithField("key", key).Warn("Cache store unreachable, recomputing centrality")
		return nil
	}
	if !found {
		return nil
	}

	record := &domain.CentralityRecord{}
	if err := json.Unmarshal([]byte(value), record); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Discarding undecodable cached centrality record")
		return nil
	}
	if !record.Complete() {
		s.log.WithField("key", key).Warn("Discarding cached centrality record with missing metrics")
		return nil
	}
	return record
}

// recompute builds the single-edge fragment from the current claim and
// runs the centrality algorithms for the provider node. Closeness and
// PageRank are duplicated under the provider-type namespace, as fixed by
// the feature schema.
func (s *Service) recompute(claim *domain.ClaimRecord) (*domain.CentralityRecord, error) {
	s.count(func(st *Stats) { st.Recomputes++ })

	fragment := FragmentFromClaim(claim)
	degree, closeness, pagerank, err := fragment.Centrality(claim.ProviderID)
	if err != nil {
		return nil, err
	}

	return &domain.CentralityRecord{
		ProviderID: claim.ProviderID,
		Measures: map[string]float64{
			domain.MetricDegreeCentrality:      degree,
			domain.MetricClosenessCentrality:   closeness,
			domain.MetricPageRank:              pagerank,
			domain.MetricProviderTypeCloseness: closeness,
			domain.MetricProviderTypePageRank:  pagerank,
		},
		ComputedAt: time.Now().UTC(),
	}, nil
}

// writeBack stores a freshly computed record. Write failures only degrade
// cache effectiveness, so they are logged and dropped.
func (s *Service) writeBack(ctx context.Context, key string, record *domain.CentralityRecord) {
	payload, err := json.Marshal(record)
	if err != nil {
		s.log.WithError(err).Warn("Failed to serialize centrality record for caching")
		return
	}
	if err := s.store.Set(ctx, key, string(payload), s.ttl); err != nil {
		s.count(func(st *Stats) { st.StoreErrors++ })
		s.log.WithError(err).WithField("key", key).Warn("Failed to write centrality record to cache")
	}
}

// CacheStats returns a snapshot of the cache counters.
func (s *Service) CacheStats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Service) count(update func(*Stats)) {
	s.statsMu.Lock()
	update(&s.stats)
	s.statsMu.Unlock()
}
