package domain

import (
	"context"
	"time"
)

// CacheStore is the key-value collaborator behind the centrality cache.
// Values are UTF-8 text; Set with a TTL is a single atomic put and expiry
// is silent. Implementations must treat a missing key as (_, false, nil),
// reserving the error return for store unavailability.
type CacheStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// ScoringEngine is the external pre-trained classifier boundary. The
// pipeline treats Predict as a pure function over the fixed feature schema.
type ScoringEngine interface {
	// Predict returns the class label and the per-class probability pair
	// [P(not_fraud), P(fraud)] for an assembled feature vector.
	Predict(ctx context.Context, features *FeatureVector) (label string, probabilities [2]float64, err error)

	// FeatureImportance returns the model's static per-feature weights.
	FeatureImportance(ctx context.Context) (map[string]float64, error)

	// Health reports whether the engine is reachable.
	Health(ctx context.Context) error
}

// PredictionStore records scored claims for operational inspection. Writes
// are best-effort from the pipeline's point of view.
type PredictionStore interface {
	Save(ctx context.Context, entry *PredictionEntry) error
	List(ctx context.Context, limit, offset int) ([]*PredictionEntry, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// PredictionEntry is one row of the prediction history log.
type PredictionEntry struct {
	ID            int64     `json:"id,omitempty"`
	ProviderID    string    `json:"provider_id"`
	ProcedureCode string    `json:"procedure_code"`
	Label         string    `json:"label"`
	FraudScore    float64   `json:"fraud_score"`
	Fallbacks     int       `json:"fallbacks"`
	CreatedAt     time.Time `json:"created_at"`
}
