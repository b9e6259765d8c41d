package domain

import "time"

// Class labels returned by the scoring engine boundary.
const (
	LabelFraud    = "fraud"
	LabelNotFraud = "not_fraud"
)

// Prediction is the outcome of scoring one claim.
type Prediction struct {
	Label string `json:"label"`
	// Probabilities holds the per-class pair [P(not_fraud), P(fraud)].
	Probabilities  [2]float64 `json:"probabilities"`
	FraudScore     float64    `json:"fraud_score"`
	Flags          Flags      `json:"flags"`
	ProcessingTime string     `json:"processing_time"`
}

// Flags carries diagnostic signals that are observable but are not errors.
type Flags struct {
	// VocabularyFallbacks counts categorical fields that were absent from
	// the training vocabulary and substituted with the fallback label.
	VocabularyFallbacks int `json:"vocabulary_fallbacks"`
	// CentralityCacheHit reports whether the topology scores came from the
	// cache rather than a fresh computation.
	CentralityCacheHit bool `json:"centrality_cache_hit"`
}

// RowSuccess is one scored row of a batch, tagged with its input position.
type RowSuccess struct {
	Index         int         `json:"index"`
	ProviderID    string      `json:"provider_id"`
	ProcedureCode string      `json:"procedure_code"`
	Prediction    *Prediction `json:"prediction"`
}

// RowFailure is one failed row of a batch. The error is structured data,
// attributable to exactly this row.
type RowFailure struct {
	Index         int    `json:"index"`
	ProviderID    string `json:"provider_id"`
	ProcedureCode string `json:"procedure_code"`
	ErrorKind     string `json:"error_kind"`
	ErrorMessage  string `json:"error_message"`
}

// BatchResult partitions a batch by outcome. Each input row lands in
// exactly one of the two lists; both lists preserve input order.
type BatchResult struct {
	BatchID   string       `json:"batch_id"`
	Successes []RowSuccess `json:"successes"`
	Failures  []RowFailure `json:"failures"`
	Summary   BatchSummary `json:"summary"`
}

// BatchSummary is the per-batch outcome count always included in responses.
type BatchSummary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}
