package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Batch failure rows and single-claim
// error responses carry one of these machine-readable codes.
const (
	ErrKindValidation       = "VALIDATION_ERROR"
	ErrKindInvalidCategory  = "INVALID_CATEGORY"
	ErrKindSchemaMismatch   = "SCHEMA_MISMATCH"
	ErrKindCacheUnavailable = "CACHE_UNAVAILABLE"
	ErrKindScoringEngine    = "SCORING_ENGINE_ERROR"
	ErrKindInternal         = "INTERNAL_ERROR"
)

// ValidationError reports a claim field that violates a structural
// invariant (negative amount, malformed NPI).
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// InvalidCategoryError reports a binary-enum field holding a value outside
// its two-symbol domain. Unlike vocabulary lookups there is no fallback:
// these flags must not silently default.
type InvalidCategoryError struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("invalid category value '%s' for field '%s'", e.Value, e.Field)
}

// NewInvalidCategoryError creates a new InvalidCategoryError.
func NewInvalidCategoryError(field, value string) *InvalidCategoryError {
	return &InvalidCategoryError{Field: field, Value: value}
}

// SchemaMismatchError reports a feature row that does not match the fixed
// schema: a missing, extra, or mistyped column. Fatal for the row.
type SchemaMismatchError struct {
	Column string `json:"column"`
	Reason string `json:"reason"`
}

func (e *SchemaMismatchError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("feature schema mismatch: %s", e.Reason)
	}
	return fmt.Sprintf("feature schema mismatch on column '%s': %s", e.Column, e.Reason)
}

// NewSchemaMismatchError creates a new SchemaMismatchError.
func NewSchemaMismatchError(column, reason string) *SchemaMismatchError {
	return &SchemaMismatchError{Column: column, Reason: reason}
}

// CacheUnavailableError reports an unreachable cache store. The centrality
// service recovers from it by recomputing; it never fails a claim.
type CacheUnavailableError struct {
	Op  string
	Err error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("cache unavailable during %s: %v", e.Op, e.Err)
}

func (e *CacheUnavailableError) Unwrap() error {
	return e.Err
}

// NewCacheUnavailableError creates a new CacheUnavailableError.
func NewCacheUnavailableError(op string, err error) *CacheUnavailableError {
	return &CacheUnavailableError{Op: op, Err: err}
}

// ScoringEngineError reports a failed call to the external scoring engine.
// Fatal for the row, never for the batch.
type ScoringEngineError struct {
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ScoringEngineError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scoring engine error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("scoring engine error: %s", e.Message)
}

func (e *ScoringEngineError) Unwrap() error {
	return e.Err
}

// NewScoringEngineError creates a new ScoringEngineError.
func NewScoringEngineError(statusCode int, message string, err error) *ScoringEngineError {
	return &ScoringEngineError{StatusCode: statusCode, Message: message, Err: err}
}

// ErrorKind maps an error to its machine-readable kind for failure rows
// and API error bodies.
func ErrorKind(err error) string {
	var (
		validationErr *ValidationError
		categoryErr   *InvalidCategoryError
		schemaErr     *SchemaMismatchError
		cacheErr      *CacheUnavailableError
		scoringErr    *ScoringEngineError
	)
	switch {
	case errors.As(err, &validationErr):
		return ErrKindValidation
	case errors.As(err, &categoryErr):
		return ErrKindInvalidCategory
	case errors.As(err, &schemaErr):
		return ErrKindSchemaMismatch
	case errors.As(err, &cacheErr):
		return ErrKindCacheUnavailable
	case errors.As(err, &scoringErr):
		return ErrKindScoringEngine
	default:
		return ErrKindInternal
	}
}
