package domain

import (
	"fmt"
	"math"
	"time"
)

// Centrality metric names. The "HCPCS" and "Provider Type" prefixes come
// from the two network projections the model was trained on; closeness and
// PageRank are duplicated under both namespaces by the feature schema.
const (
	MetricDegreeCentrality      = "HCPCS_Degree_Centrality"
	MetricClosenessCentrality   = "HCPCS_Closeness_Centrality"
	MetricPageRank              = "HCPCS_PageRank"
	MetricProviderTypeCloseness = "Provider Type_Closeness_Centrality"
	MetricProviderTypePageRank  = "Provider Type_PageRank"
)

// CentralityMetricNames lists the five metrics every CentralityRecord must
// carry, in feature-schema order.
var CentralityMetricNames = []string{
	MetricDegreeCentrality,
	MetricClosenessCentrality,
	MetricPageRank,
	MetricProviderTypeCloseness,
	MetricProviderTypePageRank,
}

// CentralityRecord holds graph-topology scores for one provider. Records
// are cached as UTF-8 JSON with a TTL and recomputed on expiry.
type CentralityRecord struct {
	ProviderID string             `json:"provider_id"`
	Measures   map[string]float64 `json:"measures"`
	ComputedAt time.Time          `json:"computed_at"`
}

// Complete reports whether every schema-required metric is present.
func (r *CentralityRecord) Complete() bool {
	for _, name := range CentralityMetricNames {
		if _, ok := r.Measures[name]; !ok {
			return false
		}
	}
	return true
}

// Feature column names. Encoded categorical columns keep the _encoded
// suffix the training pipeline used.
const (
	ColAllowedAmount       = "Avg_Mdcr_Alowd_Amt"
	ColPaymentAmount       = "Avg_Mdcr_Pymt_Amt"
	ColStandardizedAmount  = "Avg_Mdcr_Stdzd_Amt"
	ColSubmittedCharge     = "Avg_Sbmtd_Chrg"
	ColBeneDayServices     = "Tot_Bene_Day_Srvcs"
	ColTotalBenes          = "Tot_Benes"
	ColTotalServices       = "Tot_Srvcs"
	ColGender              = "Rndrng_Prvdr_Gndr"
	ColDrugIndicator       = "HCPCS_Drug_Ind"
	ColPlaceOfService      = "Place_Of_Srvc"
	ColProcedureEncoded    = "HCPCS_Cd_encoded"
	ColProviderTypeEncoded = "Rndrng_Prvdr_Type_encoded"
)

// FeatureColumns is the shared schema constant: the exact column set and
// order the scoring engine was trained on. Currency fields, count fields,
// binary flags, encoded category codes, then the five centrality scores.
var FeatureColumns = []string{
	ColAllowedAmount,
	ColPaymentAmount,
	ColStandardizedAmount,
	ColSubmittedCharge,
	ColBeneDayServices,
	ColTotalBenes,
	ColTotalServices,
	ColGender,
	ColDrugIndicator,
	ColPlaceOfService,
	ColProcedureEncoded,
	ColProviderTypeEncoded,
	MetricDegreeCentrality,
	MetricClosenessCentrality,
	MetricPageRank,
	MetricProviderTypeCloseness,
	MetricProviderTypePageRank,
}

// integerColumns are the schema columns whose values must be exact
// fixed-width integers (int32) rather than float32 floats.
var integerColumns = map[string]bool{
	ColGender:              true,
	ColDrugIndicator:       true,
	ColPlaceOfService:      true,
	ColProcedureEncoded:    true,
	ColProviderTypeEncoded: true,
}

// FeatureVector is the fixed-schema row handed to the scoring engine.
// Values are keyed by schema column; Ordered() flattens them into the
// schema order.
type FeatureVector struct {
	Values map[string]float64 `json:"values"`
}

// NewFeatureVector allocates an empty vector sized for the schema.
func NewFeatureVector() *FeatureVector {
	return &FeatureVector{Values: make(map[string]float64, len(FeatureColumns))}
}

// Set records a column value. Unknown columns are a schema mismatch.
func (v *FeatureVector) Set(column string, value float64) error {
	if !isSchemaColumn(column) {
		return NewSchemaMismatchError(column, "column is not part of the feature schema")
	}
	v.Values[column] = value
	return nil
}

// Validate verifies the vector matches the schema exactly: no missing or
// extra columns, every float representable as float32 and finite, every
// integer-coded column an exact int32.
func (v *FeatureVector) Validate() error {
	if len(v.Values) != len(FeatureColumns) {
		return NewSchemaMismatchError("", fmt.Sprintf("expected %d columns, got %d", len(FeatureColumns), len(v.Values)))
	}
	for _, col := range FeatureColumns {
		val, ok := v.Values[col]
		if !ok {
			return NewSchemaMismatchError(col, "required column is missing")
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return NewSchemaMismatchError(col, "value is not finite")
		}
		if integerColumns[col] {
			if val != math.Trunc(val) || val > math.MaxInt32 || val < math.MinInt32 {
				return NewSchemaMismatchError(col, fmt.Sprintf("value %v is not representable as int32", val))
			}
		} else if math.Abs(val) > math.MaxFloat32 {
			return NewSchemaMismatchError(col, fmt.Sprintf("value %v overflows float32", val))
		}
	}
	return nil
}

// Ordered returns the values flattened into schema column order. The
// vector must have been validated first; missing columns read as zero.
func (v *FeatureVector) Ordered() []float64 {
	out := make([]float64, len(FeatureColumns))
	for i, col := range FeatureColumns {
		out[i] = v.Values[col]
	}
	return out
}

func isSchemaColumn(column string) bool {
	for _, col := range FeatureColumns {
		if col == column {
			return true
		}
	}
	return false
}
