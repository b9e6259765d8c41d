// Package pipeline turns raw claims into scored predictions: feature
// assembly against the fixed schema, the single-claim workflow, and the
// batch coordinator.
package pipeline

import (
	"github.com/medicare-fraud-scoring-server/internal/domain"
	"github.com/medicare-fraud-scoring-server/internal/encoding"
)

// EncodedCategories holds the integer codes of a claim's two vocabulary
// fields, plus how many were fallback substitutions.
type EncodedCategories struct {
	ProcedureCode    int
	ProviderTypeCode int
	Fallbacks        int
}

// AssembleFeatures merges claim numerics, normalized binaries, encoded
// category codes, and centrality scores into the schema-ordered feature
// vector. A centrality record missing a schema metric, or any value
// outside the scorer's fixed-width numeric types, is a SchemaMismatchError
// rather than a silent zero-fill or coercion.
func AssembleFeatures(
	claim *domain.ClaimRecord,
	categories *EncodedCategories,
	binaries *encoding.BinaryFields,
	centrality *domain.CentralityRecord,
) (*domain.FeatureVector, error) {
	vector := domain.NewFeatureVector()

	columns := map[string]float64{
		domain.ColAllowedAmount:       claim.AllowedAmount,
		domain.ColPaymentAmount:       claim.PaymentAmount,
		domain.ColStandardizedAmount:  claim.StandardizedAmount,
		domain.ColSubmittedCharge:     claim.SubmittedCharge,
		domain.ColBeneDayServices:     float64(claim.BeneDayServices),
		domain.ColTotalBenes:          float64(claim.TotalBenes),
		domain.ColTotalServices:       float64(claim.TotalServices),
		domain.ColGender:              float64(binaries.Gender),
		domain.ColDrugIndicator:       float64(binaries.DrugIndicator),
		domain.ColPlaceOfService:      float64(binaries.PlaceOfService),
		domain.ColProcedureEncoded:    float64(categories.ProcedureCode),
		domain.ColProviderTypeEncoded: float64(categories.ProviderTypeCode),
	}
	for col, value := range columns {
		if err := vector.Set(col, value); err != nil {
			return nil, err
		}
	}

	for _, metric := range domain.CentralityMetricNames {
		value, ok := centrality.Measures[metric]
		if !ok {
			return nil, domain.NewSchemaMismatchError(metric, "centrality record is missing a required metric")
		}
		if err := vector.Set(metric, value); err != nil {
			return nil, err
		}
	}

	if err := vector.Validate(); err != nil {
		return nil, err
	}
	return vector, nil
}
