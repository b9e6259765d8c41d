package encoding

import (
	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// Binary field names accepted by the normalizer.
const (
	FieldGender         = "gender"
	FieldDrugIndicator  = "drug_indicator"
	FieldPlaceOfService = "place_of_service"
)

// binaryTables maps each binary field to its two-symbol domain. These are
// safety-relevant flags: there is deliberately no fallback entry.
var binaryTables = map[string]map[string]int{
	FieldGender:         {"M": 1, "F": 0},
	FieldDrugIndicator:  {"Y": 1, "N": 0},
	FieldPlaceOfService: {"F": 1, "O": 0},
}

// NormalizeBinary maps a small fixed-enum textual field to 0 or 1. Any
// value outside the field's two-symbol domain is an InvalidCategoryError;
// unknown field names are rejected the same way.
func NormalizeBinary(field, value string) (int, error) {
	table, ok := binaryTables[field]
	if !ok {
		return 0, domain.NewInvalidCategoryError(field, value)
	}
	code, ok := table[value]
	if !ok {
		return 0, domain.NewInvalidCategoryError(field, value)
	}
	return code, nil
}

// BinaryFields holds the normalized values of a claim's three binary flags.
type BinaryFields struct {
	Gender         int
	DrugIndicator  int
	PlaceOfService int
}

// NormalizeClaim normalizes all three binary fields of a claim, failing on
// the first out-of-domain value.
func NormalizeClaim(claim *domain.ClaimRecord) (*BinaryFields, error) {
	gender, err := NormalizeBinary(FieldGender, claim.Gender)
	if err != nil {
		return nil, err
	}
	drug, err := NormalizeBinary(FieldDrugIndicator, claim.DrugIndicator)
	if err != nil {
		return nil, err
	}
	place, err := NormalizeBinary(FieldPlaceOfService, claim.PlaceOfService)
	if err != nil {
		return nil, err
	}
	return &BinaryFields{Gender: gender, DrugIndicator: drug, PlaceOfService: place}, nil
}
