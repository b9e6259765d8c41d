package domain

import "fmt"

// ClaimRecord is a single billing claim submitted for scoring. It is
// immutable once constructed; the pipeline never writes back into it.
type ClaimRecord struct {
	ProviderID         string  `json:"provider_id"`
	ProcedureCode      string  `json:"procedure_code"`
	ProviderType       string  `json:"provider_type"`
	Gender             string  `json:"gender"`
	DrugIndicator      string  `json:"drug_indicator"`
	PlaceOfService     string  `json:"place_of_service"`
	AllowedAmount      float64 `json:"allowed_amt"`
	PaymentAmount      float64 `json:"payment_amt"`
	StandardizedAmount float64 `json:"standardized_amt"`
	SubmittedCharge    float64 `json:"submitted_charge"`
	BeneDayServices    int64   `json:"bene_day_services"`
	TotalBenes         int64   `json:"total_benes"`
	TotalServices      int64   `json:"total_services"`
}

// Validate checks the structural invariants of a claim: a 10-digit numeric
// provider identifier, a non-empty procedure code, and non-negative amount
// and count fields. Categorical values are not checked here; the encoder
// and normalizer own those rules.
func (c *ClaimRecord) Validate() error {
	if err := validateNPI(c.ProviderID); err != nil {
		return err
	}
	if c.ProcedureCode == "" {
		return NewValidationError("procedure_code", "procedure code is required", c.ProcedureCode)
	}

	amounts := map[string]float64{
		"allowed_amt":      c.AllowedAmount,
		"payment_amt":      c.PaymentAmount,
		"standardized_amt": c.StandardizedAmount,
		"submitted_charge": c.SubmittedCharge,
	}
	for field, v := range amounts {
		if v < 0 {
			return NewValidationError(field, "amount must be non-negative", v)
		}
	}

	counts := map[string]int64{
		"bene_day_services": c.BeneDayServices,
		"total_benes":       c.TotalBenes,
		"total_services":    c.TotalServices,
	}
	for field, v := range counts {
		if v < 0 {
			return NewValidationError(field, "count must be non-negative", v)
		}
	}

	return nil
}

// validateNPI enforces the fixed-format numeric-string provider identifier.
func validateNPI(npi string) error {
	if len(npi) != 10 {
		return NewValidationError("provider_id", fmt.Sprintf("NPI must be 10 digits, got %d characters", len(npi)), npi)
	}
	for _, r := range npi {
		if r < '0' || r > '9' {
			return NewValidationError("provider_id", "NPI must contain only digits", npi)
		}
	}
	return nil
}
