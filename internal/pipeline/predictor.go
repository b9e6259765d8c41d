package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/medicare-fraud-scoring-server/internal/domain"
	"github.com/medicare-fraud-scoring-server/internal/encoding"
	"github.com/medicare-fraud-scoring-server/internal/graphfeat"
)

// Predictor runs the full single-claim scoring workflow: validation,
// categorical encoding, binary normalization, centrality lookup, feature
// assembly, and the external scoring call. Vocabularies and the schema are
// read-only after construction; a Predictor is safe for concurrent use.
type Predictor struct {
	procedureEncoder    *encoding.CategoryEncoder
	providerTypeEncoder *encoding.CategoryEncoder
	centrality          *graphfeat.Service
	scorer              domain.ScoringEngine
	history             domain.PredictionStore // optional
	log                 *logrus.Logger

	batchMaxConcurrency int
}

// Options configures optional Predictor collaborators.
type Options struct {
	// History, when non-nil, receives a best-effort record of every scored
	// claim.
	History domain.PredictionStore
	// BatchMaxConcurrency bounds concurrent rows within one batch.
	BatchMaxConcurrency int
}

// NewPredictor creates a claim scoring pipeline.
func NewPredictor(
	procedureVocab, providerTypeVocab *encoding.Vocabulary,
	centrality *graphfeat.Service,
	scorer domain.ScoringEngine,
	logger *logrus.Logger,
	opts Options,
) *Predictor {
	concurrency := opts.BatchMaxConcurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Predictor{
		procedureEncoder:    encoding.NewCategoryEncoder(procedureVocab, logger),
		providerTypeEncoder: encoding.NewCategoryEncoder(providerTypeVocab, logger),
		centrality:          centrality,
		scorer:              scorer,
		history:             opts.History,
		log:                 logger,
		batchMaxConcurrency: concurrency,
	}
}

// Predict scores one claim.
func (p *Predictor) Predict(ctx context.Context, claim *domain.ClaimRecord) (*domain.Prediction, error) {
	startTime := time.Now()

	if err := claim.Validate(); err != nil {
		return nil, err
	}

	categories := p.encodeCategories(claim)

	binaries, err := encoding.NormalizeClaim(claim)
	if err != nil {
		return nil, err
	}

	centrality, cacheHit, err := p.centrality.Measures(ctx, claim)
	if err != nil {
		return nil, fmt.Errorf("computing centrality measures: %w", err)
	}

	features, err := AssembleFeatures(claim, categories, binaries, centrality)
	if err != nil {
		return nil, err
	}

	label, probabilities, err := p.scorer.Predict(ctx, features)
	if err != nil {
		return nil, err
	}

	prediction := &domain.Prediction{
		Label:         label,
		Probabilities: probabilities,
		FraudScore:    probabilities[1],
		Flags: domain.Flags{
			VocabularyFallbacks: categories.Fallbacks,
			CentralityCacheHit:  cacheHit,
		},
		ProcessingTime: time.Since(startTime).String(),
	}

	p.recordHistory(ctx, claim, prediction)

	p.log.WithFields(logrus.Fields{
		"provider_id":    claim.ProviderID,
		"procedure_code": claim.ProcedureCode,
		"label":          prediction.Label,
		"fraud_score":    prediction.FraudScore,
		"cache_hit":      cacheHit,
		"fallbacks":      categories.Fallbacks,
	}).Info("Claim scored")

	return prediction, nil
}

// encodeCategories encodes the two vocabulary-backed fields. Encoding
// never fails; unseen labels fall back deterministically and are counted.
func (p *Predictor) encodeCategories(claim *domain.ClaimRecord) *EncodedCategories {
	procedureCode, procedureFellBack := p.procedureEncoder.Encode(claim.ProcedureCode)
	providerTypeCode, providerTypeFellBack := p.providerTypeEncoder.Encode(claim.ProviderType)

	fallbacks := 0
	if procedureFellBack {
		fallbacks++
	}
	if providerTypeFellBack {
		fallbacks++
	}

	return &EncodedCategories{
		ProcedureCode:    procedureCode,
		ProviderTypeCode: providerTypeCode,
		Fallbacks:        fallbacks,
	}
}

// recordHistory persists the scored claim when a history store is wired.
// History is operational telemetry; failures never affect the prediction.
func (p *Predictor) recordHistory(ctx context.Context, claim *domain.ClaimRecord, prediction *domain.Prediction) {
	if p.history == nil {
		return
	}
	entry := &domain.PredictionEntry{
		ProviderID:    claim.ProviderID,
		ProcedureCode: claim.ProcedureCode,
		Label:         prediction.Label,
		FraudScore:    prediction.FraudScore,
		Fallbacks:     prediction.Flags.VocabularyFallbacks,
		CreatedAt:     time.Now().UTC(),
	}
	if err := p.history.Save(ctx, entry); err != nil {
		p.log.WithError(err).Warn("Failed to record prediction history entry")
	}
}

// CentralityStats exposes the centrality cache counters for health output.
func (p *Predictor) CentralityStats() graphfeat.Stats {
	return p.centrality.CacheStats()
}
