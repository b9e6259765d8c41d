package pipeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-fraud-scoring-server/internal/cache"
	"github.com/medicare-fraud-scoring-server/internal/domain"
	"github.com/medicare-fraud-scoring-server/internal/encoding"
	"github.com/medicare-fraud-scoring-server/internal/graphfeat"
)

// fakeScorer is a deterministic in-process stand-in for the external
// scoring engine.
type fakeScorer struct {
	mu      sync.Mutex
	calls   int
	lastRow []float64
	label   string
	probs   [2]float64
	err     error
}

func (f *fakeScorer) Predict(_ context.Context, features *domain.FeatureVector) (string, [2]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastRow = features.Ordered()
	if f.err != nil {
		return "", [2]float64{}, f.err
	}
	return f.label, f.probs, nil
}

func (f *fakeScorer) FeatureImportance(context.Context) (map[string]float64, error) {
	return map[string]float64{domain.ColSubmittedCharge: 0.4}, nil
}

func (f *fakeScorer) Health(context.Context) error { return nil }

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestPredictor(t *testing.T, scorer domain.ScoringEngine, opts Options) *Predictor {
	t.Helper()

	procedureVocab, err := encoding.NewVocabulary("hcpcs", []string{"323", "99213", "99214"})
	require.NoError(t, err)
	providerTypeVocab, err := encoding.NewVocabulary("provider_type", []string{"45", "70"})
	require.NoError(t, err)

	centrality := graphfeat.NewService(cache.NewMemoryStore(64, time.Minute), time.Minute, quietLogger())

	return NewPredictor(procedureVocab, providerTypeVocab, centrality, scorer, quietLogger(), opts)
}

func scenarioClaim() *domain.ClaimRecord {
	return &domain.ClaimRecord{
		ProviderID:         "1124007489",
		ProcedureCode:      "323",
		ProviderType:       "45",
		Gender:             "M",
		DrugIndicator:      "N",
		PlaceOfService:     "F",
		AllowedAmount:      2.97,
		PaymentAmount:      2.97,
		StandardizedAmount: 2.94,
		SubmittedCharge:    7.0,
		BeneDayServices:    27,
		TotalBenes:         25,
		TotalServices:      27,
	}
}

func TestPredictor_Predict(t *testing.T) {
	scorer := &fakeScorer{label: domain.LabelNotFraud, probs: [2]float64{0.93, 0.07}}
	predictor := newTestPredictor(t, scorer, Options{})

	prediction, err := predictor.Predict(context.Background(), scenarioClaim())
	require.NoError(t, err)

	assert.Equal(t, domain.LabelNotFraud, prediction.Label)
	assert.Equal(t, [2]float64{0.93, 0.07}, prediction.Probabilities)
	assert.Equal(t, 0.07, prediction.FraudScore)
	assert.Equal(t, 0, prediction.Flags.VocabularyFallbacks)
	assert.False(t, prediction.Flags.CentralityCacheHit)
	assert.NotEmpty(t, prediction.ProcessingTime)

	// The scorer received a full schema-ordered row with the normalized
	// binaries in place.
	require.Len(t, scorer.lastRow, len(domain.FeatureColumns))
	assert.Equal(t, 2.97, scorer.lastRow[0]) // allowed amount leads the schema
	assert.Equal(t, 1.0, scorer.lastRow[7])  // gender M
	assert.Equal(t, 0.0, scorer.lastRow[8])  // drug indicator N
	assert.Equal(t, 1.0, scorer.lastRow[9])  // facility place of service
}

func TestPredictor_Predict_CacheHitOnSecondCall(t *testing.T) {
	scorer := &fakeScorer{label: domain.LabelFraud, probs: [2]float64{0.2, 0.8}}
	predictor := newTestPredictor(t, scorer, Options{})
	ctx := context.Background()

	first, err := predictor.Predict(ctx, scenarioClaim())
	require.NoError(t, err)
	assert.False(t, first.Flags.CentralityCacheHit)

	second, err := predictor.Predict(ctx, scenarioClaim())
	require.NoError(t, err)
	assert.True(t, second.Flags.CentralityCacheHit)
	assert.EqualValues(t, 1, predictor.CentralityStats().Hits)
}

func TestPredictor_Predict_UnseenVocabularyFallsBack(t *testing.T) {
	scorer := &fakeScorer{label: domain.LabelNotFraud, probs: [2]float64{0.9, 0.1}}
	predictor := newTestPredictor(t, scorer, Options{})

	claim := scenarioClaim()
	claim.ProcedureCode = "G9999"
	claim.ProviderType = "unknown"

	prediction, err := predictor.Predict(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, 2, prediction.Flags.VocabularyFallbacks)

	// Both encoded columns hold the first-label fallback code.
	assert.Equal(t, 0.0, scorer.lastRow[10])
	assert.Equal(t, 0.0, scorer.lastRow[11])
}

func TestPredictor_Predict_InvalidClaim(t *testing.T) {
	scorer := &fakeScorer{label: domain.LabelNotFraud, probs: [2]float64{1, 0}}
	predictor := newTestPredictor(t, scorer, Options{})

	claim := scenarioClaim()
	claim.ProviderID = "bad"

	_, err := predictor.Predict(context.Background(), claim)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindValidation, domain.ErrorKind(err))
	assert.Equal(t, 0, scorer.calls)
}

func TestPredictor_Predict_InvalidBinaryCategory(t *testing.T) {
	scorer := &fakeScorer{label: domain.LabelNotFraud, probs: [2]float64{1, 0}}
	predictor := newTestPredictor(t, scorer, Options{})

	claim := scenarioClaim()
	claim.Gender = "X"

	_, err := predictor.Predict(context.Background(), claim)
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindInvalidCategory, domain.ErrorKind(err))
	assert.Equal(t, 0, scorer.calls)
}

func TestPredictor_Predict_ScorerFailurePropagates(t *testing.T) {
	scorer := &fakeScorer{err: domain.NewScoringEngineError(502, "upstream timeout", nil)}
	predictor := newTestPredictor(t, scorer, Options{})

	_, err := predictor.Predict(context.Background(), scenarioClaim())
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindScoringEngine, domain.ErrorKind(err))
}

// failingHistory always errors on Save; the prediction must not care.
type failingHistory struct{}

func (failingHistory) Save(context.Context, *domain.PredictionEntry) error {
	return context.DeadlineExceeded
}
func (failingHistory) List(context.Context, int, int) ([]*domain.PredictionEntry, error) {
	return nil, nil
}
func (failingHistory) Count(context.Context) (int64, error) { return 0, nil }
func (failingHistory) Close() error                         { return nil }

func TestPredictor_Predict_HistoryFailureIsBestEffort(t *testing.T) {
	scorer := &fakeScorer{label: domain.LabelFraud, probs: [2]float64{0.1, 0.9}}
	predictor := newTestPredictor(t, scorer, Options{History: failingHistory{}})

	prediction, err := predictor.Predict(context.Background(), scenarioClaim())
	require.NoError(t, err)
	assert.Equal(t, domain.LabelFraud, prediction.Label)
}
