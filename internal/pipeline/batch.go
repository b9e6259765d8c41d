package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// PredictBatch scores a collection of claims, isolating per-row failures:
// a malformed record is captured with its provider and procedure
// identifiers and never aborts sibling rows. Rows run concurrently under a
// semaphore; both result lists preserve input order. Cancelling the
// context stops unstarted rows, which are reported as failures.
func (p *Predictor) PredictBatch(ctx context.Context, claims []*domain.ClaimRecord) *domain.BatchResult {
	startTime := time.Now()
	batchID := uuid.New().String()

	type rowOutcome struct {
		prediction *domain.Prediction
		err        error
	}
	outcomes := make([]rowOutcome, len(claims))

	semaphore := make(chan struct{}, p.batchMaxConcurrency)
	var wg sync.WaitGroup

	for i, claim := range claims {
		if err := ctx.Err(); err != nil {
			outcomes[i] = rowOutcome{err: err}
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(i int, claim *domain.ClaimRecord) {
			defer wg.Done()
			defer func() { <-semaphore }()

			prediction, err := p.Predict(ctx, claim)
			outcomes[i] = rowOutcome{prediction: prediction, err: err}
		}(i, claim)
	}
	wg.Wait()

	result := &domain.BatchResult{
		BatchID:   batchID,
		Successes: make([]domain.RowSuccess, 0, len(claims)),
		Failures:  make([]domain.RowFailure, 0),
	}
	for i, claim := range claims {
		outcome := outcomes[i]
		if outcome.err != nil {
			result.Failures = append(result.Failures, domain.RowFailure{
				Index:         i,
				ProviderID:    claim.ProviderID,
				ProcedureCode: claim.ProcedureCode,
				ErrorKind:     domain.ErrorKind(outcome.err),
				ErrorMessage:  outcome.err.Error(),
			})
			continue
		}
		result.Successes = append(result.Successes, domain.RowSuccess{
			Index:         i,
			ProviderID:    claim.ProviderID,
			ProcedureCode: claim.ProcedureCode,
			Prediction:    outcome.prediction,
		})
	}

	result.Summary = domain.BatchSummary{
		Total:     len(claims),
		Succeeded: len(result.Successes),
		Failed:    len(result.Failures),
		Elapsed:   time.Since(startTime),
	}

	p.log.WithFields(logrus.Fields{
		"batch_id":  batchID,
		"total":     result.Summary.Total,
		"succeeded": result.Summary.Succeeded,
		"failed":    result.Summary.Failed,
		"elapsed":   result.Summary.Elapsed,
	}).Info("Batch scoring completed")

	return result
}
