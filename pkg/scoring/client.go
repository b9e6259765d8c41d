// Package scoring is the HTTP client for the external trained-model
// serving boundary. The pipeline treats the engine as a pure function over
// the fixed feature schema; this client adds the resilience the network
// hop needs: rate limiting, retries, and a circuit breaker.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// Config represents configuration for the scoring engine client.
type Config struct {
	BaseURL    string        `json:"base_url"`
	Timeout    time.Duration `json:"timeout"`
	MaxRetries int           `json:"max_retries"`
	RateLimit  int           `json:"rate_limit"` // requests per second
}

// Client calls the model-serving HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	log        *logrus.Logger

	importanceMu sync.RWMutex
	importance   map[string]float64
}

// NewClient creates a scoring engine client.
func NewClient(config Config, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RateLimit == 0 {
		config.RateLimit = 50
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ScoringEngine",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: config.Timeout},
		rateLimit:  rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:    breaker,
		maxRetries: config.MaxRetries,
		log:        logger,
	}
}

// predictRequest is the wire shape of a scoring call: the schema columns
// in declared order alongside the row values.
type predictRequest struct {
	Columns []string  `json:"columns"`
	Values  []float64 `json:"values"`
}

// predictResponse is the engine's answer: the predicted class index and
// the per-class probability pair.
type predictResponse struct {
	Prediction    int       `json:"prediction"`
	Probabilities []float64 `json:"probabilities"`
}

// Predict scores an assembled feature vector. The vector is validated
// before leaving the process so schema drift is caught here, not by the
// remote engine.
func (c *Client) Predict(ctx context.Context, features *domain.FeatureVector) (string, [2]float64, error) {
	var probabilities [2]float64

	if err := features.Validate(); err != nil {
		return "", probabilities, err
	}

	request := predictRequest{
		Columns: domain.FeatureColumns,
		Values:  features.Ordered(),
	}
	body, err := json.Marshal(request)
	if err != nil {
		return "", probabilities, domain.NewScoringEngineError(0, "failed to encode scoring request", err)
	}

	data, err := c.doWithRetry(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return "", probabilities, err
	}

	var response predictResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return "", probabilities, domain.NewScoringEngineError(0, "failed to decode scoring response", err)
	}
	if len(response.Probabilities) != 2 {
		return "", probabilities, domain.NewScoringEngineError(0,
			fmt.Sprintf("expected 2 class probabilities, got %d", len(response.Probabilities)), nil)
	}

	probabilities[0] = response.Probabilities[0]
	probabilities[1] = response.Probabilities[1]

	label := domain.LabelNotFraud
	if response.Prediction == 1 {
		label = domain.LabelFraud
	}
	return label, probabilities, nil
}

// FeatureImportance returns the model's static per-feature weights,
// fetched once and cached for the life of the client.
func (c *Client) FeatureImportance(ctx context.Context) (map[string]float64, error) {
	c.importanceMu.RLock()
	cached := c.importance
	c.importanceMu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	data, err := c.doWithRetry(ctx, http.MethodGet, c.baseURL+"/importance", nil)
	if err != nil {
		return nil, err
	}

	importance := make(map[string]float64)
	if err := json.Unmarshal(data, &importance); err != nil {
		return nil, domain.NewScoringEngineError(0, "failed to decode feature importance response", err)
	}

	c.importanceMu.Lock()
	c.importance = importance
	c.importanceMu.Unlock()
	return importance, nil
}

// Health reports whether the engine is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return domain.NewScoringEngineError(0, "failed to build health request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewScoringEngineError(0, "scoring engine unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.NewScoringEngineError(resp.StatusCode, "scoring engine unhealthy", nil)
	}
	return nil
}

// doWithRetry executes one engine call through the rate limiter and
// circuit breaker, retrying transport errors and 5xx responses with a
// short backoff. 4xx responses fail immediately.
func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, domain.NewScoringEngineError(0, "scoring call cancelled", ctx.Err())
			case <-time.After(backoff):
			}
		}

		if err := c.rateLimit.Wait(ctx); err != nil {
			return nil, domain.NewScoringEngineError(0, "scoring call cancelled", err)
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doOnce(ctx, method, url, body)
		})
		if err == nil {
			return result.([]byte), nil
		}
		lastErr = err

		var engineErr *domain.ScoringEngineError
		if errors.As(err, &engineErr) && engineErr.StatusCode >= 400 && engineErr.StatusCode < 500 {
			return nil, err
		}
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domain.NewScoringEngineError(0, "scoring engine circuit open", err)
		}

		c.log.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"url":     url,
		}).Warn("Scoring engine call failed, retrying")
	}

	if _, ok := lastErr.(*domain.ScoringEngineError); ok {
		return nil, lastErr
	}
	return nil, domain.NewScoringEngineError(0, "scoring engine call failed after retries", lastErr)
}

// doOnce performs a single HTTP round trip.
func (c *Client) doOnce(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, domain.NewScoringEngineError(0, "failed to build scoring request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewScoringEngineError(0, "scoring engine request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewScoringEngineError(resp.StatusCode, "failed to read scoring response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewScoringEngineError(resp.StatusCode, string(data), nil)
	}
	return data, nil
}
