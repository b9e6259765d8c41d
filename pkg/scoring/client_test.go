package scoring

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fullVector(t *testing.T) *domain.FeatureVector {
	t.Helper()
	vector := domain.NewFeatureVector()
	for _, col := range domain.FeatureColumns {
		require.NoError(t, vector.Set(col, 1))
	}
	return vector
}

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
		RateLimit:  1000,
	}, testLogger())
}

func TestClient_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var request predictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, domain.FeatureColumns, request.Columns)
		assert.Len(t, request.Values, len(domain.FeatureColumns))

		json.NewEncoder(w).Encode(predictResponse{
			Prediction:    1,
			Probabilities: []float64{0.19, 0.81},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)

	label, probabilities, err := client.Predict(context.Background(), fullVector(t))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelFraud, label)
	assert.Equal(t, [2]float64{0.19, 0.81}, probabilities)
}

func TestClient_Predict_NotFraudLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(predictResponse{
			Prediction:    0,
			Probabilities: []float64{0.93, 0.07},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)

	label, probabilities, err := client.Predict(context.Background(), fullVector(t))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelNotFraud, label)
	assert.Equal(t, 0.07, probabilities[1])
}

func TestClient_Predict_InvalidVectorNeverLeavesProcess(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)

	_, _, err := client.Predict(context.Background(), domain.NewFeatureVector())
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindSchemaMismatch, domain.ErrorKind(err))
	assert.False(t, called.Load())
}

func TestClient_Predict_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(predictResponse{
			Prediction:    0,
			Probabilities: []float64{0.9, 0.1},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	label, _, err := client.Predict(context.Background(), fullVector(t))
	require.NoError(t, err)
	assert.Equal(t, domain.LabelNotFraud, label)
	assert.EqualValues(t, 2, calls.Load())
}

func TestClient_Predict_ClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad feature row"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)

	_, _, err := client.Predict(context.Background(), fullVector(t))
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindScoringEngine, domain.ErrorKind(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_Predict_MalformedProbabilities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(predictResponse{
			Prediction:    0,
			Probabilities: []float64{1.0},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)

	_, _, err := client.Predict(context.Background(), fullVector(t))
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindScoringEngine, domain.ErrorKind(err))
}

func TestClient_FeatureImportance_CachedAfterFirstFetch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/importance", r.URL.Path)
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]float64{
			domain.ColSubmittedCharge: 0.4,
			domain.MetricPageRank:     0.1,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)
	ctx := context.Background()

	first, err := client.FeatureImportance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.4, first[domain.ColSubmittedCharge])

	second, err := client.FeatureImportance(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_Health(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := newTestClient(healthy.URL, 1)
	assert.NoError(t, client.Health(context.Background()))

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	client = newTestClient(unhealthy.URL, 1)
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.ErrKindScoringEngine, domain.ErrorKind(err))
}
