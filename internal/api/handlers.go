package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/medicare-fraud-scoring-server/internal/domain"
)

// batchRequest is the body of POST /predict/batch.
type batchRequest struct {
	Claims []*domain.ClaimRecord `json:"claims" binding:"required"`
}

// handleHealth reports liveness plus cache/scorer reachability and the
// centrality cache counters.
func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	components := gin.H{}

	if s.cacheHealth != nil {
		if err := s.cacheHealth(c.Request.Context()); err != nil {
			// The pipeline recomputes without the cache, so a dead cache
			// degrades rather than fails the service.
			status = "degraded"
			components["cache"] = err.Error()
		} else {
			components["cache"] = "ok"
		}
	} else {
		components["cache"] = "in-process"
	}

	if err := s.scorer.Health(c.Request.Context()); err != nil {
		status = "degraded"
		components["scoring_engine"] = err.Error()
	} else {
		components["scoring_engine"] = "ok"
	}

	httpStatus := http.StatusOK
	if status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, gin.H{
		"status":           status,
		"timestamp":        time.Now().UTC(),
		"components":       components,
		"centrality_cache": s.predictor.CentralityStats(),
	})
}

// handlePredict scores a single claim.
func (s *Server) handlePredict(c *gin.Context) {
	var claim domain.ClaimRecord
	if err := c.ShouldBindJSON(&claim); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrKindValidation, err.Error())
		return
	}

	prediction, err := s.predictor.Predict(c.Request.Context(), &claim)
	if err != nil {
		kind := domain.ErrorKind(err)
		s.writeError(c, statusForKind(kind), kind, err.Error())
		return
	}

	c.JSON(http.StatusOK, prediction)
}

// handlePredictBatch scores a collection of claims with per-row failure
// isolation. The response always carries the success/failure summary; a
// batch with failed rows is still a 200.
func (s *Server) handlePredictBatch(c *gin.Context) {
	var request batchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrKindValidation, err.Error())
		return
	}
	if len(request.Claims) == 0 {
		s.writeError(c, http.StatusBadRequest, domain.ErrKindValidation, "batch must contain at least one claim")
		return
	}
	if len(request.Claims) > s.cfg.Batch.MaxSize {
		s.writeError(c, http.StatusBadRequest, domain.ErrKindValidation,
			"batch exceeds the maximum of "+strconv.Itoa(s.cfg.Batch.MaxSize)+" claims")
		return
	}

	result := s.predictor.PredictBatch(c.Request.Context(), request.Claims)
	c.JSON(http.StatusOK, result)
}

// handleFeatureImportance returns the model's static per-feature weights.
func (s *Server) handleFeatureImportance(c *gin.Context) {
	importance, err := s.scorer.FeatureImportance(c.Request.Context())
	if err != nil {
		kind := domain.ErrorKind(err)
		s.writeError(c, statusForKind(kind), kind, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"feature_importance": importance})
}

// handleListPredictions pages through the prediction history log.
func (s *Server) handleListPredictions(c *gin.Context) {
	if s.history == nil {
		s.writeError(c, http.StatusNotFound, domain.ErrKindValidation, "prediction history is not enabled")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := s.history.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, domain.ErrKindInternal, err.Error())
		return
	}
	total, err := s.history.Count(c.Request.Context())
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, domain.ErrKindInternal, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"predictions": entries,
		"total":       total,
		"limit":       limit,
		"offset":      offset,
	})
}

// writeError writes the structured error body: a human-readable message
// and a machine-readable kind.
func (s *Server) writeError(c *gin.Context, status int, kind, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"kind":    kind,
			"message": message,
		},
		"correlation_id": c.GetString("correlation_id"),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// statusForKind maps pipeline error kinds to HTTP statuses.
func statusForKind(kind string) int {
	switch kind {
	case domain.ErrKindValidation, domain.ErrKindInvalidCategory:
		return http.StatusBadRequest
	case domain.ErrKindScoringEngine:
		return http.StatusBadGateway
	case domain.ErrKindSchemaMismatch, domain.ErrKindCacheUnavailable, domain.ErrKindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
