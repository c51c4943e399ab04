package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fraudscore/app"
	"fraudscore/domain/scoring"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/pipeline"
	"fraudscore/ports"
)

// Scorer serves per-transaction requests
type Scorer interface {
	Predict(ctx context.Context, req app.PredictRequest) (*app.PredictResponse, error)
	Explain(ctx context.Context, req app.ExplainRequest) (*app.ExplainResponse, error)
	ListTransactions(ctx context.Context, limit int) ([]app.Transaction, error)
	DatasetRows() int
}

// Registry exposes persisted training results
type Registry interface {
	Metrics() (scoring.Metrics, error)
	Runs(ctx context.Context, limit int) ([]ports.TrainingRun, error)
}

// StatusSource describes the active model
type StatusSource interface {
	Snapshot() pipeline.Status
}

// Handler serves the fraud scoring endpoints
type Handler struct {
	scorer   Scorer
	registry Registry
	status   StatusSource
}

// NewHandler creates a handler
func NewHandler(scorer Scorer, registry Registry, status StatusSource) *Handler {
	return &Handler{scorer: scorer, registry: registry, status: status}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status        string `json:"status"`
	ModelLoaded   bool   `json:"model_loaded"`
	DatasetLoaded bool   `json:"dataset_loaded"`
	DatasetRows   int    `json:"dataset_rows"`
	Generation    uint64 `json:"generation"`
	RunID         string `json:"run_id,omitempty"`
}

// Health reports whether a model is loaded
func (h *Handler) Health(c *gin.Context) {
	st := h.status.Snapshot()
	rows := h.scorer.DatasetRows()
	c.JSON(http.StatusOK, HealthResponse{
		Status:        "healthy",
		ModelLoaded:   st.Ready,
		DatasetLoaded: rows > 0,
		DatasetRows:   rows,
		Generation:    st.Generation,
		RunID:         st.RunID.String(),
	})
}

// Metrics returns the persisted metrics of the last training run
func (h *Handler) Metrics(c *gin.Context) {
	m, err := h.registry.Metrics()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m.AsMap())
}

// Transactions lists a scored sample of the loaded dataset
func (h *Handler) Transactions(c *gin.Context) {
	limit, ok := queryInt(c, "limit", app.DefaultTransactionLimit)
	if !ok {
		return
	}
	txs, err := h.scorer.ListTransactions(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

// Predict scores one transaction
func (h *Handler) Predict(c *gin.Context) {
	var req app.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	resp, err := h.scorer.Predict(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Explain returns the top attributions and the analyst text of one transaction
func (h *Handler) Explain(c *gin.Context) {
	var req app.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	resp, err := h.scorer.Explain(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Runs lists recorded training runs
func (h *Handler) Runs(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	runs, err := h.registry.Runs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		respondError(c, apperrors.InvalidInput(key+" must be a positive integer"))
		return 0, false
	}
	return v, true
}
