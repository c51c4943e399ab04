package app

import (
	"context"
	"fmt"
	"math/rand"

	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/pipeline"
	"fraudscore/internal/prep"
	"fraudscore/internal/telemetry"
	"fraudscore/ports"
)

// DefaultTransactionLimit is the sample size of ListTransactions when none is given
const DefaultTransactionLimit = 50

// PredictRequest is one serving request
type PredictRequest struct {
	Data      scoring.Record `json:"data" binding:"required"`
	Threshold *float64       `json:"threshold,omitempty"`
}

// PredictResponse is the scored record plus what alignment had to default
type PredictResponse struct {
	scoring.ScoredRecord
	Alignment *scoring.AlignmentReport `json:"alignment,omitempty"`
}

// ExplainRequest asks for the attributions and the analyst text of one record.
// RiskScore and Prediction are the values shown to the analyst; when absent they are
// recomputed with the active model.
type ExplainRequest struct {
	Data       scoring.Record `json:"data" binding:"required"`
	RiskScore  *float64       `json:"risk_score,omitempty"`
	Prediction *int           `json:"prediction,omitempty"`
}

// ExplainResponse carries the top attributions and the generated text
type ExplainResponse struct {
	TopFeatures     scoring.Attribution      `json:"top_features"`
	Explanation     string                   `json:"explanation"`
	ExplanationHTML string                   `json:"explanation_html"`
	Alignment       *scoring.AlignmentReport `json:"alignment,omitempty"`
}

// Transaction is one row of the loaded dataset with its serving view
type Transaction struct {
	Data map[string]interface{} `json:"data"`
	scoring.ScoredRecord
}

// DatasetSource provides the currently loaded transaction table, or nil
type DatasetSource interface {
	Dataset() *dataset.Dataset
}

// ScoringService serves predictions and explanations from the active pipeline model
type ScoringService struct {
	pipeline *pipeline.Pipeline
	narrator ports.Narrator
	source   DatasetSource
	seed     int64
	logger   *internal.Logger
}

// NewScoringService creates a scoring service. source may be nil when no dataset is served.
func NewScoringService(p *pipeline.Pipeline, narrator ports.Narrator, source DatasetSource, seed int64, logger *internal.Logger) *ScoringService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ScoringService{
		pipeline: p,
		narrator: narrator,
		source:   source,
		seed:     seed,
		logger:   logger.WithComponent("ScoringService"),
	}
}

func (s *ScoringService) dataset() *dataset.Dataset {
	if s.source == nil {
		return nil
	}
	return s.source.Dataset()
}

// DatasetRows returns the size of the loaded dataset
func (s *ScoringService) DatasetRows() int {
	if ds := s.dataset(); ds != nil {
		return ds.NumRows()
	}
	return 0
}

// Predict scores one record
func (s *ScoringService) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	threshold := s.pipeline.Threshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	rec, report, err := s.pipeline.Predict(req.Data, threshold)
	if err != nil {
		return nil, err
	}
	telemetry.ObservePrediction(rec.RiskScore, rec.Prediction)
	return &PredictResponse{ScoredRecord: *rec, Alignment: s.report(report)}, nil
}

// Explain returns the top five attributions and the narrated explanation of one record.
// Text generation failures degrade to a placeholder; attribution failures are errors.
func (s *ScoringService) Explain(ctx context.Context, req ExplainRequest) (*ExplainResponse, error) {
	top, report, err := s.pipeline.Explain(req.Data)
	if err != nil {
		return nil, err
	}

	score, prediction := 0.0, 0
	if req.RiskScore != nil && req.Prediction != nil {
		score, prediction = *req.RiskScore, *req.Prediction
	} else {
		rec, _, err := s.pipeline.Predict(req.Data, s.pipeline.Threshold())
		if err != nil {
			return nil, err
		}
		score, prediction = rec.RiskScore, rec.Prediction
		if req.RiskScore != nil {
			score = *req.RiskScore
		}
		if req.Prediction != nil {
			prediction = *req.Prediction
		}
	}
	if score < 0 || score > 1 {
		return nil, apperrors.InvalidInput("risk_score must be in [0, 1]")
	}

	text := s.narrator.Narrate(ctx, scoring.NewExplanationPayload(score, prediction, top))
	return &ExplainResponse{
		TopFeatures:     top,
		Explanation:     text,
		ExplanationHTML: RenderMarkdown(text),
		Alignment:       s.report(report),
	}, nil
}

// ListTransactions scores a sample of the loaded dataset. Up to half of the sample are
// positives when the target column is present; the rest are negatives, shuffled together.
func (s *ScoringService) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	data := s.dataset()
	if data == nil || data.NumRows() == 0 {
		return []Transaction{}, nil
	}
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	schema, err := s.pipeline.Schema()
	if err != nil {
		return nil, err
	}

	indices := s.sample(data, schema.TargetColumn, limit)
	subset := data.Subset(indices)
	_, scored, err := s.pipeline.ScoreDataset(subset, s.pipeline.Threshold())
	if err != nil {
		return nil, err
	}

	out := make([]Transaction, len(scored))
	for i := range scored {
		out[i] = Transaction{Data: subset.Record(i), ScoredRecord: scored[i]}
	}
	return out, nil
}

func (s *ScoringService) sample(data *dataset.Dataset, target string, limit int) []int {
	n := data.NumRows()
	labels, err := prep.TargetLabels(data, target)
	if err != nil {
		if limit > n {
			limit = n
		}
		indices := make([]int, limit)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	var positives, negatives []int
	for i, y := range labels {
		if y == 1 {
			if len(positives) < limit/2 {
				positives = append(positives, i)
			}
			continue
		}
		negatives = append(negatives, i)
	}
	if room := limit - len(positives); len(negatives) > room {
		negatives = negatives[:room]
	}
	indices := append(positives, negatives...)

	rng := rand.New(rand.NewSource(s.seed))
	rng.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })
	return indices
}

func (s *ScoringService) report(r scoring.AlignmentReport) *scoring.AlignmentReport {
	if r.Clean() {
		return nil
	}
	telemetry.AlignmentWarningsTotal.Inc()
	s.logger.Debug("%v", apperrors.AlignmentWarning(fmt.Sprintf("record aligned with %d missing, %d unknown, %d invalid columns",
		len(r.Missing), len(r.Unknown), len(r.Invalid))))
	return &r
}
