package evaluation

import (
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	"fraudscore/ports"
)

// Evaluator scores a held-out subset with a fitted model
type Evaluator struct {
	logger *internal.Logger
}

// NewEvaluator creates an evaluator
func NewEvaluator(logger *internal.Logger) *Evaluator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Evaluator{logger: logger.WithComponent("Evaluator")}
}

// Evaluate computes ROC-AUC over probabilities and precision, recall and F1 at threshold.
// It never fails on degenerate label sets: an undefined AUC is reported as 0.
func (e *Evaluator) Evaluate(model ports.Model, rows [][]dataset.Value, labels []float64, threshold float64) (*scoring.Evaluation, error) {
	probs, err := model.PredictProba(rows)
	if err != nil {
		return nil, err
	}
	return e.FromScores(labels, probs, threshold), nil
}

// FromScores computes the evaluation from precomputed probabilities
func (e *Evaluator) FromScores(labels, probs []float64, threshold float64) *scoring.Evaluation {
	auc, ok := ROCAUC(labels, probs)
	if !ok {
		e.logger.Warn("evaluation subset holds a single class, roc_auc reported as 0")
	}

	cm := Confusion(labels, BinaryPredFromProba(probs, threshold))
	precision, recall, f1 := PrecisionRecallF1(cm)

	result := &scoring.Evaluation{
		Metrics: scoring.Metrics{
			ROCAUC:    auc,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
		},
		Confusion: cm,
		Threshold: threshold,
		Support:   len(labels),
	}

	e.logger.Info("ROC_AUC: %.4f | PRECISION: %.4f | RECALL: %.4f | F1: %.4f", auc, precision, recall, f1)
	e.logger.Info("confusion matrix: tn=%d fp=%d fn=%d tp=%d", cm.TrueNegative, cm.FalsePositive, cm.FalseNegative, cm.TruePositive)
	return result
}
