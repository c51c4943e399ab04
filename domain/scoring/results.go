package scoring

import (
	"fraudscore/domain/core"
	"fraudscore/domain/dataset"
)

// SplitStrategy names how the evaluation subset was carved out
type SplitStrategy string

const (
	SplitTemporal   SplitStrategy = "temporal"
	SplitStratified SplitStrategy = "stratified"
)

// Split is a row-disjoint (train, eval) partition of one dataset
type Split struct {
	Train      *dataset.Dataset
	Eval       *dataset.Dataset
	Strategy   SplitStrategy
	TimeColumn string
}

// Metrics are the held-out classification metrics of one training run
type Metrics struct {
	ROCAUC    float64 `json:"roc_auc" db:"roc_auc"`
	Precision float64 `json:"precision" db:"precision_score"`
	Recall    float64 `json:"recall" db:"recall_score"`
	F1        float64 `json:"f1" db:"f1_score"`
}

// AsMap returns the metric-name keyed form that is persisted
func (m Metrics) AsMap() map[string]float64 {
	return map[string]float64{
		"roc_auc":   m.ROCAUC,
		"precision": m.Precision,
		"recall":    m.Recall,
		"f1":        m.F1,
	}
}

// ConfusionMatrix counts hard predictions against labels
type ConfusionMatrix struct {
	TrueNegative  int `json:"tn"`
	FalsePositive int `json:"fp"`
	FalseNegative int `json:"fn"`
	TruePositive  int `json:"tp"`
}

// Evaluation is the full output of one evaluator run
type Evaluation struct {
	Metrics   Metrics         `json:"metrics"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
	Threshold float64         `json:"threshold"`
	Support   int             `json:"support"`
}

// FeatureImportance is one entry of the global ranking
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureContribution is one signed per-instance attribution
type FeatureContribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Attribution holds at most five contributions sorted by descending |value|
type Attribution []FeatureContribution

// TrainingResult summarises one completed training run
type TrainingResult struct {
	RunID            core.RunID          `json:"run_id"`
	Schema           Schema              `json:"schema"`
	Strategy         SplitStrategy       `json:"split_strategy"`
	TimeColumn       string              `json:"time_column,omitempty"`
	TrainRows        int                 `json:"train_rows"`
	EvalRows         int                 `json:"eval_rows"`
	ClassWeight      float64             `json:"class_weight"`
	BestIteration    int                 `json:"best_iteration"`
	Evaluation       Evaluation          `json:"evaluation"`
	GlobalImportance []FeatureImportance `json:"global_importance"`
	ShapSummary      []FeatureImportance `json:"shap_summary"`
	Fingerprint      string              `json:"dataset_fingerprint"`
	TrainedAt        core.Timestamp      `json:"trained_at"`
	Generation       uint64              `json:"generation"`
}
