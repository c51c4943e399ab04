package ports

import (
	"fraudscore/domain/dataset"
)

// TrainingMatrix is the positional input of the boosting capability.
// Rows hold one value per feature, in FeatureNames order.
type TrainingMatrix struct {
	FeatureNames []string
	Categorical  []bool
	Rows         [][]dataset.Value
	Labels       []float64
}

// BoostParams configures one boosting run
type BoostParams struct {
	Iterations          int     `json:"iterations"`
	LearningRate        float64 `json:"learning_rate"`
	Depth               int     `json:"depth"`
	L2LeafReg           float64 `json:"l2_leaf_reg"`
	Subsample           float64 `json:"subsample"`
	ScalePosWeight      float64 `json:"scale_pos_weight"`
	EarlyStoppingRounds int     `json:"early_stopping_rounds"`
	UseBestModel        bool    `json:"use_best_model"`
	EvalMetric          string  `json:"eval_metric"`
	BorderCount         int     `json:"border_count"`
	RandomSeed          int64   `json:"random_seed"`
}

// Booster fits and restores gradient boosted models
type Booster interface {
	Fit(train, eval TrainingMatrix, params BoostParams) (Model, error)
	Load(data []byte) (Model, error)
}

// Model is a fitted classifier over an ordered feature vector
type Model interface {
	FeatureNames() []string
	// PredictProba returns the class-1 probability of each row
	PredictProba(rows [][]dataset.Value) ([]float64, error)
	// RawScore returns the log-odds of one row
	RawScore(row []dataset.Value) (float64, error)
	// FeatureImportance returns one non-negative value per feature, summing to 100
	FeatureImportance() []float64
	BestIteration() int
	MarshalBinary() ([]byte, error)
}

// TreeExplainer computes signed per-feature attributions on the log-odds scale.
// For every row, the sum of ShapValues plus ExpectedValue equals the model's RawScore.
type TreeExplainer interface {
	ShapValues(row []dataset.Value) ([]float64, error)
	ExpectedValue() float64
}

// ExplainerFactory binds an attribution engine to a fitted model
type ExplainerFactory func(model Model) (TreeExplainer, error)
