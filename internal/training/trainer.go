// Package training configures and invokes the boosting capability.
package training

import (
	"time"

	"fraudscore/adapters/boost"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/features"
	"fraudscore/ports"
)

// Config is the boosting configuration minus the class weight, which is computed per run
type Config struct {
	Iterations          int
	LearningRate        float64
	Depth               int
	L2LeafReg           float64
	Subsample           float64
	EarlyStoppingRounds int
	BorderCount         int
	RandomSeed          int64
}

// DefaultConfig mirrors the booster defaults
func DefaultConfig() Config {
	p := boost.DefaultParams()
	return Config{
		Iterations:          p.Iterations,
		LearningRate:        p.LearningRate,
		Depth:               p.Depth,
		L2LeafReg:           p.L2LeafReg,
		Subsample:           p.Subsample,
		EarlyStoppingRounds: p.EarlyStoppingRounds,
		BorderCount:         p.BorderCount,
		RandomSeed:          p.RandomSeed,
	}
}

// Params returns the booster parameters for one run
func (c Config) Params(classWeight float64) ports.BoostParams {
	return ports.BoostParams{
		Iterations:          c.Iterations,
		LearningRate:        c.LearningRate,
		Depth:               c.Depth,
		L2LeafReg:           c.L2LeafReg,
		Subsample:           c.Subsample,
		ScalePosWeight:      classWeight,
		EarlyStoppingRounds: c.EarlyStoppingRounds,
		UseBestModel:        true,
		EvalMetric:          "AUC",
		BorderCount:         c.BorderCount,
		RandomSeed:          c.RandomSeed,
	}
}

// Trainer fits a model on a train subset, monitoring the eval subset
type Trainer struct {
	booster ports.Booster
	config  Config
	logger  *internal.Logger
}

// NewTrainer creates a trainer over the given boosting capability
func NewTrainer(booster ports.Booster, config Config, logger *internal.Logger) *Trainer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Trainer{booster: booster, config: config, logger: logger.WithComponent("Trainer")}
}

// Config returns the trainer configuration
func (t *Trainer) Config() Config { return t.config }

// Train fits a model. Any failure of the boosting capability surfaces as a TRAINING_ERROR.
func (t *Trainer) Train(train, eval *dataset.Dataset, schema *scoring.Schema, trainLabels, evalLabels []float64, classWeight float64) (ports.Model, error) {
	trainMatrix, err := features.Matrix(train, schema, trainLabels)
	if err != nil {
		return nil, apperrors.TrainingError("failed to build train matrix", err)
	}
	evalMatrix, err := features.Matrix(eval, schema, evalLabels)
	if err != nil {
		return nil, apperrors.TrainingError("failed to build eval matrix", err)
	}

	params := t.config.Params(classWeight)
	t.logger.Info("training on %d rows (%d features, %d categorical), eval on %d rows, scale_pos_weight=%.4f",
		len(trainMatrix.Rows), len(schema.FeatureColumns), len(schema.CategoricalColumns), len(evalMatrix.Rows), classWeight)

	start := time.Now()
	model, err := t.booster.Fit(trainMatrix, evalMatrix, params)
	if err != nil {
		t.logger.Error("boosting failed: %v", err)
		return nil, apperrors.TrainingError("model training failed", err)
	}
	t.logger.Info("training finished in %s, best iteration %d", time.Since(start).Round(time.Millisecond), model.BestIteration())
	return model, nil
}
