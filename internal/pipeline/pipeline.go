// Package pipeline owns the active model of one scoring pipeline instance and runs the
// training and serving flows around it.
package pipeline

import (
	"sync"

	"fraudscore/domain/core"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/internal/evaluation"
	"fraudscore/internal/explain"
	"fraudscore/internal/prep"
	"fraudscore/internal/serving"
	"fraudscore/internal/split"
	"fraudscore/internal/training"
	"fraudscore/ports"
)

// DefaultThreshold is the decision cutoff used when a request does not override it
const DefaultThreshold = 0.5

// summaryRows caps the eval rows the SHAP summary is computed over
const summaryRows = 1000

// Config holds the pipeline level knobs
type Config struct {
	Threshold       float64
	TargetColumn    string // empty means infer
	DeviationPrefix string
	ReferenceRows   int
	Split           split.Config
	Training        training.Config
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Threshold:       DefaultThreshold,
		DeviationPrefix: serving.DefaultDeviationPrefix,
		ReferenceRows:   serving.DefaultReferenceRows,
		Split:           split.DefaultConfig(),
		Training:        training.DefaultConfig(),
	}
}

// active is the immutable serving state of one generation
type active struct {
	generation  uint64
	runID       core.RunID
	schema      scoring.Schema
	model       ports.Model
	reference   *scoring.ReferenceDistribution
	medians     map[string]float64
	threshold   float64
	importance  []scoring.FeatureImportance
	trainedAt   core.Timestamp
	fingerprint string
}

// Status is a point-in-time view of the pipeline
type Status struct {
	Ready        bool           `json:"model_loaded"`
	Generation   uint64         `json:"generation"`
	RunID        core.RunID     `json:"run_id,omitempty"`
	TargetColumn string         `json:"target_column,omitempty"`
	Features     int            `json:"features"`
	Threshold    float64        `json:"threshold"`
	TrainedAt    core.Timestamp `json:"trained_at"`
}

// TrainingOutcome is what one training run produces
type TrainingOutcome struct {
	Result *scoring.TrainingResult
	Model  ports.Model
	Bundle *ports.ServingBundle
}

// Pipeline is safe for concurrent serving. Training runs are serialised; a finished
// training run replaces the active model atomically and bumps the generation, which
// invalidates the cached attribution engine.
type Pipeline struct {
	config       Config
	preprocessor *prep.Preprocessor
	splitter     *split.Splitter
	trainer      *training.Trainer
	evaluator    *evaluation.Evaluator
	explainer    *explain.Explainer
	adapter      *serving.Adapter
	logger       *internal.Logger

	trainMu    sync.Mutex
	mu         sync.RWMutex
	state      *active
	generation uint64
}

// New creates a pipeline over a boosting capability and an attribution engine factory
func New(config Config, booster ports.Booster, explainers ports.ExplainerFactory, logger *internal.Logger) *Pipeline {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if config.Threshold < 0 || config.Threshold > 1 {
		config.Threshold = DefaultThreshold
	}
	if config.DeviationPrefix == "" {
		config.DeviationPrefix = serving.DefaultDeviationPrefix
	}
	if config.ReferenceRows <= 0 {
		config.ReferenceRows = serving.DefaultReferenceRows
	}
	return &Pipeline{
		config:       config,
		preprocessor: prep.NewPreprocessor(logger),
		splitter:     split.NewSplitter(config.Split, logger),
		trainer:      training.NewTrainer(booster, config.Training, logger),
		evaluator:    evaluation.NewEvaluator(logger),
		explainer:    explain.NewExplainer(explainers, logger),
		adapter:      serving.NewAdapter(logger),
		logger:       logger.WithComponent("Pipeline"),
	}
}

func (p *Pipeline) current() (*active, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state == nil {
		return nil, apperrors.ModelNotReady("no model has been trained or loaded")
	}
	return p.state, nil
}

func (p *Pipeline) swap(st *active) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	st.generation = p.generation
	p.state = st
	return st.generation
}

// Ready reports whether a model is active
func (p *Pipeline) Ready() bool {
	_, err := p.current()
	return err == nil
}

// Snapshot describes the active generation
func (p *Pipeline) Snapshot() Status {
	st, err := p.current()
	if err != nil {
		return Status{Threshold: p.config.Threshold}
	}
	return Status{
		Ready:        true,
		Generation:   st.generation,
		RunID:        st.runID,
		TargetColumn: st.schema.TargetColumn,
		Features:     len(st.schema.FeatureColumns),
		Threshold:    st.threshold,
		TrainedAt:    st.trainedAt,
	}
}

// Schema returns a copy of the active schema
func (p *Pipeline) Schema() (scoring.Schema, error) {
	st, err := p.current()
	if err != nil {
		return scoring.Schema{}, err
	}
	return st.schema, nil
}

// Threshold is the default decision cutoff of the active model
func (p *Pipeline) Threshold() float64 {
	st, err := p.current()
	if err != nil {
		return p.config.Threshold
	}
	return st.threshold
}

// Activate installs a previously trained model and its serving bundle
func (p *Pipeline) Activate(model ports.Model, bundle *ports.ServingBundle) error {
	if model == nil || bundle == nil {
		return apperrors.InvalidInput("model and bundle are required")
	}
	if err := bundle.Schema.Validate(); err != nil {
		return apperrors.SchemaError("invalid bundle schema", err)
	}
	names := model.FeatureNames()
	if len(names) != len(bundle.Schema.FeatureColumns) {
		return apperrors.SchemaError("model does not match bundle schema", nil)
	}
	for i, name := range names {
		if bundle.Schema.FeatureColumns[i] != name {
			return apperrors.SchemaError("model feature "+name+" does not match bundle schema", nil)
		}
	}

	threshold := bundle.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = p.config.Threshold
	}
	gen := p.swap(&active{
		runID:       bundle.RunID,
		schema:      bundle.Schema,
		model:       model,
		reference:   bundle.Reference,
		medians:     bundle.Medians,
		threshold:   threshold,
		importance:  bundle.Importance,
		trainedAt:   bundle.TrainedAt,
		fingerprint: bundle.Fingerprint,
	})
	p.logger.Info("activated run %s as generation %d (%d features)", bundle.RunID, gen, len(names))
	return nil
}

// GlobalImportance ranks the active model's features
func (p *Pipeline) GlobalImportance() ([]scoring.FeatureImportance, error) {
	st, err := p.current()
	if err != nil {
		return nil, err
	}
	if len(st.importance) > 0 {
		out := make([]scoring.FeatureImportance, len(st.importance))
		copy(out, st.importance)
		return out, nil
	}
	return p.explainer.Global(st.model), nil
}

// Bundle returns the serving bundle of the active generation
func (p *Pipeline) Bundle() (*ports.ServingBundle, error) {
	st, err := p.current()
	if err != nil {
		return nil, err
	}
	return st.bundle(), nil
}

func (st *active) bundle() *ports.ServingBundle {
	return &ports.ServingBundle{
		RunID:       st.runID,
		Schema:      st.schema,
		Reference:   st.reference,
		Medians:     st.medians,
		Threshold:   st.threshold,
		Importance:  st.importance,
		TrainedAt:   st.trainedAt,
		Fingerprint: st.fingerprint,
	}
}

// Model returns the active model
func (p *Pipeline) Model() (ports.Model, error) {
	st, err := p.current()
	if err != nil {
		return nil, err
	}
	return st.model, nil
}

func validThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return apperrors.InvalidInput("threshold must be in [0, 1]")
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
