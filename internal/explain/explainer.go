// Package explain ranks features globally and attributes individual scores.
package explain

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
	"fraudscore/ports"
)

// TopK is the number of contributions returned per instance
const TopK = 5

// Explainer caches one attribution engine per model generation. Building the engine is
// the expensive step; it is rebuilt whenever the generation it was bound to changes.
type Explainer struct {
	factory ports.ExplainerFactory
	logger  *internal.Logger

	mu         sync.Mutex
	engine     ports.TreeExplainer
	generation uint64
	builds     int
}

// NewExplainer creates an explainer that builds engines with factory
func NewExplainer(factory ports.ExplainerFactory, logger *internal.Logger) *Explainer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Explainer{factory: factory, logger: logger.WithComponent("Explainer")}
}

// Global ranks the model's intrinsic importances, highest first
func (e *Explainer) Global(model ports.Model) []scoring.FeatureImportance {
	names := model.FeatureNames()
	values := model.FeatureImportance()
	out := make([]scoring.FeatureImportance, len(names))
	for i, name := range names {
		out[i] = scoring.FeatureImportance{Feature: name}
		if i < len(values) {
			out[i].Importance = values[i]
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}

// Instance returns the top contributions of one aligned row
func (e *Explainer) Instance(model ports.Model, generation uint64, row []dataset.Value) (scoring.Attribution, error) {
	engine, err := e.engineFor(model, generation)
	if err != nil {
		return nil, err
	}
	values, err := engine.ShapValues(row)
	if err != nil {
		return nil, fmt.Errorf("shap values: %w", err)
	}
	return Top(model.FeatureNames(), values, TopK), nil
}

// Summary is the mean absolute attribution of each feature over rows, highest first
func (e *Explainer) Summary(model ports.Model, generation uint64, rows [][]dataset.Value) ([]scoring.FeatureImportance, error) {
	engine, err := e.engineFor(model, generation)
	if err != nil {
		return nil, err
	}
	names := model.FeatureNames()
	sums := make([]float64, len(names))
	for _, row := range rows {
		values, err := engine.ShapValues(row)
		if err != nil {
			return nil, fmt.Errorf("shap values: %w", err)
		}
		for i, v := range values {
			sums[i] += math.Abs(v)
		}
	}
	out := make([]scoring.FeatureImportance, len(names))
	for i, name := range names {
		out[i] = scoring.FeatureImportance{Feature: name}
		if len(rows) > 0 {
			out[i].Importance = sums[i] / float64(len(rows))
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out, nil
}

// Invalidate drops the cached engine
func (e *Explainer) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.engine = nil
}

// Builds reports how many engines have been constructed
func (e *Explainer) Builds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.builds
}

func (e *Explainer) engineFor(model ports.Model, generation uint64) (ports.TreeExplainer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.engine != nil && e.generation == generation {
		return e.engine, nil
	}
	engine, err := e.factory(model)
	if err != nil {
		return nil, fmt.Errorf("build attribution engine: %w", err)
	}
	e.engine = engine
	e.generation = generation
	e.builds++
	e.logger.Debug("attribution engine built for generation %d", generation)
	return engine, nil
}

// Top pairs names with values and keeps the k largest by magnitude. Ties keep feature order.
func Top(names []string, values []float64, k int) scoring.Attribution {
	out := make(scoring.Attribution, 0, len(names))
	for i, name := range names {
		if i >= len(values) {
			break
		}
		out = append(out, scoring.FeatureContribution{Feature: name, Value: values[i]})
	}
	sort.SliceStable(out, func(a, b int) bool { return math.Abs(out[a].Value) > math.Abs(out[b].Value) })
	if len(out) > k {
		out = out[:k]
	}
	return out
}
