package ports

import (
	"fraudscore/domain/core"
	"fraudscore/domain/scoring"
)

// ServingBundle is everything besides the model blob needed to serve a model
type ServingBundle struct {
	RunID       core.RunID                     `json:"run_id"`
	Schema      scoring.Schema                 `json:"schema"`
	Reference   *scoring.ReferenceDistribution `json:"reference_distribution,omitempty"`
	Medians     map[string]float64             `json:"training_medians"`
	Threshold   float64                        `json:"threshold"`
	Importance  []scoring.FeatureImportance    `json:"global_importance"`
	TrainedAt   core.Timestamp                 `json:"trained_at"`
	Fingerprint string                         `json:"dataset_fingerprint"`
}

// ArtifactStore persists the model blob, the metrics and the serving bundle
type ArtifactStore interface {
	SaveModel(blob []byte) (string, error)
	LoadModel() ([]byte, error)
	SaveMetrics(metrics scoring.Metrics) error
	LoadMetrics() (scoring.Metrics, error)
	SaveBundle(bundle *ServingBundle) error
	LoadBundle() (*ServingBundle, error)
	Dir() string
}
