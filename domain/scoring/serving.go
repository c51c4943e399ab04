package scoring

import (
	"fraudscore/domain/core"
)

// ConfidenceLabel grades how far a score sits from the decision boundary
type ConfidenceLabel string

const (
	ConfidenceLow    ConfidenceLabel = "low"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceHigh   ConfidenceLabel = "high"
)

// Record is a raw serving request: feature name to numeric or categorical value
type Record map[string]interface{}

// ScoredRecord is the per-request serving response
type ScoredRecord struct {
	RiskScore       float64         `json:"risk_score"`
	Prediction      int             `json:"prediction"`
	Threshold       float64         `json:"threshold"`
	ConfidenceLabel ConfidenceLabel `json:"confidence_label"`
	DeviationIndex  float64         `json:"deviation_index"`
	Timestamp       core.Timestamp  `json:"timestamp"`
}

// AlignmentReport lists what alignment had to default or drop
type AlignmentReport struct {
	Missing []string `json:"missing,omitempty"`
	Unknown []string `json:"unknown,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
}

// Clean reports whether the record matched the feature set exactly
func (r AlignmentReport) Clean() bool {
	return len(r.Missing) == 0 && len(r.Unknown) == 0 && len(r.Invalid) == 0
}

// ColumnStats is the reference mean and sample standard deviation of one column
type ColumnStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// ReferenceDistribution describes the training population of the anonymised columns
type ReferenceDistribution struct {
	Prefix  string                 `json:"prefix"`
	Columns map[string]ColumnStats `json:"columns"`
	Rows    int                    `json:"rows"`
}
