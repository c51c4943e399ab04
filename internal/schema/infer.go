// Package schema frames a raw table as a binary classification task.
package schema

import (
	"strings"

	"fraudscore/domain/core"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
)

// TargetCandidates are the canonical label column names, matched case-insensitively
var TargetCandidates = []string{"fraud", "is_fraud", "target", "class", "label"}

// Infer detects the target column and splits the remaining columns into features.
// The first column, in table order, whose lower-cased name is a candidate becomes the
// target; without one the last column is used.
func Infer(ds *dataset.Dataset) (*scoring.Schema, error) {
	return InferWithTarget(ds, "")
}

// InferWithTarget behaves like Infer but uses target when it is non-empty
func InferWithTarget(ds *dataset.Dataset, target string) (*scoring.Schema, error) {
	columns := ds.Columns()
	if len(columns) < 2 {
		return nil, core.NewSchemaError("table needs at least 2 columns")
	}

	if target == "" {
		target = DetectTarget(columns)
	} else if _, ok := ds.ColumnIndex(target); !ok {
		return nil, core.NewSchemaError("target column " + target + " not found")
	}

	s := &scoring.Schema{TargetColumn: target}
	for _, col := range columns {
		if col == target {
			continue
		}
		s.FeatureColumns = append(s.FeatureColumns, col)
		if ds.ColumnKind(col) == dataset.KindCategorical {
			s.CategoricalColumns = append(s.CategoricalColumns, col)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, core.NewSchemaError(err.Error())
	}
	return s, nil
}

// DetectTarget applies the candidate-name rule with its last-column fallback
func DetectTarget(columns []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, candidate := range TargetCandidates {
			if lower == candidate {
				return col
			}
		}
	}
	return columns[len(columns)-1]
}

// IsFallbackTarget reports whether DetectTarget had to fall back to the last column
func IsFallbackTarget(columns []string, target string) bool {
	for _, candidate := range TargetCandidates {
		if strings.ToLower(target) == candidate {
			return false
		}
	}
	return len(columns) > 0 && columns[len(columns)-1] == target
}
