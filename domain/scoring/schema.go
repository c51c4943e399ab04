package scoring

import (
	"fmt"
)

// Schema frames a table as a binary classification task. It is created once per
// training run and never mutated afterwards.
type Schema struct {
	TargetColumn       string   `json:"target_column"`
	FeatureColumns     []string `json:"feature_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
}

// Validate checks the structural invariants of the schema
func (s *Schema) Validate() error {
	if s.TargetColumn == "" {
		return fmt.Errorf("schema has no target column")
	}
	features := make(map[string]bool, len(s.FeatureColumns))
	for _, f := range s.FeatureColumns {
		if f == s.TargetColumn {
			return fmt.Errorf("target column %q listed as a feature", f)
		}
		features[f] = true
	}
	for _, c := range s.CategoricalColumns {
		if !features[c] {
			return fmt.Errorf("categorical column %q is not a feature", c)
		}
	}
	return nil
}

// IsCategorical reports whether a feature is categorical
func (s *Schema) IsCategorical(name string) bool {
	for _, c := range s.CategoricalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// CategoricalMask returns one flag per feature column, in feature order
func (s *Schema) CategoricalMask() []bool {
	mask := make([]bool, len(s.FeatureColumns))
	for i, f := range s.FeatureColumns {
		mask[i] = s.IsCategorical(f)
	}
	return mask
}

// NumericColumns returns the non-categorical features, in feature order
func (s *Schema) NumericColumns() []string {
	var out []string
	for _, f := range s.FeatureColumns {
		if !s.IsCategorical(f) {
			out = append(out, f)
		}
	}
	return out
}
