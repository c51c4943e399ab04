// Package features turns datasets into the positional matrices the model consumes.
package features

import (
	"fmt"

	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/ports"
)

// Rows extracts the feature columns of ds in schema order
func Rows(ds *dataset.Dataset, schema *scoring.Schema) ([][]dataset.Value, error) {
	idx := make([]int, len(schema.FeatureColumns))
	for i, col := range schema.FeatureColumns {
		c, ok := ds.ColumnIndex(col)
		if !ok {
			return nil, fmt.Errorf("feature column %q missing from dataset", col)
		}
		idx[i] = c
	}

	rows := make([][]dataset.Value, ds.NumRows())
	for r := range rows {
		src := ds.Row(r)
		row := make([]dataset.Value, len(idx))
		for i, c := range idx {
			row[i] = src[c]
		}
		rows[r] = row
	}
	return rows, nil
}

// Matrix builds the booster input for ds with the given labels
func Matrix(ds *dataset.Dataset, schema *scoring.Schema, labels []float64) (ports.TrainingMatrix, error) {
	rows, err := Rows(ds, schema)
	if err != nil {
		return ports.TrainingMatrix{}, err
	}
	if len(labels) != len(rows) {
		return ports.TrainingMatrix{}, fmt.Errorf("%d labels for %d rows", len(labels), len(rows))
	}
	names := make([]string, len(schema.FeatureColumns))
	copy(names, schema.FeatureColumns)
	return ports.TrainingMatrix{
		FeatureNames: names,
		Categorical:  schema.CategoricalMask(),
		Rows:         rows,
		Labels:       labels,
	}, nil
}
