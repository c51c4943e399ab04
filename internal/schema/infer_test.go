package schema

import (
	"testing"

	"fraudscore/domain/core"
	"fraudscore/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func table(t *testing.T, columns []string, rows ...[]dataset.Value) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, ds.Append(row))
	}
	return ds
}

func num(v float64) dataset.Value { return dataset.NewNumericValue(v) }
func str(s string) dataset.Value  { return dataset.NewStringValue(s) }

func TestInferTargetDetection(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    string
	}{
		{"class first", []string{"Class", "a", "b"}, "Class"},
		{"class middle", []string{"a", "CLASS", "b"}, "CLASS"},
		{"class last", []string{"a", "b", "class"}, "class"},
		{"is_fraud", []string{"amount", "is_fraud", "hour"}, "is_fraud"},
		{"table order wins", []string{"label", "fraud"}, "label"},
		{"fallback last column", []string{"amount", "hour", "outcome"}, "outcome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := make([]dataset.Value, len(tt.columns))
			for i := range row {
				row[i] = num(float64(i))
			}
			s, err := Infer(table(t, tt.columns, row))
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.TargetColumn)
			assert.NotContains(t, s.FeatureColumns, tt.want)
			assert.Len(t, s.FeatureColumns, len(tt.columns)-1)
		})
	}
}

func TestInferCategoricalColumns(t *testing.T) {
	ds := table(t, []string{"amount", "merchant", "hour", "fraud"},
		[]dataset.Value{num(10), str("retail"), num(3), num(0)},
		[]dataset.Value{num(20), dataset.NewMissingValue(), num(4), num(1)},
	)

	s, err := Infer(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"amount", "merchant", "hour"}, s.FeatureColumns)
	assert.Equal(t, []string{"merchant"}, s.CategoricalColumns)
	assert.NoError(t, s.Validate())
}

func TestInferRejectsSingleColumn(t *testing.T) {
	_, err := Infer(table(t, []string{"only"}, []dataset.Value{num(1)}))
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
}

func TestInferWithTargetOverride(t *testing.T) {
	ds := table(t, []string{"y", "fraud"}, []dataset.Value{num(1), num(0)})

	s, err := InferWithTarget(ds, "y")
	require.NoError(t, err)
	assert.Equal(t, "y", s.TargetColumn)

	_, err = InferWithTarget(ds, "missing")
	assert.True(t, core.IsSchemaError(err))
}

func TestInferDoesNotMutate(t *testing.T) {
	ds := table(t, []string{"a", "fraud"}, []dataset.Value{dataset.NewMissingValue(), num(1)})
	_, err := Infer(ds)
	require.NoError(t, err)
	assert.True(t, ds.Value(0, 0).IsMissing())
}

func TestIsFallbackTarget(t *testing.T) {
	assert.True(t, IsFallbackTarget([]string{"a", "b"}, "b"))
	assert.False(t, IsFallbackTarget([]string{"a", "fraud"}, "fraud"))
}
