package prep

import (
	"testing"

	"fraudscore/domain/core"
	"fraudscore/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassWeight(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		want   float64
	}{
		{"no positives", []float64{0, 0, 0}, 1.0},
		{"empty", nil, 1.0},
		{"balanced", []float64{0, 1, 0, 1}, 1.0},
		{"skewed", []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}, 9.0},
		{"only positives", []float64{1, 1}, 0.0},
		{"three to two", []float64{0, 1, 0, 1, 0}, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassWeight(tt.labels))
		})
	}
}

func TestDistribution(t *testing.T) {
	d := Distribution([]float64{0, 0, 0, 1})
	assert.Equal(t, 3, d.Negatives)
	assert.Equal(t, 1, d.Positives)
	assert.InDelta(t, 0.25, d.PositiveRate, 1e-12)
}

func buildDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New([]string{"amount", "merchant", "empty", "fraud"})
	require.NoError(t, err)
	rows := [][]dataset.Value{
		{dataset.NewNumericValue(1), dataset.NewStringValue("a"), dataset.NewMissingValue(), dataset.NewNumericValue(0)},
		{dataset.NewMissingValue(), dataset.NewMissingValue(), dataset.NewMissingValue(), dataset.NewNumericValue(1)},
		{dataset.NewNumericValue(3), dataset.NewStringValue("b"), dataset.NewMissingValue(), dataset.NewNumericValue(0)},
		{dataset.NewNumericValue(10), dataset.NewStringValue("a"), dataset.NewMissingValue(), dataset.NewNumericValue(0)},
	}
	for _, row := range rows {
		require.NoError(t, ds.Append(row))
	}
	return ds
}

func TestCleanFillsNumericWithSubsetMedian(t *testing.T) {
	ds := buildDataset(t)
	medians := NewPreprocessor(nil).Clean(ds, []string{"amount", "merchant", "empty"})

	assert.Equal(t, 3.0, medians["amount"])
	assert.Equal(t, 3.0, ds.Value(1, 0).Num)
	assert.True(t, ds.Value(1, 1).IsMissing(), "categorical gaps are left alone")
	assert.True(t, ds.Value(0, 2).IsMissing(), "an all-missing column has no median")
	_, ok := medians["empty"]
	assert.False(t, ok)
}

func TestCleanWithFallback(t *testing.T) {
	ds := buildDataset(t)
	medians := NewPreprocessor(nil).CleanWithFallback(ds, []string{"amount", "empty"}, map[string]float64{"empty": 7, "amount": 100})

	assert.Equal(t, 3.0, medians["amount"], "subset median wins when the subset has values")
	assert.Equal(t, 7.0, ds.Value(0, 2).Num)
}

func TestTargetLabels(t *testing.T) {
	ds := buildDataset(t)
	labels, err := TargetLabels(ds, "fraud")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 0}, labels)

	_, err = TargetLabels(ds, "merchant")
	assert.True(t, core.IsTrainingError(err))

	_, err = TargetLabels(ds, "amount")
	assert.Error(t, err)
}
