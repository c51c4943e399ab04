package serving

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
)

func testSchema() *scoring.Schema {
	return &scoring.Schema{
		TargetColumn:       "Class",
		FeatureColumns:     []string{"Time", "V1", "V2", "Amount", "merchant"},
		CategoricalColumns: []string{"merchant"},
	}
}

func quietAdapter() *Adapter {
	return NewAdapter(internal.NewLogger(internal.LogLevelError))
}

func TestAlignDefaultsMissingAndDropsUnknown(t *testing.T) {
	record := scoring.Record{
		"V1":       1.5,
		"Amount":   "42.10",
		"merchant": "online",
		"extra":    "ignored",
		"Class":    1,
	}
	row, report := quietAdapter().Align(record, testSchema())

	require.Len(t, row, 5)
	assert.Equal(t, dataset.NewNumericValue(0.0), row[0])
	assert.Equal(t, 1.5, row[1].Num)
	assert.Equal(t, dataset.NewNumericValue(0.0), row[2])
	assert.Equal(t, 42.1, row[3].Num)
	assert.Equal(t, dataset.NewStringValue("online"), row[4])

	assert.Equal(t, []string{"Time", "V2"}, report.Missing)
	assert.Equal(t, []string{"Class", "extra"}, report.Unknown)
	assert.Empty(t, report.Invalid)
	assert.False(t, report.Clean())
}

func TestAlignInvalidNumericDefaults(t *testing.T) {
	record := scoring.Record{"Time": 0, "V1": "abc", "V2": nil, "Amount": true, "merchant": 7}
	row, report := quietAdapter().Align(record, testSchema())

	assert.Equal(t, []string{"V1"}, report.Invalid)
	assert.Equal(t, 0.0, row[1].Num)
	assert.True(t, row[2].IsMissing())
	assert.Equal(t, 1.0, row[3].Num)
	assert.Equal(t, "7", row[4].String())
}

func TestAlignCleanRecord(t *testing.T) {
	record := scoring.Record{"Time": 1, "V1": 2, "V2": 3, "Amount": 4, "merchant": "retail"}
	_, report := quietAdapter().Align(record, testSchema())
	assert.True(t, report.Clean())
}

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  scoring.ConfidenceLabel
	}{
		{0.95, scoring.ConfidenceHigh},
		{0.55, scoring.ConfidenceLow},
		{0.75, scoring.ConfidenceMedium},
		{0.5, scoring.ConfidenceLow},
		{0.05, scoring.ConfidenceHigh},
		{0.25, scoring.ConfidenceMedium},
		{0.7, scoring.ConfidenceLow},
		{1, scoring.ConfidenceHigh},
		{0, scoring.ConfidenceHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceLabel(tt.score), "score %v", tt.score)
	}
}

func referenceDataset(t *testing.T) *dataset.Dataset {
	ds, err := dataset.New([]string{"Time", "V1", "V2", "Amount", "merchant", "Class"})
	require.NoError(t, err)
	rows := [][]float64{{0, 1, 10, 5, 0}, {1, 3, 10, 6, 0}, {2, 5, 10, 7, 1}}
	for _, r := range rows {
		require.NoError(t, ds.Append([]dataset.Value{
			dataset.NewNumericValue(r[0]), dataset.NewNumericValue(r[1]), dataset.NewNumericValue(r[2]),
			dataset.NewNumericValue(r[3]), dataset.NewStringValue("retail"), dataset.NewNumericValue(r[4]),
		}))
	}
	return ds
}

func TestBuildReference(t *testing.T) {
	ref := BuildReference(referenceDataset(t), testSchema(), DefaultDeviationPrefix, DefaultReferenceRows)

	assert.Equal(t, 3, ref.Rows)
	require.Contains(t, ref.Columns, "V1")
	assert.InDelta(t, 3.0, ref.Columns["V1"].Mean, 1e-12)
	assert.InDelta(t, 2.0, ref.Columns["V1"].Std, 1e-12)
	assert.Equal(t, 0.0, ref.Columns["V2"].Std)
	assert.NotContains(t, ref.Columns, "Amount")
	assert.NotContains(t, ref.Columns, "Time")

	capped := BuildReference(referenceDataset(t), testSchema(), DefaultDeviationPrefix, 2)
	assert.Equal(t, 2, capped.Rows)
	assert.InDelta(t, 2.0, capped.Columns["V1"].Mean, 1e-12)
}

func TestDeviationIndex(t *testing.T) {
	schema := testSchema()
	ref := BuildReference(referenceDataset(t), schema, DefaultDeviationPrefix, DefaultReferenceRows)

	row, _ := quietAdapter().Align(scoring.Record{"V1": 7.0, "V2": 99.0}, schema)
	// V2 has no spread and is skipped; V1 sits two standard deviations out
	first := DeviationIndex(row, schema, ref)
	assert.InDelta(t, 2.0, first, 1e-12)
	assert.Equal(t, first, DeviationIndex(row, schema, ref))

	assert.Equal(t, 0.0, DeviationIndex(row, schema, nil))
	assert.Equal(t, 0.0, DeviationIndex(row, schema, &scoring.ReferenceDistribution{}))

	missing := []dataset.Value{
		dataset.NewNumericValue(0), dataset.NewMissingValue(), dataset.NewNumericValue(1),
		dataset.NewNumericValue(0), dataset.NewStringValue("x"),
	}
	assert.Equal(t, 0.0, DeviationIndex(missing, schema, ref))
}
