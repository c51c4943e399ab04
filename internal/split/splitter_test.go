package split

import (
	"fmt"
	"math"
	"testing"
	"time"

	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaFor(target string, features ...string) *scoring.Schema {
	return &scoring.Schema{TargetColumn: target, FeatureColumns: features}
}

// labeled builds n rows with an id column, a text column and a 10% positive label
func labeled(t *testing.T, n int, extra string, extraValue func(i int) dataset.Value) *dataset.Dataset {
	t.Helper()
	columns := []string{"id", "merchant", "fraud"}
	if extra != "" {
		columns = append(columns, extra)
	}
	ds, err := dataset.New(columns)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		label := 0.0
		if i%10 == 0 {
			label = 1
		}
		row := []dataset.Value{
			dataset.NewNumericValue(float64(i)),
			dataset.NewStringValue(fmt.Sprintf("m%d", i%4)),
			dataset.NewNumericValue(label),
		}
		if extra != "" {
			row = append(row, extraValue(i))
		}
		require.NoError(t, ds.Append(row))
	}
	return ds
}

func ids(t *testing.T, ds *dataset.Dataset) []float64 {
	col, err := ds.Column("id")
	require.NoError(t, err)
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = v.Num
	}
	return out
}

func TestStratifiedSplitSizesAndDeterminism(t *testing.T) {
	for _, n := range []int{10, 101, 1000, 1003} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ds := labeled(t, n, "", nil)
			splitter := NewSplitter(DefaultConfig(), nil)

			first, err := splitter.Split(ds, schemaFor("fraud", "id", "merchant"))
			require.NoError(t, err)
			assert.Equal(t, scoring.SplitStratified, first.Strategy)

			wantTrain := float64(n) * 0.8
			assert.InDelta(t, wantTrain, float64(first.Train.NumRows()), 1.0)
			assert.Equal(t, n, first.Train.NumRows()+first.Eval.NumRows())

			second, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant"))
			require.NoError(t, err)
			assert.Equal(t, ids(t, first.Train), ids(t, second.Train))
			assert.Equal(t, ids(t, first.Eval), ids(t, second.Eval))

			seen := make(map[float64]bool)
			for _, id := range append(ids(t, first.Train), ids(t, first.Eval)...) {
				assert.False(t, seen[id], "row %v appears twice", id)
				seen[id] = true
			}
		})
	}
}

func TestStratifiedSplitKeepsProportions(t *testing.T) {
	ds := labeled(t, 1000, "", nil)
	sp, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant"))
	require.NoError(t, err)

	count := func(d *dataset.Dataset) int {
		labels, _ := d.Column("fraud")
		pos := 0
		for _, v := range labels {
			if v.Num == 1 {
				pos++
			}
		}
		return pos
	}
	assert.Equal(t, 80, count(sp.Train))
	assert.Equal(t, 20, count(sp.Eval))
}

func TestTemporalSplitOnDateStrings(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// dates run backwards so the split must reorder rows
	ds := labeled(t, 100, "transaction_date", func(i int) dataset.Value {
		return dataset.NewStringValue(base.AddDate(0, 0, 100-i).Format("2006-01-02"))
	})

	sp, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant", "transaction_date"))
	require.NoError(t, err)
	assert.Equal(t, scoring.SplitTemporal, sp.Strategy)
	assert.Equal(t, "transaction_date", sp.TimeColumn)
	assert.Equal(t, 80, sp.Train.NumRows())
	assert.Equal(t, 20, sp.Eval.NumRows())

	latestTrain := maxTime(t, sp.Train, "transaction_date")
	earliestEval := minTime(t, sp.Eval, "transaction_date")
	assert.False(t, earliestEval.Before(latestTrain), "eval must not precede train")

	// the original column keeps its text values
	assert.Equal(t, dataset.KindCategorical, sp.Train.ColumnKind("transaction_date"))
}

func TestTemporalSplitOnNumericTimeColumn(t *testing.T) {
	ds := labeled(t, 50, "Time", func(i int) dataset.Value {
		return dataset.NewNumericValue(float64((i * 37) % 50))
	})

	sp, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant", "Time"))
	require.NoError(t, err)
	assert.Equal(t, scoring.SplitTemporal, sp.Strategy)

	trainTimes, _ := sp.Train.Column("Time")
	evalTimes, _ := sp.Eval.Column("Time")
	for _, tr := range trainTimes {
		for _, ev := range evalTimes {
			assert.LessOrEqual(t, tr.Num, ev.Num)
		}
	}
}

func TestTemporalSplitOnFractionalTimes(t *testing.T) {
	// falls from 0.99 to 0.0099, all below one nanosecond as epoch offsets
	ds := labeled(t, 100, "Time", func(i int) dataset.Value {
		return dataset.NewNumericValue(float64(100-i) * 0.0099)
	})

	sp, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant", "Time"))
	require.NoError(t, err)
	require.Equal(t, scoring.SplitTemporal, sp.Strategy)

	trainTimes, _ := sp.Train.Column("Time")
	evalTimes, _ := sp.Eval.Column("Time")
	latestTrain := 0.0
	for _, v := range trainTimes {
		latestTrain = math.Max(latestTrain, v.Num)
	}
	earliestEval := math.Inf(1)
	for _, v := range evalTimes {
		earliestEval = math.Min(earliestEval, v.Num)
	}
	assert.Less(t, latestTrain, earliestEval)
	assert.InDelta(t, 0.0099, trainTimes[0].Num, 1e-12, "earliest time trains")
}

func TestTypedTimestampColumnWins(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := labeled(t, 20, "created", func(i int) dataset.Value {
		return dataset.NewTimestampValue(base.Add(time.Duration(20-i) * time.Hour))
	})
	sp, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant", "created"))
	require.NoError(t, err)
	assert.Equal(t, "created", sp.TimeColumn)
}

func TestUnparseableTimeColumnFallsBack(t *testing.T) {
	ds := labeled(t, 30, "time_zone", func(i int) dataset.Value {
		return dataset.NewStringValue("Europe/Paris")
	})
	sp, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant", "time_zone"))
	require.NoError(t, err)
	assert.Equal(t, scoring.SplitStratified, sp.Strategy)
}

func TestSplitDoesNotMutateInput(t *testing.T) {
	ds := labeled(t, 20, "date", func(i int) dataset.Value {
		return dataset.NewStringValue(fmt.Sprintf("2024-01-%02d", 20-i))
	})
	before := ids(t, ds)
	_, err := NewSplitter(DefaultConfig(), nil).Split(ds, schemaFor("fraud", "id", "merchant", "date"))
	require.NoError(t, err)
	assert.Equal(t, before, ids(t, ds))
}

func maxTime(t *testing.T, ds *dataset.Dataset, col string) time.Time {
	values, _ := ds.Column(col)
	var out time.Time
	for _, v := range values {
		ts, err := time.Parse("2006-01-02", v.Str)
		require.NoError(t, err)
		if ts.After(out) {
			out = ts
		}
	}
	return out
}

func minTime(t *testing.T, ds *dataset.Dataset, col string) time.Time {
	values, _ := ds.Column(col)
	out := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, v := range values {
		ts, err := time.Parse("2006-01-02", v.Str)
		require.NoError(t, err)
		if ts.Before(out) {
			out = ts
		}
	}
	return out
}
