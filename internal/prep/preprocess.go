// Package prep holds the table cleaning and class balance steps that run before splitting.
package prep

import (
	"math"

	"fraudscore/domain/dataset"
	"fraudscore/internal"

	"github.com/montanaflynn/stats"
)

// Preprocessor fills missing numeric values. Categorical gaps are left for the booster.
type Preprocessor struct {
	logger *internal.Logger
}

// NewPreprocessor creates a preprocessor
func NewPreprocessor(logger *internal.Logger) *Preprocessor {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Preprocessor{logger: logger.WithComponent("Preprocessor")}
}

// Clean replaces missing cells of every numeric feature column with that column's median,
// computed over ds itself. It mutates ds and returns the medians it used.
func (p *Preprocessor) Clean(ds *dataset.Dataset, features []string) map[string]float64 {
	return p.CleanWithFallback(ds, features, nil)
}

// CleanWithFallback behaves like Clean, except that a column with no present values is
// filled from fallback when a value for it is known.
func (p *Preprocessor) CleanWithFallback(ds *dataset.Dataset, features []string, fallback map[string]float64) map[string]float64 {
	medians := make(map[string]float64)

	for _, col := range features {
		if ds.ColumnKind(col) != dataset.KindNumeric {
			continue
		}
		c, _ := ds.ColumnIndex(col)

		present := make(stats.Float64Data, 0, ds.NumRows())
		missing := 0
		for i := 0; i < ds.NumRows(); i++ {
			v := ds.Value(i, c)
			if v.IsMissing() {
				missing++
				continue
			}
			present = append(present, v.Num)
		}

		median, err := present.Median()
		if err != nil || math.IsNaN(median) {
			fb, ok := fallback[col]
			if !ok {
				p.logger.Debug("column %s has no values to take a median from", col)
				continue
			}
			median = fb
		}
		medians[col] = median

		if missing == 0 {
			continue
		}
		for i := 0; i < ds.NumRows(); i++ {
			if ds.Value(i, c).IsMissing() {
				ds.Set(i, c, dataset.NewNumericValue(median))
			}
		}
		p.logger.Debug("filled %d missing values in %s with median %.6f", missing, col, median)
	}

	return medians
}
