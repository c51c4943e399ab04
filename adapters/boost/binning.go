package boost

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// computeBorders picks split candidates for one feature. With few distinct values every
// midpoint is a border; otherwise borders sit on evenly spaced empirical quantiles.
// Missing values (NaN) never take part and always fall in the lowest bin.
func computeBorders(values []float64, maxBorders int) []float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	sort.Float64s(clean)

	uniq := clean[:1:1]
	for _, v := range clean[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	if len(uniq)-1 <= maxBorders {
		borders := make([]float64, len(uniq)-1)
		for i := range borders {
			borders[i] = uniq[i] + (uniq[i+1]-uniq[i])/2
		}
		return borders
	}

	maxValue := clean[len(clean)-1]
	borders := make([]float64, 0, maxBorders)
	for k := 1; k <= maxBorders; k++ {
		q := float64(k) / float64(maxBorders+1)
		b := stat.Quantile(q, stat.Empirical, clean, nil)
		if b >= maxValue {
			continue
		}
		if len(borders) > 0 && b <= borders[len(borders)-1] {
			continue
		}
		borders = append(borders, b)
	}
	return borders
}

// binIndex is the number of borders strictly below v; NaN maps to 0
func binIndex(borders []float64, v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(sort.Search(len(borders), func(i int) bool { return borders[i] >= v }))
}
