package boost

import (
	"math"
	"math/rand"

	"fraudscore/domain/dataset"
)

// missingCategory is the key under which absent categorical values are counted
const missingCategory = "\x00missing"

// CategoryStat accumulates the label sum and count of one category
type CategoryStat struct {
	Sum   float64
	Count float64
}

// FeatureSpec describes how one input feature is encoded and split
type FeatureSpec struct {
	Name        string
	Categorical bool
	Borders     []float64
	Prior       float64
	Categories  map[string]CategoryStat
}

// encode maps one cell to the float the trees compare against
func (f *FeatureSpec) encode(v dataset.Value) float64 {
	if !f.Categorical {
		x, ok := v.Float()
		if !ok {
			return math.NaN()
		}
		return x
	}
	stat, ok := f.Categories[categoryKey(v)]
	if !ok {
		return f.Prior
	}
	return (stat.Sum + f.Prior) / (stat.Count + 1)
}

func categoryKey(v dataset.Value) string {
	if v.IsMissing() {
		return missingCategory
	}
	return v.String()
}

// orderedTargetStats encodes a categorical column for training. Each row sees only the
// labels of rows that precede it in a random permutation, which keeps its own label out
// of its encoding. It also returns the full statistics used at inference.
func orderedTargetStats(column []dataset.Value, labels []float64, prior float64, rng *rand.Rand) ([]float64, map[string]CategoryStat) {
	encoded := make([]float64, len(column))
	stats := make(map[string]CategoryStat)
	for _, i := range rng.Perm(len(column)) {
		key := categoryKey(column[i])
		s := stats[key]
		encoded[i] = (s.Sum + prior) / (s.Count + 1)
		s.Sum += labels[i]
		s.Count++
		stats[key] = s
	}
	return encoded, stats
}
