package prep

import (
	"fraudscore/domain/core"
	"fraudscore/domain/dataset"
)

// ClassDistribution counts binary labels
type ClassDistribution struct {
	Negatives    int     `json:"negatives"`
	Positives    int     `json:"positives"`
	PositiveRate float64 `json:"positive_rate"`
}

// Distribution counts 0 and 1 labels; other values are ignored
func Distribution(labels []float64) ClassDistribution {
	var d ClassDistribution
	for _, y := range labels {
		switch y {
		case 0:
			d.Negatives++
		case 1:
			d.Positives++
		}
	}
	if total := d.Negatives + d.Positives; total > 0 {
		d.PositiveRate = float64(d.Positives) / float64(total)
	}
	return d
}

// ClassWeight returns count(label==0) / count(label==1), or 1.0 when there are no positives.
// A dataset without positives therefore trains without imbalance correction instead of failing.
func ClassWeight(labels []float64) float64 {
	d := Distribution(labels)
	if d.Positives == 0 {
		return 1.0
	}
	return float64(d.Negatives) / float64(d.Positives)
}

// TargetLabels extracts the target column as 0/1 floats. Any other value is an error.
func TargetLabels(ds *dataset.Dataset, target string) ([]float64, error) {
	values, err := ds.Column(target)
	if err != nil {
		return nil, err
	}
	labels := make([]float64, len(values))
	for i, v := range values {
		f, ok := v.Float()
		if !ok || !v.IsNumeric() || (f != 0 && f != 1) {
			return nil, core.NewNonBinaryTargetError(target, v.String())
		}
		labels[i] = f
	}
	return labels, nil
}
