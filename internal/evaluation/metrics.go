// Package evaluation computes held-out classification metrics.
package evaluation

import (
	"sort"

	"fraudscore/domain/scoring"
)

// BinaryPredFromProba converts probabilities to 0/1 predictions (>= threshold is 1)
func BinaryPredFromProba(probs []float64, threshold float64) []int {
	out := make([]int, len(probs))
	for i, p := range probs {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}

// Confusion counts predictions against 0/1 labels
func Confusion(labels []float64, preds []int) scoring.ConfusionMatrix {
	var cm scoring.ConfusionMatrix
	for i, y := range labels {
		switch {
		case y == 1 && preds[i] == 1:
			cm.TruePositive++
		case y == 1:
			cm.FalseNegative++
		case preds[i] == 1:
			cm.FalsePositive++
		default:
			cm.TrueNegative++
		}
	}
	return cm
}

// PrecisionRecallF1 computes the positive-class scores; a zero denominator yields 0
func PrecisionRecallF1(cm scoring.ConfusionMatrix) (precision, recall, f1 float64) {
	tp := float64(cm.TruePositive)
	if d := tp + float64(cm.FalsePositive); d > 0 {
		precision = tp / d
	}
	if d := tp + float64(cm.FalseNegative); d > 0 {
		recall = tp / d
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// ROCAUC is the Mann-Whitney estimate of the area under the ROC curve, with tied
// scores sharing their average rank. ok is false when either class is absent.
func ROCAUC(labels, scores []float64) (auc float64, ok bool) {
	n := len(labels)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return scores[order[a]] < scores[order[b]] })

	var positives, negatives, rankSum float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		// ranks are 1-based
		avgRank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if labels[order[k]] == 1 {
				positives++
				rankSum += avgRank
			} else {
				negatives++
			}
		}
		i = j + 1
	}

	if positives == 0 || negatives == 0 {
		return 0, false
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives), true
}
