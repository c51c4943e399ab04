package boost

import (
	"fmt"

	"fraudscore/domain/dataset"
	"fraudscore/ports"
)

// coverFloor keeps every node of the virtual tree reachable, so leaves no training row
// reached still have well-defined path weights.
const coverFloor = 1e-6

// Explainer computes exact SHAP values for a Model with the polynomial-time TreeSHAP
// recursion. Node covers come from the training leaf counts.
type Explainer struct {
	model    *Model
	covers   [][][]float64 // tree -> level -> node prefix -> cover
	expected float64
}

var _ ports.TreeExplainer = (*Explainer)(nil)

// NewExplainer binds an explainer to a model produced by this package
func NewExplainer(m ports.Model) (ports.TreeExplainer, error) {
	model, ok := m.(*Model)
	if !ok {
		return nil, fmt.Errorf("tree explainer: unsupported model type %T", m)
	}
	e := &Explainer{model: model, covers: make([][][]float64, len(model.Trees))}
	e.expected = model.BaseScore
	for t := range model.Trees {
		tree := &model.Trees[t]
		depth := len(tree.Splits)
		levels := make([][]float64, depth+1)
		levels[depth] = make([]float64, len(tree.Leaves))
		for l := range tree.Leaves {
			levels[depth][l] = tree.Covers[l] + coverFloor
		}
		for d := depth - 1; d >= 0; d-- {
			levels[d] = make([]float64, 1<<d)
			for p := range levels[d] {
				levels[d][p] = levels[d+1][p<<1] + levels[d+1][p<<1|1]
			}
		}
		e.covers[t] = levels

		var weighted float64
		for l, v := range tree.Leaves {
			weighted += levels[depth][l] * v
		}
		e.expected += weighted / levels[0][0]
	}
	return e, nil
}

// ExpectedValue is the cover-weighted mean raw score of the ensemble
func (e *Explainer) ExpectedValue() float64 { return e.expected }

// ShapValues returns one attribution per model feature on the log-odds scale
func (e *Explainer) ShapValues(row []dataset.Value) ([]float64, error) {
	x, err := e.model.encode(row)
	if err != nil {
		return nil, err
	}
	phi := make([]float64, len(e.model.Features))
	for t := range e.model.Trees {
		e.recurse(t, x, phi, 0, 0, nil, 1, 1, -1)
	}
	return phi, nil
}

type pathElement struct {
	feature int
	zero    float64
	one     float64
	weight  float64
}

func (e *Explainer) recurse(t int, x, phi []float64, level, prefix int, path []pathElement, zero, one float64, feature int) {
	tree := &e.model.Trees[t]
	path = extendPath(path, zero, one, feature)

	if level == len(tree.Splits) {
		value := tree.Leaves[prefix]
		for i := 1; i < len(path); i++ {
			w := unwoundPathSum(path, i)
			phi[path[i].feature] += w * (path[i].one - path[i].zero) * value
		}
		return
	}

	split := tree.Splits[level]
	hot := prefix << 1
	if x[split.Feature] > split.Border {
		hot |= 1
	}
	cold := hot ^ 1

	incomingZero, incomingOne := 1.0, 1.0
	for k := 1; k < len(path); k++ {
		if path[k].feature == split.Feature {
			incomingZero, incomingOne = path[k].zero, path[k].one
			path = unwindPath(path, k)
			break
		}
	}

	covers := e.covers[t]
	parent := covers[level][prefix]
	e.recurse(t, x, phi, level+1, hot, path, incomingZero*covers[level+1][hot]/parent, incomingOne, split.Feature)
	e.recurse(t, x, phi, level+1, cold, path, incomingZero*covers[level+1][cold]/parent, 0, split.Feature)
}

func extendPath(path []pathElement, zero, one float64, feature int) []pathElement {
	l := len(path)
	out := make([]pathElement, l+1)
	copy(out, path)
	out[l] = pathElement{feature: feature, zero: zero, one: one}
	if l == 0 {
		out[l].weight = 1
	}
	for i := l - 1; i >= 0; i-- {
		out[i+1].weight += one * out[i].weight * float64(i+1) / float64(l+1)
		out[i].weight = zero * out[i].weight * float64(l-i) / float64(l+1)
	}
	return out
}

func unwindPath(path []pathElement, i int) []pathElement {
	l := len(path) - 1
	out := make([]pathElement, len(path))
	copy(out, path)
	one, zero := path[i].one, path[i].zero
	next := out[l].weight
	for j := l - 1; j >= 0; j-- {
		if one != 0 {
			tmp := out[j].weight
			out[j].weight = next * float64(l+1) / (float64(j+1) * one)
			next = tmp - out[j].weight*zero*float64(l-j)/float64(l+1)
		} else {
			out[j].weight = out[j].weight * float64(l+1) / (zero * float64(l-j))
		}
	}
	for j := i; j < l; j++ {
		out[j].feature = out[j+1].feature
		out[j].zero = out[j+1].zero
		out[j].one = out[j+1].one
	}
	return out[:l]
}

func unwoundPathSum(path []pathElement, i int) float64 {
	l := len(path) - 1
	one, zero := path[i].one, path[i].zero
	next := path[l].weight
	var total float64
	for j := l - 1; j >= 0; j-- {
		if one != 0 {
			tmp := next * float64(l+1) / (float64(j+1) * one)
			total += tmp
			next = path[j].weight - tmp*zero*float64(l-j)/float64(l+1)
		} else {
			total += path[j].weight / zero * float64(l+1) / float64(l-j)
		}
	}
	return total
}
