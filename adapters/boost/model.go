package boost

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"

	"fraudscore/domain/dataset"
	"fraudscore/ports"
)

// Split sends a row to the right child when its encoded feature exceeds Border
type Split struct {
	Feature int
	Border  float64
}

// ObliviousTree applies the same split to every node of a level, so a row's leaf is
// the bit string of its split outcomes, most significant level first.
type ObliviousTree struct {
	Splits []Split
	Leaves []float64
	// Covers counts the training rows that reached each leaf
	Covers []float64
}

func (t *ObliviousTree) leafIndex(x []float64) int {
	leaf := 0
	for _, s := range t.Splits {
		leaf <<= 1
		if x[s.Feature] > s.Border {
			leaf |= 1
		}
	}
	return leaf
}

// Model is a fitted ensemble of oblivious trees on the logistic scale
type Model struct {
	Features   []FeatureSpec
	Trees      []ObliviousTree
	BaseScore  float64
	Best       int
	Importance []float64
	Params     ports.BoostParams
}

var _ ports.Model = (*Model)(nil)

func (m *Model) FeatureNames() []string {
	names := make([]string, len(m.Features))
	for i, f := range m.Features {
		names[i] = f.Name
	}
	return names
}

func (m *Model) BestIteration() int { return m.Best }

// NumTrees reports the ensemble size after best-model truncation
func (m *Model) NumTrees() int { return len(m.Trees) }

func (m *Model) FeatureImportance() []float64 {
	out := make([]float64, len(m.Importance))
	copy(out, m.Importance)
	return out
}

func (m *Model) encode(row []dataset.Value) ([]float64, error) {
	if len(row) != len(m.Features) {
		return nil, fmt.Errorf("row has %d values, model expects %d features", len(row), len(m.Features))
	}
	x := make([]float64, len(row))
	for j := range m.Features {
		x[j] = m.Features[j].encode(row[j])
	}
	return x, nil
}

func (m *Model) rawEncoded(x []float64) float64 {
	score := m.BaseScore
	for i := range m.Trees {
		t := &m.Trees[i]
		score += t.Leaves[t.leafIndex(x)]
	}
	return score
}

func (m *Model) RawScore(row []dataset.Value) (float64, error) {
	x, err := m.encode(row)
	if err != nil {
		return 0, err
	}
	return m.rawEncoded(x), nil
}

func (m *Model) PredictProba(rows [][]dataset.Value) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		raw, err := m.RawScore(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = sigmoid(raw)
	}
	return out, nil
}

// modelData has Model's fields without its methods, so gob encodes the fields
// instead of calling back into MarshalBinary.
type modelData Model

// MarshalBinary serializes the model with encoding/gob
func (m *Model) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode((*modelData)(m)); err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeModel(data []byte) (*Model, error) {
	var d modelData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	m := Model(d)
	if len(m.Features) == 0 {
		return nil, fmt.Errorf("decode model: no features")
	}
	for i, t := range m.Trees {
		if len(t.Leaves) != 1<<len(t.Splits) || len(t.Covers) != len(t.Leaves) {
			return nil, fmt.Errorf("decode model: tree %d is malformed", i)
		}
		for _, s := range t.Splits {
			if s.Feature < 0 || s.Feature >= len(m.Features) {
				return nil, fmt.Errorf("decode model: tree %d splits on unknown feature %d", i, s.Feature)
			}
		}
	}
	return &m, nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
