// Package boost is a gradient boosting classifier over oblivious (symmetric) decision
// trees, with ordered target statistics for categorical features and exact TreeSHAP
// attributions.
package boost

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"fraudscore/domain/dataset"
	"fraudscore/internal"
	"fraudscore/internal/evaluation"
	"fraudscore/ports"
)

const logEvery = 200

// Booster fits Model values. It is safe for concurrent use.
type Booster struct {
	logger  *internal.Logger
	workers int
}

var _ ports.Booster = (*Booster)(nil)

// NewBooster creates a booster that searches splits on up to GOMAXPROCS goroutines
func NewBooster(logger *internal.Logger) *Booster {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Booster{logger: logger.WithComponent("Booster"), workers: runtime.GOMAXPROCS(0)}
}

// Load restores a model produced by Model.MarshalBinary
func (b *Booster) Load(data []byte) (ports.Model, error) {
	return decodeModel(data)
}

type fitState struct {
	params  ports.BoostParams
	lambda  float64
	bins    [][]uint8
	borders [][]float64
	labels  []float64
	weights []float64
}

// Fit trains on train and monitors AUC on eval for early stopping. An eval set with a
// single class has no defined AUC; training then runs the full iteration budget.
func (b *Booster) Fit(train, eval ports.TrainingMatrix, params ports.BoostParams) (ports.Model, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	if err := validateMatrix(train); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	if len(eval.Rows) > 0 {
		if err := validateMatrix(eval); err != nil {
			return nil, fmt.Errorf("eval: %w", err)
		}
		if len(eval.FeatureNames) != len(train.FeatureNames) {
			return nil, fmt.Errorf("eval has %d features, train has %d", len(eval.FeatureNames), len(train.FeatureNames))
		}
	}

	n := len(train.Rows)
	var positives float64
	for _, y := range train.Labels {
		positives += y
	}
	if positives == 0 || positives == float64(n) {
		return nil, fmt.Errorf("all train targets are equal")
	}
	prior := positives / float64(n)

	rng := rand.New(rand.NewSource(params.RandomSeed))
	model := &Model{Params: params, Features: make([]FeatureSpec, len(train.FeatureNames))}

	// encode every feature column to floats, then quantize
	nf := len(train.FeatureNames)
	st := &fitState{
		params:  params,
		lambda:  math.Max(params.L2LeafReg, 1e-12),
		bins:    make([][]uint8, nf),
		borders: make([][]float64, nf),
		labels:  train.Labels,
		weights: make([]float64, n),
	}
	column := make([]float64, n)
	for j, name := range train.FeatureNames {
		spec := FeatureSpec{Name: name, Categorical: train.Categorical[j]}
		if spec.Categorical {
			cells := make([]dataset.Value, n)
			for i := range train.Rows {
				cells[i] = train.Rows[i][j]
			}
			encoded, stats := orderedTargetStats(cells, train.Labels, prior, rng)
			copy(column, encoded)
			spec.Prior = prior
			spec.Categories = stats
		} else {
			for i := range train.Rows {
				column[i] = spec.encode(train.Rows[i][j])
			}
		}
		spec.Borders = computeBorders(column, params.BorderCount)
		st.borders[j] = spec.Borders
		st.bins[j] = make([]uint8, n)
		for i, v := range column {
			st.bins[j][i] = binIndex(spec.Borders, v)
		}
		model.Features[j] = spec
	}

	for i, y := range train.Labels {
		st.weights[i] = 1
		if y == 1 {
			st.weights[i] = params.ScalePosWeight
		}
	}

	evalX := make([][]float64, len(eval.Rows))
	for i, row := range eval.Rows {
		x, err := model.encode(row)
		if err != nil {
			return nil, fmt.Errorf("eval row %d: %w", i, err)
		}
		evalX[i] = x
	}

	b.logger.Info("fitting %d rows x %d features (eval %d rows, depth %d, lr %g, scale_pos_weight %.3f)",
		n, nf, len(eval.Rows), params.Depth, params.LearningRate, params.ScalePosWeight)

	raw := make([]float64, n)
	evalRaw := make([]float64, len(eval.Rows))
	grad := make([]float64, n)
	hess := make([]float64, n)
	gains := make([]float64, nf)
	treeGains := make([][]levelGain, 0, params.Iterations)

	bestAUC, bestIter := math.Inf(-1), -1
	monitored := false
	for iter := 0; iter < params.Iterations; iter++ {
		for i := range raw {
			p := sigmoid(raw[i])
			grad[i] = st.weights[i] * (p - st.labels[i])
			hess[i] = st.weights[i] * p * (1 - p)
		}
		sample := subsample(n, params.Subsample, rng)

		tree, leafOf, levels, err := b.growTree(st, grad, hess, sample)
		if err != nil {
			return nil, err
		}
		model.Trees = append(model.Trees, tree)
		treeGains = append(treeGains, levels)

		for i := range raw {
			raw[i] += tree.Leaves[leafOf[i]]
		}
		for i, x := range evalX {
			evalRaw[i] += tree.Leaves[tree.leafIndex(x)]
		}

		if len(evalX) == 0 {
			continue
		}
		auc, ok := evaluation.ROCAUC(eval.Labels, evalRaw)
		if !ok {
			continue
		}
		monitored = true
		if auc > bestAUC {
			bestAUC, bestIter = auc, iter
		}
		if iter%logEvery == 0 {
			b.logger.Info("iteration %d: eval AUC %.5f (best %.5f at %d)", iter, auc, bestAUC, bestIter)
		}
		if params.EarlyStoppingRounds > 0 && iter-bestIter >= params.EarlyStoppingRounds {
			b.logger.Info("early stopping at iteration %d, best AUC %.5f at %d", iter, bestAUC, bestIter)
			break
		}
	}

	if !monitored {
		bestIter = len(model.Trees) - 1
		if len(evalX) > 0 {
			b.logger.Warn("eval AUC undefined (single class); early stopping disabled")
		}
	}
	if params.UseBestModel && bestIter+1 < len(model.Trees) {
		model.Trees = model.Trees[:bestIter+1]
		treeGains = treeGains[:bestIter+1]
	}
	model.Best = bestIter

	for _, levels := range treeGains {
		for _, g := range levels {
			gains[g.feature] += g.gain
		}
	}
	model.Importance = normalize(gains)

	b.logger.Info("fitted %d trees (best iteration %d)", len(model.Trees), model.Best)
	return model, nil
}

type levelGain struct {
	feature int
	gain    float64
}

type splitCandidate struct {
	border int
	score  float64
	valid  bool
}

// growTree picks one split per level greedily, scoring each candidate by the sum over
// leaves of G^2/(H+lambda), then fits Newton leaf values on the sampled rows. It also
// returns the leaf reached by every training row.
func (b *Booster) growTree(st *fitState, grad, hess []float64, sample []int) (ObliviousTree, []int, []levelGain, error) {
	n := len(grad)
	nf := len(st.bins)
	leafOf := make([]int, n)
	var splits []Split
	var levels []levelGain

	for depth := 0; depth < st.params.Depth; depth++ {
		numLeaves := 1 << depth
		candidates := make([]splitCandidate, nf)

		g := new(errgroup.Group)
		g.SetLimit(b.workers)
		for f := 0; f < nf; f++ {
			g.Go(func() error {
				candidates[f] = bestBorder(st.bins[f], len(st.borders[f])+1, numLeaves, leafOf, grad, hess, sample, st.lambda)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return ObliviousTree{}, nil, nil, err
		}

		bestFeature := -1
		for f, c := range candidates {
			if c.valid && (bestFeature < 0 || c.score > candidates[bestFeature].score) {
				bestFeature = f
			}
		}
		if bestFeature < 0 {
			break
		}

		// parent score for the gain attributed to this level
		var parent float64
		G := make([]float64, numLeaves)
		H := make([]float64, numLeaves)
		for _, i := range sample {
			G[leafOf[i]] += grad[i]
			H[leafOf[i]] += hess[i]
		}
		for l := range G {
			parent += G[l] * G[l] / (H[l] + st.lambda)
		}

		c := candidates[bestFeature]
		splits = append(splits, Split{Feature: bestFeature, Border: st.borders[bestFeature][c.border]})
		levels = append(levels, levelGain{feature: bestFeature, gain: math.Max(c.score-parent, 0)})
		col := st.bins[bestFeature]
		threshold := uint8(c.border)
		for i := range leafOf {
			leafOf[i] <<= 1
			if col[i] > threshold {
				leafOf[i] |= 1
			}
		}
	}

	numLeaves := 1 << len(splits)
	G := make([]float64, numLeaves)
	H := make([]float64, numLeaves)
	for _, i := range sample {
		G[leafOf[i]] += grad[i]
		H[leafOf[i]] += hess[i]
	}
	tree := ObliviousTree{
		Splits: splits,
		Leaves: make([]float64, numLeaves),
		Covers: make([]float64, numLeaves),
	}
	for l := range tree.Leaves {
		tree.Leaves[l] = -G[l] / (H[l] + st.lambda) * st.params.LearningRate
	}
	for _, l := range leafOf {
		tree.Covers[l]++
	}
	return tree, leafOf, levels, nil
}

func bestBorder(col []uint8, numBins, numLeaves int, leafOf []int, grad, hess []float64, sample []int, lambda float64) splitCandidate {
	if numBins < 2 {
		return splitCandidate{}
	}
	hist := make([]float64, numLeaves*numBins*2)
	for _, i := range sample {
		k := (leafOf[i]*numBins + int(col[i])) * 2
		hist[k] += grad[i]
		hist[k+1] += hess[i]
	}
	totG := make([]float64, numLeaves)
	totH := make([]float64, numLeaves)
	for l := 0; l < numLeaves; l++ {
		for bin := 0; bin < numBins; bin++ {
			k := (l*numBins + bin) * 2
			totG[l] += hist[k]
			totH[l] += hist[k+1]
		}
	}

	best := splitCandidate{}
	cumG := make([]float64, numLeaves)
	cumH := make([]float64, numLeaves)
	for border := 0; border < numBins-1; border++ {
		var score float64
		for l := 0; l < numLeaves; l++ {
			k := (l*numBins + border) * 2
			cumG[l] += hist[k]
			cumH[l] += hist[k+1]
			gr, hr := totG[l]-cumG[l], totH[l]-cumH[l]
			score += cumG[l]*cumG[l]/(cumH[l]+lambda) + gr*gr/(hr+lambda)
		}
		if !best.valid || score > best.score {
			best = splitCandidate{border: border, score: score, valid: true}
		}
	}
	return best
}

func subsample(n int, rate float64, rng *rand.Rand) []int {
	sample := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if rate >= 1 || rng.Float64() < rate {
			sample = append(sample, i)
		}
	}
	if len(sample) == 0 {
		sample = append(sample, rng.Intn(n))
	}
	return sample
}

func normalize(gains []float64) []float64 {
	out := make([]float64, len(gains))
	var total float64
	for _, g := range gains {
		total += g
	}
	if total <= 0 {
		return out
	}
	for i, g := range gains {
		out[i] = g / total * 100
	}
	return out
}

func validateMatrix(m ports.TrainingMatrix) error {
	if len(m.Rows) == 0 {
		return fmt.Errorf("no rows")
	}
	if len(m.FeatureNames) == 0 {
		return fmt.Errorf("no features")
	}
	if len(m.Categorical) != len(m.FeatureNames) {
		return fmt.Errorf("categorical mask has %d entries for %d features", len(m.Categorical), len(m.FeatureNames))
	}
	if len(m.Labels) != len(m.Rows) {
		return fmt.Errorf("%d labels for %d rows", len(m.Labels), len(m.Rows))
	}
	for i, row := range m.Rows {
		if len(row) != len(m.FeatureNames) {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), len(m.FeatureNames))
		}
	}
	for i, y := range m.Labels {
		if y != 0 && y != 1 {
			return fmt.Errorf("label %g at row %d is not binary", y, i)
		}
	}
	return nil
}
