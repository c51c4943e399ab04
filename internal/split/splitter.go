// Package split partitions a labeled table into train and evaluation subsets.
package split

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"fraudscore/adapters/datareadiness/coercer"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
)

// Config controls the split policy
type Config struct {
	TrainRatio float64 // share of rows kept for training
	RandomSeed int64   // seed of the stratified shuffle
}

// DefaultConfig is an 80/20 split with seed 42
func DefaultConfig() Config {
	return Config{
		TrainRatio: 0.8,
		RandomSeed: 42,
	}
}

// Splitter prefers a chronological cutoff and falls back to a stratified random split
type Splitter struct {
	config  Config
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewSplitter creates a splitter
func NewSplitter(config Config, logger *internal.Logger) *Splitter {
	if config.TrainRatio <= 0 || config.TrainRatio >= 1 {
		config.TrainRatio = 0.8
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Splitter{
		config:  config,
		coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
		logger:  logger.WithComponent("Splitter"),
	}
}

// Split partitions ds. The input dataset is not modified.
func (s *Splitter) Split(ds *dataset.Dataset, schema *scoring.Schema) (*scoring.Split, error) {
	if column, keys, ok := s.findTimeColumn(ds); ok {
		s.logger.Info("temporal split detected on: %s", column)
		return s.temporalSplit(ds, column, keys), nil
	}

	s.logger.Info("performing stratified split on %s", schema.TargetColumn)
	return s.stratifiedSplit(ds, schema.TargetColumn)
}

// findTimeColumn returns the first timestamp-typed column; failing that, the first column
// whose name mentions date or time and whose every present value parses as a time.
func (s *Splitter) findTimeColumn(ds *dataset.Dataset) (string, []*float64, bool) {
	columns := ds.Columns()

	for _, col := range columns {
		if ds.ColumnKind(col) != dataset.KindTimestamp {
			continue
		}
		if keys, ok := s.parseColumn(ds, col); ok {
			return col, keys, true
		}
	}

	for _, col := range columns {
		lower := strings.ToLower(col)
		if !strings.Contains(lower, "date") && !strings.Contains(lower, "time") {
			continue
		}
		if keys, ok := s.parseColumn(ds, col); ok {
			return col, keys, true
		}
		s.logger.Debug("column %s looks temporal but does not parse", col)
	}

	return "", nil, false
}

// parseColumn reads a column as sort keys. Numbers are used as they are, so a numeric
// elapsed-time column orders like its values; times become fractional unix seconds.
// Missing cells become nil.
func (s *Splitter) parseColumn(ds *dataset.Dataset, col string) ([]*float64, bool) {
	c, _ := ds.ColumnIndex(col)
	keys := make([]*float64, ds.NumRows())
	for i := range keys {
		v := ds.Value(i, c)
		var key float64
		switch {
		case v.IsMissing():
			continue
		case v.IsTimestamp():
			key = unixSeconds(v.Time)
		case v.IsNumeric():
			if math.IsInf(v.Num, 0) || math.IsNaN(v.Num) {
				return nil, false
			}
			key = v.Num
		default:
			parsed, ok := s.coercer.ParseTimestamp(v.Str)
			if !ok {
				return nil, false
			}
			key = unixSeconds(parsed)
		}
		keys[i] = &key
	}
	return keys, true
}

func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// temporalSplit sorts rows by time (missing times last, ties in table order) and cuts at the train ratio
func (s *Splitter) temporalSplit(ds *dataset.Dataset, column string, keys []*float64) *scoring.Split {
	order := make([]int, ds.NumRows())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		switch {
		case ka == nil:
			return false
		case kb == nil:
			return true
		default:
			return *ka < *kb
		}
	})

	cut := int(float64(len(order)) * s.config.TrainRatio)
	s.logger.Info("temporal cutoff at row %d of %d", cut, len(order))

	return &scoring.Split{
		Train:      ds.Subset(order[:cut]),
		Eval:       ds.Subset(order[cut:]),
		Strategy:   scoring.SplitTemporal,
		TimeColumn: column,
	}
}

// stratifiedSplit keeps the label proportions in both subsets. The evaluation size is
// ceil(n * (1 - ratio)); it is spread over the strata by largest remainder.
func (s *Splitter) stratifiedSplit(ds *dataset.Dataset, target string) (*scoring.Split, error) {
	labels, err := ds.Column(target)
	if err != nil {
		return nil, err
	}

	strata := make(map[string][]int)
	for i, v := range labels {
		key := v.String()
		strata[key] = append(strata[key], i)
	}
	keys := make([]string, 0, len(strata))
	for k := range strata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := ds.NumRows()
	evalTotal := int(math.Ceil(float64(n)*(1-s.config.TrainRatio) - 1e-9))
	evalSizes := allocate(keys, strata, n, evalTotal)

	rng := rand.New(rand.NewSource(s.config.RandomSeed))
	var trainIdx, evalIdx []int
	for _, key := range keys {
		members := make([]int, len(strata[key]))
		copy(members, strata[key])
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		k := evalSizes[key]
		evalIdx = append(evalIdx, members[:k]...)
		trainIdx = append(trainIdx, members[k:]...)
	}

	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(evalIdx), func(i, j int) { evalIdx[i], evalIdx[j] = evalIdx[j], evalIdx[i] })

	s.logger.Info("stratified split: %d train / %d eval across %d strata", len(trainIdx), len(evalIdx), len(keys))

	return &scoring.Split{
		Train:    ds.Subset(trainIdx),
		Eval:     ds.Subset(evalIdx),
		Strategy: scoring.SplitStratified,
	}, nil
}

// allocate spreads total evaluation rows over the strata in proportion to their size
func allocate(keys []string, strata map[string][]int, n, total int) map[string]int {
	sizes := make(map[string]int, len(keys))
	if n == 0 {
		return sizes
	}

	type remainder struct {
		key  string
		frac float64
	}
	var rems []remainder
	assigned := 0
	for _, key := range keys {
		exact := float64(total) * float64(len(strata[key])) / float64(n)
		whole := int(math.Floor(exact))
		sizes[key] = whole
		assigned += whole
		rems = append(rems, remainder{key: key, frac: exact - float64(whole)})
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := 0; assigned < total && i < len(rems); i++ {
		if sizes[rems[i].key] < len(strata[rems[i].key]) {
			sizes[rems[i].key]++
			assigned++
		}
	}
	return sizes
}
