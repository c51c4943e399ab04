// Package serving maps raw records onto the model's feature vector and derives the
// secondary indices reported with each score.
package serving

import (
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"fraudscore/adapters/datareadiness/coercer"
	"fraudscore/domain/dataset"
	"fraudscore/domain/scoring"
	"fraudscore/internal"
)

// DefaultDeviationPrefix names the anonymised numeric columns the deviation index covers
const DefaultDeviationPrefix = "V"

// DefaultReferenceRows caps how many training rows feed the reference distribution
const DefaultReferenceRows = 10000

// Adapter aligns serving records. It holds no mutable state and is safe for concurrent use.
type Adapter struct {
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
}

// NewAdapter creates a serving adapter
func NewAdapter(logger *internal.Logger) *Adapter {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Adapter{
		coercer: coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()),
		logger:  logger.WithComponent("ServingAdapter"),
	}
}

// Align returns one value per schema feature, in schema order. Absent features default to
// 0.0 and keys outside the schema are dropped; neither is an error. Numeric features that
// cannot be read as numbers also default to 0.0. Everything defaulted or dropped is listed
// in the report.
func (a *Adapter) Align(record scoring.Record, schema *scoring.Schema) ([]dataset.Value, scoring.AlignmentReport) {
	var report scoring.AlignmentReport
	row := make([]dataset.Value, len(schema.FeatureColumns))

	for i, name := range schema.FeatureColumns {
		raw, ok := record[name]
		if !ok {
			report.Missing = append(report.Missing, name)
			row[i] = dataset.NewNumericValue(0.0)
			continue
		}
		if schema.IsCategorical(name) {
			row[i] = a.categorical(raw)
			continue
		}
		v, valid := a.numeric(raw)
		if !valid {
			report.Invalid = append(report.Invalid, name)
			v = dataset.NewNumericValue(0.0)
		}
		row[i] = v
	}

	known := make(map[string]bool, len(schema.FeatureColumns))
	for _, name := range schema.FeatureColumns {
		known[name] = true
	}
	for key := range record {
		if !known[key] {
			report.Unknown = append(report.Unknown, key)
		}
	}
	sort.Strings(report.Unknown)

	if !report.Clean() {
		a.logger.Warn("record alignment defaulted %d missing, %d invalid and dropped %d unknown fields (missing=%v invalid=%v unknown=%v)",
			len(report.Missing), len(report.Invalid), len(report.Unknown), report.Missing, report.Invalid, report.Unknown)
	}
	return row, report
}

func (a *Adapter) categorical(raw interface{}) dataset.Value {
	if s, ok := raw.(string); ok {
		if a.coercer.IsMissingToken(s) {
			return dataset.NewMissingValue()
		}
		return dataset.NewStringValue(s)
	}
	return a.coercer.CoerceValue(raw)
}

func (a *Adapter) numeric(raw interface{}) (dataset.Value, bool) {
	v := a.coercer.CoerceValue(raw)
	if !v.IsString() {
		return v, true
	}
	if t, ok := a.coercer.ParseTimestamp(v.Str); ok {
		return dataset.NewTimestampValue(t), true
	}
	return v, false
}

// ConfidenceLabel grades a score by its distance from 0.5, scaled to [0, 1]
func ConfidenceLabel(score float64) scoring.ConfidenceLabel {
	distance := math.Abs(score-0.5) * 2
	switch {
	case distance > 0.8:
		return scoring.ConfidenceHigh
	case distance > 0.4:
		return scoring.ConfidenceMedium
	default:
		return scoring.ConfidenceLow
	}
}

// DeviationIndex is the mean absolute z-score of the record over the reference columns.
// Missing values and columns without spread are skipped; with nothing to compare it is 0.
func DeviationIndex(row []dataset.Value, schema *scoring.Schema, ref *scoring.ReferenceDistribution) float64 {
	if ref == nil || len(ref.Columns) == 0 {
		return 0
	}
	var z stats.Float64Data
	for i, name := range schema.FeatureColumns {
		cs, ok := ref.Columns[name]
		if !ok || i >= len(row) {
			continue
		}
		if cs.Std == 0 || math.IsNaN(cs.Std) || math.IsNaN(cs.Mean) {
			continue
		}
		x, ok := row[i].Float()
		if !ok || !row[i].IsNumeric() {
			continue
		}
		z = append(z, math.Abs(x-cs.Mean)/cs.Std)
	}
	if len(z) == 0 {
		return 0
	}
	mean, err := z.Mean()
	if err != nil {
		return 0
	}
	return mean
}

// BuildReference summarises the numeric features whose names start with prefix over at
// most maxRows leading rows of ds.
func BuildReference(ds *dataset.Dataset, schema *scoring.Schema, prefix string, maxRows int) *scoring.ReferenceDistribution {
	n := ds.NumRows()
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	ref := &scoring.ReferenceDistribution{Prefix: prefix, Columns: make(map[string]scoring.ColumnStats), Rows: n}

	for _, name := range schema.NumericColumns() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		c, ok := ds.ColumnIndex(name)
		if !ok {
			continue
		}
		values := make(stats.Float64Data, 0, n)
		for i := 0; i < n; i++ {
			v := ds.Value(i, c)
			if v.IsNumeric() {
				values = append(values, v.Num)
			}
		}
		if len(values) == 0 {
			continue
		}
		mean, _ := values.Mean()
		var std float64
		if len(values) > 1 {
			std, _ = stats.StandardDeviationSample(values)
		}
		ref.Columns[name] = scoring.ColumnStats{Mean: mean, Std: std}
	}
	return ref
}
