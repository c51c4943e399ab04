package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"fraudscore/domain/dataset"
)

// FraudGeneratorConfig configures the synthetic transaction generator
type FraudGeneratorConfig struct {
	Rows             int       `json:"rows"`
	AmountMean       float64   `json:"amount_mean"`
	BaseFraudRate    float64   `json:"base_fraud_rate"`
	HighAmountCutoff float64   `json:"high_amount_cutoff"`
	HighAmountRate   float64   `json:"high_amount_rate"`
	AnonymizedCount  int       `json:"anonymized_count"` // V1..Vn columns, 0 to omit
	WithTimestamps   bool      `json:"with_timestamps"`
	StartDate        time.Time `json:"start_date"`
	Seed             int64     `json:"seed"`
}

// DefaultFraudConfig is 1000 rows at a 5% base rate, with amounts above 250 defrauded 40%
// of the time
func DefaultFraudConfig() FraudGeneratorConfig {
	return FraudGeneratorConfig{
		Rows:             1000,
		AmountMean:       100,
		BaseFraudRate:    0.05,
		HighAmountCutoff: 250,
		HighAmountRate:   0.4,
		StartDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Seed:             42,
	}
}

// MerchantCategories are the values of the merchant_category column
var MerchantCategories = []string{"retail", "online", "travel", "food"}

// FraudDataGenerator produces labeled card transactions with a known amount signal
type FraudDataGenerator struct {
	config FraudGeneratorConfig
	rng    *rand.Rand
}

// NewFraudDataGenerator creates a generator
func NewFraudDataGenerator(config FraudGeneratorConfig) *FraudDataGenerator {
	return &FraudDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Columns lists the generated columns in table order
func (g *FraudDataGenerator) Columns() []string {
	var cols []string
	if g.config.WithTimestamps {
		cols = append(cols, "transaction_time")
	}
	for i := 1; i <= g.config.AnonymizedCount; i++ {
		cols = append(cols, fmt.Sprintf("V%d", i))
	}
	return append(cols, "amount", "hour", "merchant_category", "is_international", "is_fraud")
}

// Generate builds the dataset
func (g *FraudDataGenerator) Generate() (*dataset.Dataset, error) {
	ds, err := dataset.New(g.Columns())
	if err != nil {
		return nil, err
	}
	at := g.config.StartDate
	for i := 0; i < g.config.Rows; i++ {
		amount := g.rng.ExpFloat64() * g.config.AmountMean
		p := g.config.BaseFraudRate
		if amount > g.config.HighAmountCutoff {
			p = g.config.HighAmountRate
		}
		label := 0.0
		if g.rng.Float64() < p {
			label = 1
		}

		row := make([]dataset.Value, 0, len(g.Columns()))
		if g.config.WithTimestamps {
			at = at.Add(time.Duration(1+g.rng.Intn(3600)) * time.Second)
			row = append(row, dataset.NewTimestampValue(at))
		}
		for v := 0; v < g.config.AnonymizedCount; v++ {
			x := g.rng.NormFloat64()
			if label == 1 && v == 0 {
				x += 2
			}
			row = append(row, dataset.NewNumericValue(x))
		}
		international := 0.0
		if g.rng.Float64() < 0.1 {
			international = 1
		}
		row = append(row,
			dataset.NewNumericValue(amount),
			dataset.NewNumericValue(float64(g.rng.Intn(24))),
			dataset.NewStringValue(MerchantCategories[g.rng.Intn(len(MerchantCategories))]),
			dataset.NewNumericValue(international),
			dataset.NewNumericValue(label),
		)
		if err := ds.Append(row); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// FraudDataset is a shorthand for generating with DefaultFraudConfig and the given seed
func FraudDataset(rows int, seed int64) (*dataset.Dataset, error) {
	config := DefaultFraudConfig()
	config.Rows = rows
	config.Seed = seed
	return NewFraudDataGenerator(config).Generate()
}
