package testkit

import (
	"testing"

	"fraudscore/domain/dataset"
)

func TestFraudDataGenerator_Basic(t *testing.T) {
	ds, err := NewFraudDataGenerator(DefaultFraudConfig()).Generate()
	if err != nil {
		t.Fatalf("Failed to generate dataset: %v", err)
	}
	if ds.NumRows() != 1000 {
		t.Fatalf("Expected 1000 rows, got %d", ds.NumRows())
	}

	labels, _ := ds.Column("is_fraud")
	amounts, _ := ds.Column("amount")
	var positives, highPositives, high int
	for i, y := range labels {
		if y.Num == 1 {
			positives++
		}
		if amounts[i].Num > 250 {
			high++
			if y.Num == 1 {
				highPositives++
			}
		}
	}
	if positives == 0 || positives > 200 {
		t.Errorf("Unexpected positive count %d", positives)
	}
	if high > 0 && float64(highPositives)/float64(high) < 0.15 {
		t.Errorf("High amounts should be defrauded far more often: %d/%d", highPositives, high)
	}
	if ds.ColumnKind("merchant_category") != dataset.KindCategorical {
		t.Error("merchant_category should be categorical")
	}
}

func TestFraudDataGenerator_Deterministic(t *testing.T) {
	a, _ := FraudDataset(50, 7)
	b, _ := FraudDataset(50, 7)
	for i := 0; i < a.NumRows(); i++ {
		for c := range a.Columns() {
			if a.Value(i, c) != b.Value(i, c) {
				t.Fatalf("Row %d column %d differs between runs", i, c)
			}
		}
	}
}

func TestFraudDataGenerator_Options(t *testing.T) {
	config := DefaultFraudConfig()
	config.Rows = 20
	config.AnonymizedCount = 3
	config.WithTimestamps = true
	ds, err := NewFraudDataGenerator(config).Generate()
	if err != nil {
		t.Fatalf("Failed to generate dataset: %v", err)
	}
	want := []string{"transaction_time", "V1", "V2", "V3", "amount", "hour", "merchant_category", "is_international", "is_fraud"}
	got := ds.Columns()
	if len(got) != len(want) {
		t.Fatalf("Expected columns %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Column %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if ds.ColumnKind("transaction_time") != dataset.KindTimestamp {
		t.Error("transaction_time should be a timestamp column")
	}
}
