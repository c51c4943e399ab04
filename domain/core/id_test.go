package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	emptyID := ID("")
	if !emptyID.IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}

	nonEmptyID := ID("not-empty")
	if nonEmptyID.IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		expected RunID
		hasError bool
	}{
		{"run-1", RunID("run-1"), false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseRunID(tt.input)
			if tt.hasError && err == nil {
				t.Errorf("Expected error for input %q", tt.input)
			}
			if !tt.hasError && err != nil {
				t.Errorf("Unexpected error for input %q: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestDatasetFingerprint(t *testing.T) {
	a := ComputeDatasetFingerprint([]string{"amount", "is_fraud"}, 10)
	b := ComputeDatasetFingerprint([]string{"amount", "is_fraud"}, 10)
	c := ComputeDatasetFingerprint([]string{"is_fraud", "amount"}, 10)
	d := ComputeDatasetFingerprint([]string{"amount", "is_fraud"}, 11)

	if a != b {
		t.Errorf("Expected identical fingerprints, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected column order to change the fingerprint")
	}
	if a == d {
		t.Error("Expected row count to change the fingerprint")
	}
	if len(Hash(a).Short()) != 12 {
		t.Errorf("Expected 12 char short hash, got %q", Hash(a).Short())
	}
}

func TestErrorKinds(t *testing.T) {
	if !IsSchemaError(NewSchemaError("one column")) {
		t.Error("Expected schema error to be detected")
	}
	if !IsFatal(NewNonBinaryTargetError("fraud", "maybe")) {
		t.Error("Expected non-binary target to be fatal")
	}
	if IsFatal(ErrAlignment) || !IsRecoverable(ErrAlignment) {
		t.Error("Expected alignment warning to be recoverable")
	}
	if IsNotFoundError(ErrExternalService) {
		t.Error("Expected external service error not to be a not-found error")
	}
}
