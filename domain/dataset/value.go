package dataset

import (
	"math"
	"strconv"
	"time"
)

// ValueType defines the storage type for a cell
type ValueType string

const (
	ValueTypeNumeric   ValueType = "numeric"
	ValueTypeString    ValueType = "string"
	ValueTypeTimestamp ValueType = "timestamp"
	ValueTypeMissing   ValueType = "missing"
)

// Value is one typed cell of a table or of a serving record
type Value struct {
	Type ValueType `json:"type"`
	Num  float64   `json:"num,omitempty"`
	Str  string    `json:"str,omitempty"`
	Time time.Time `json:"time,omitempty"`
}

// NewNumericValue creates a numeric value; NaN is stored as missing
func NewNumericValue(n float64) Value {
	if math.IsNaN(n) {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeNumeric, Num: n}
}

// NewStringValue creates a string value; the empty string is missing
func NewStringValue(s string) Value {
	if s == "" {
		return NewMissingValue()
	}
	return Value{Type: ValueTypeString, Str: s}
}

// NewTimestampValue creates a timestamp value
func NewTimestampValue(t time.Time) Value {
	return Value{Type: ValueTypeTimestamp, Time: t}
}

// NewMissingValue creates a missing value
func NewMissingValue() Value {
	return Value{Type: ValueTypeMissing}
}

func (v Value) IsMissing() bool   { return v.Type == ValueTypeMissing || v.Type == "" }
func (v Value) IsNumeric() bool   { return v.Type == ValueTypeNumeric }
func (v Value) IsString() bool    { return v.Type == ValueTypeString }
func (v Value) IsTimestamp() bool { return v.Type == ValueTypeTimestamp }

// Float returns the value on a numeric scale. Timestamps map to unix seconds.
func (v Value) Float() (float64, bool) {
	switch v.Type {
	case ValueTypeNumeric:
		return v.Num, true
	case ValueTypeTimestamp:
		return float64(v.Time.UnixNano()) / 1e9, true
	default:
		return math.NaN(), false
	}
}

// String returns the canonical text form used for category keys and file output
func (v Value) String() string {
	switch v.Type {
	case ValueTypeNumeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValueTypeString:
		return v.Str
	case ValueTypeTimestamp:
		return v.Time.Format(time.RFC3339)
	default:
		return ""
	}
}

// Interface returns a JSON friendly representation
func (v Value) Interface() interface{} {
	switch v.Type {
	case ValueTypeNumeric:
		return v.Num
	case ValueTypeString:
		return v.Str
	case ValueTypeTimestamp:
		return v.Time.Format(time.RFC3339)
	default:
		return nil
	}
}
