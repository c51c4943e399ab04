package coercer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fraudscore/domain/dataset"
)

// TypeCoercer handles deterministic type coercion of raw cells
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold"` // share of present values that must parse as numbers
	BooleanThreshold float64  `json:"boolean_threshold"` // share of present values that must parse as booleans
	NormalizeStrings bool     `json:"normalize_strings"` // whether to lower-case strings
	MissingTokens    []string `json:"missing_tokens"`    // cells read as missing
	LenientNumbers   bool     `json:"lenient_numbers"`   // accept currency, percent and grouped digits
}

// DefaultCoercionConfig mirrors how dataframe readers type a column: a column is numeric only
// when every present cell is a number.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0,
		BooleanThreshold: 1.0,
		NormalizeStrings: false,
		MissingTokens:    []string{"", "NA", "N/A", "NaN", "nan", "NULL", "null", "None", "<NA>"},
		LenientNumbers:   false,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// timestampFormats are tried in order when parsing date-like text
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02",
	"02-Jan-2006",
	"Jan 2 2006",
	"Jan 2, 2006",
}

// CoerceValue converts a single raw serving value to a typed Value
func (c *TypeCoercer) CoerceValue(rawValue interface{}) dataset.Value {
	switch v := rawValue.(type) {
	case nil:
		return dataset.NewMissingValue()
	case float64:
		return dataset.NewNumericValue(v)
	case float32:
		return dataset.NewNumericValue(float64(v))
	case int:
		return dataset.NewNumericValue(float64(v))
	case int64:
		return dataset.NewNumericValue(float64(v))
	case int32:
		return dataset.NewNumericValue(float64(v))
	case bool:
		if v {
			return dataset.NewNumericValue(1)
		}
		return dataset.NewNumericValue(0)
	case time.Time:
		return dataset.NewTimestampValue(v)
	}

	strVal := c.toString(rawValue)
	if c.IsMissingToken(strVal) {
		return dataset.NewMissingValue()
	}
	if numericVal, ok := c.tryParseNumeric(strVal); ok {
		return numericVal
	}
	return c.coerceToString(strVal)
}

// CoerceColumn types a whole column at once: numeric when enough cells parse as numbers,
// boolean columns become 0/1, anything else stays text.
func (c *TypeCoercer) CoerceColumn(raw []string) ([]dataset.Value, dataset.ValueType) {
	analysis := c.AnalyzeTypeDistribution(raw)
	out := make([]dataset.Value, len(raw))

	for i, cell := range raw {
		if c.IsMissingToken(cell) {
			out[i] = dataset.NewMissingValue()
			continue
		}
		switch analysis.RecommendedType {
		case dataset.ValueTypeNumeric:
			if v, ok := c.tryParseNumeric(cell); ok {
				out[i] = v
			} else if v, ok := c.tryParseBoolean(cell); ok {
				out[i] = v
			} else {
				out[i] = dataset.NewMissingValue()
			}
		default:
			out[i] = c.coerceToString(cell)
		}
	}

	return out, analysis.RecommendedType
}

// ParseTimestamp parses date-like text with the known formats
func (c *TypeCoercer) ParseTimestamp(strVal string) (time.Time, bool) {
	strVal = strings.TrimSpace(strVal)
	if strVal == "" {
		return time.Time{}, false
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, strVal); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsMissingToken reports whether a raw cell denotes a missing value
func (c *TypeCoercer) IsMissingToken(strVal string) bool {
	trimmed := strings.TrimSpace(strVal)
	for _, token := range c.config.MissingTokens {
		if trimmed == token {
			return true
		}
	}
	return false
}

// AnalyzeTypeDistribution analyzes a column to determine the best type coercion strategy
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{
		TotalCount: len(values),
	}

	for _, val := range values {
		if c.IsMissingToken(val) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.tryParseNumeric(val); ok {
			analysis.NumericCount++
		}
		if _, ok := c.tryParseBoolean(val); ok {
			analysis.BooleanCount++
		}
		if _, ok := c.ParseTimestamp(val); ok {
			analysis.TimestampCount++
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.BooleanRatio = float64(analysis.BooleanCount) / float64(analysis.ValidCount)
		analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(analysis.ValidCount)
	}

	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// coerceToString converts to a (optionally normalized) string value
func (c *TypeCoercer) coerceToString(strVal string) dataset.Value {
	strVal = strings.TrimSpace(strVal)
	if c.config.NormalizeStrings {
		strVal = c.normalizeString(strVal)
	}
	return dataset.NewStringValue(strVal)
}

// tryParseNumeric attempts to parse as numeric. In lenient mode it also handles
// parentheses for negatives, European decimals and currency symbols.
func (c *TypeCoercer) tryParseNumeric(strVal string) (dataset.Value, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return dataset.Value{}, false
	}

	if c.config.LenientNumbers {
		cleanVal = c.normalizeNumber(cleanVal)
	}

	if val, err := strconv.ParseFloat(cleanVal, 64); err == nil {
		if !math.IsInf(val, 0) && !math.IsNaN(val) {
			return dataset.NewNumericValue(val), true
		}
	}

	return dataset.Value{}, false
}

func (c *TypeCoercer) normalizeNumber(cleanVal string) string {
	// Handle parentheses for negative numbers: (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	hasSpace := strings.Contains(cleanVal, " ")

	if hasComma && (hasPeriod || hasSpace) {
		commaIdx := strings.LastIndex(cleanVal, ",")
		if commaIdx > strings.LastIndex(cleanVal, ".") {
			// 1.234,56 or 1 234,56
			cleanVal = strings.ReplaceAll(cleanVal, ".", "")
			cleanVal = strings.ReplaceAll(cleanVal, " ", "")
			cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
		} else {
			cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		}
	} else {
		cleanVal = strings.ReplaceAll(cleanVal, ",", "")
		cleanVal = strings.ReplaceAll(cleanVal, " ", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}
	return cleanVal
}

// tryParseBoolean parses true/false style text into 1/0
func (c *TypeCoercer) tryParseBoolean(strVal string) (dataset.Value, bool) {
	switch strings.ToLower(strings.TrimSpace(strVal)) {
	case "true", "yes":
		return dataset.NewNumericValue(1), true
	case "false", "no":
		return dataset.NewNumericValue(0), true
	}
	return dataset.Value{}, false
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeString applies deterministic string normalization
func (c *TypeCoercer) normalizeString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// toString converts interface{} to string safely
func (c *TypeCoercer) toString(val interface{}) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// determineRecommendedType chooses numeric when numbers (or booleans) dominate, text otherwise.
// Date-like text stays text here; the splitter decides whether to read it as time.
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.ValueType {
	if analysis.ValidCount == 0 {
		return dataset.ValueTypeNumeric
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return dataset.ValueTypeNumeric
	}
	if analysis.BooleanRatio >= c.config.BooleanThreshold {
		return dataset.ValueTypeNumeric
	}
	return dataset.ValueTypeString
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int               `json:"total_count"`
	ValidCount      int               `json:"valid_count"`
	NumericCount    int               `json:"numeric_count"`
	BooleanCount    int               `json:"boolean_count"`
	TimestampCount  int               `json:"timestamp_count"`
	NumericRatio    float64           `json:"numeric_ratio"`
	BooleanRatio    float64           `json:"boolean_ratio"`
	TimestampRatio  float64           `json:"timestamp_ratio"`
	RecommendedType dataset.ValueType `json:"recommended_type"`
}
