package scoring

// Severity is the coarse risk tier handed to the narrator
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Decision is the human readable verdict
type Decision string

const (
	DecisionFraud      Decision = "FRAUD"
	DecisionLegitimate Decision = "LEGITIMATE"
)

// SeverityFor maps a risk score to its tier
func SeverityFor(score float64) Severity {
	switch {
	case score > 0.7:
		return SeverityHigh
	case score > 0.3:
		return SeverityModerate
	default:
		return SeverityLow
	}
}

// DecisionFor maps a hard prediction to its verdict
func DecisionFor(prediction int) Decision {
	if prediction == 1 {
		return DecisionFraud
	}
	return DecisionLegitimate
}

// ExplanationPayload is the structured input of the explanation text generator
type ExplanationPayload struct {
	RiskScore   float64     `json:"risk_score"`
	Severity    Severity    `json:"severity"`
	Decision    Decision    `json:"decision"`
	TopFeatures Attribution `json:"top_features"`
}

// NewExplanationPayload derives severity and decision from the score and prediction
func NewExplanationPayload(score float64, prediction int, top Attribution) ExplanationPayload {
	return ExplanationPayload{
		RiskScore:   score,
		Severity:    SeverityFor(score),
		Decision:    DecisionFor(prediction),
		TopFeatures: top,
	}
}
