package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fraudscore/domain/scoring"
	"fraudscore/internal"
	apperrors "fraudscore/internal/errors"
	"fraudscore/ports"
)

// Placeholder texts returned instead of an error
const (
	PlaceholderNotConfigured = "Note: no LLM API key configured. The explanation text could not be generated."
	PlaceholderUnavailable   = "Note: the explanation service is unavailable. The explanation text could not be generated."
)

// Fallback reasons reported to the fallback hook
const (
	FallbackNotConfigured = "not_configured"
	FallbackError         = "error"
	FallbackEmpty         = "empty"
)

const systemPrompt = "You are an expert in banking fraud detection and cybersecurity."

// Narrator explains model decisions to analysts through an LLM. Narrate never fails;
// provider problems are logged and replaced by a placeholder.
type Narrator struct {
	client     ports.LLMClient
	logger     *internal.Logger
	now        func() time.Time
	onFallback func(reason string, err error)
}

var _ ports.Narrator = (*Narrator)(nil)

// NarratorOption customises a Narrator
type NarratorOption func(*Narrator)

// WithClock overrides the footer clock
func WithClock(now func() time.Time) NarratorOption {
	return func(n *Narrator) { n.now = now }
}

// WithFallbackHook is called every time a placeholder is returned, with the reason and
// the EXTERNAL_SERVICE_ERROR that caused it
func WithFallbackHook(hook func(reason string, err error)) NarratorOption {
	return func(n *Narrator) { n.onFallback = hook }
}

// NewNarrator creates a narrator. A nil client means text generation is not configured.
func NewNarrator(client ports.LLMClient, logger *internal.Logger, opts ...NarratorOption) *Narrator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	n := &Narrator{client: client, logger: logger.WithComponent("Narrator"), now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewNarratorFromConfig builds the client from config; a missing key yields a narrator
// that always returns the not-configured placeholder.
func NewNarratorFromConfig(config Config, logger *internal.Logger, opts ...NarratorOption) (*Narrator, error) {
	client, err := NewClient(config)
	if errors.Is(err, ErrMissingAPIKey) {
		return NewNarrator(nil, logger, opts...), nil
	}
	if err != nil {
		return nil, err
	}
	return NewNarrator(client, logger, opts...), nil
}

// Configured reports whether a provider client is present
func (n *Narrator) Configured() bool { return n.client != nil }

// Narrate returns the explanation text followed by an audit footer
func (n *Narrator) Narrate(ctx context.Context, payload scoring.ExplanationPayload) string {
	if n.client == nil {
		n.fallback(FallbackNotConfigured, apperrors.ExternalServiceError("llm", ErrMissingAPIKey))
		return PlaceholderNotConfigured
	}

	resp, err := n.client.ChatCompletion(ctx, systemPrompt, BuildPrompt(payload))
	if err != nil {
		n.fallback(FallbackError, apperrors.ExternalServiceError("llm", err))
		return PlaceholderUnavailable
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		n.fallback(FallbackEmpty, apperrors.ExternalServiceError("llm", errEmptyCompletion))
		return PlaceholderUnavailable
	}

	model := n.client.Model()
	if resp.Usage != nil {
		if resp.Usage.Model != "" {
			model = resp.Usage.Model
		}
		n.logger.Debug("explanation generated with %s (%d prompt, %d completion tokens)",
			model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	}
	return text + Footer(model, n.now(), payload.RiskScore)
}

var errEmptyCompletion = errors.New("completion has no text")

func (n *Narrator) fallback(reason string, err error) {
	if reason != FallbackNotConfigured {
		n.logger.Warn("explanation generation failed: %v", err)
	}
	if n.onFallback != nil {
		n.onFallback(reason, err)
	}
}

// Footer is the audit line appended to generated explanations
func Footer(model string, at time.Time, score float64) string {
	return fmt.Sprintf("\n\n*Audit LLM: v.%s | generated %s | Score: %.2f*", model, at.Format("2006-01-02 15:04:05"), score)
}

// BuildPrompt renders the analyst prompt for one payload
func BuildPrompt(payload scoring.ExplanationPayload) string {
	features := make([]string, len(payload.TopFeatures))
	for i, f := range payload.TopFeatures {
		features[i] = fmt.Sprintf("%s (contribution: %.4f)", f.Feature, f.Value)
	}

	var b strings.Builder
	b.WriteString("As a fraud detection expert, explain this gradient boosting model decision to an analyst.\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString("- Transaction type: card payment\n")
	fmt.Fprintf(&b, "- Risk score: %.4f\n", payload.RiskScore)
	fmt.Fprintf(&b, "- Risk level: %s\n", payload.Severity)
	fmt.Fprintf(&b, "- Model decision: %s\n", payload.Decision)
	fmt.Fprintf(&b, "- Main variables (SHAP values): %s\n\n", strings.Join(features, ", "))
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Explain why the model reached this decision based on the variables provided.\n")
	b.WriteString("2. Be concise (4-5 sentences at most).\n")
	b.WriteString("3. Use a professional, educational tone.\n\n")
	b.WriteString("Explain the decision:")
	return b.String()
}
