package ports

import (
	"context"

	"fraudscore/domain/scoring"
)

// UsageData represents raw usage data from LLM provider APIs
type UsageData struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
	Provider         string `json:"provider"`
}

// LLMResponse represents an LLM response with usage data
type LLMResponse struct {
	Content string
	Usage   *UsageData
}

// LLMClient is a chat-style text generation provider
type LLMClient interface {
	ChatCompletion(ctx context.Context, system string, prompt string) (*LLMResponse, error)
	Model() string
}

// Narrator turns an explanation payload into analyst-facing text.
// Implementations never fail: provider problems degrade to a placeholder text.
type Narrator interface {
	Narrate(ctx context.Context, payload scoring.ExplanationPayload) string
}
