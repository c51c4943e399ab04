package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"fraudscore/ports"
)

// DefaultAnthropicModel is used when the anthropic provider is selected without a model
const DefaultAnthropicModel = "claude-sonnet-4-5"

// AnthropicClient generates text through the Anthropic Messages API
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicClient creates a Messages API client
func NewAnthropicClient(config Config) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithRequestTimeout(config.Timeout),
		option.WithMaxRetries(1),
	}
	if base := strings.TrimSpace(config.BaseURL); base != "" && base != DefaultBaseURL {
		opts = append(opts, option.WithBaseURL(base))
	}
	model := config.Model
	if model == "" || model == DefaultModel {
		model = DefaultAnthropicModel
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(config.MaxTokens),
	}
}

func (c *AnthropicClient) Model() string { return c.model }

func (c *AnthropicClient) ChatCompletion(ctx context.Context, system string, prompt string) (*ports.LLMResponse, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	usage := &ports.UsageData{
		PromptTokens:     int(message.Usage.InputTokens),
		CompletionTokens: int(message.Usage.OutputTokens),
		TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		Model:            string(message.Model),
		Provider:         ProviderAnthropic,
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			return &ports.LLMResponse{Content: strings.TrimSpace(block.Text), Usage: usage}, nil
		}
	}
	return nil, fmt.Errorf("no text content in Anthropic response")
}
