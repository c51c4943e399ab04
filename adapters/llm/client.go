package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"fraudscore/ports"
)

// Providers understood by NewClient
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Defaults of the OpenAI compatible provider
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 300
	DefaultTimeout     = 10 * time.Second
)

// Config selects and configures a text generation provider
type Config struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ErrMissingAPIKey is returned by NewClient when no key is configured
var ErrMissingAPIKey = fmt.Errorf("missing LLM API key")

// NewClient creates an LLM client based on config
func NewClient(config Config) (ports.LLMClient, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultMaxTokens
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	switch strings.ToLower(config.Provider) {
	case "", ProviderGroq, ProviderOpenAI:
		baseURL := strings.TrimSpace(config.BaseURL)
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		model := config.Model
		if model == "" {
			model = DefaultModel
		}
		return &OpenAIClient{
			APIKey:      config.APIKey,
			BaseURL:     baseURL,
			ModelName:   model,
			Timeout:     config.Timeout,
			Temperature: config.Temperature,
			MaxTokens:   config.MaxTokens,
		}, nil
	case ProviderAnthropic:
		return NewAnthropicClient(config), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", config.Provider)
	}
}

// OpenAIClient talks to any OpenAI compatible chat completions endpoint (Groq by default)
type OpenAIClient struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

func (c *OpenAIClient) Model() string { return c.ModelName }

func (c *OpenAIClient) ChatCompletion(ctx context.Context, system string, prompt string) (*ports.LLMResponse, error) {
	// kept minimal: one system + one user message
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: c.ModelName,
		Messages: []msg{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat completion http %d: %s", resp.StatusCode, string(respRaw))
	}
	if !gjson.ValidBytes(respRaw) {
		return nil, fmt.Errorf("chat completion response is not JSON")
	}

	content := gjson.GetBytes(respRaw, "choices.0.message.content")
	if !content.Exists() {
		return nil, fmt.Errorf("chat completion response missing choices")
	}
	model := gjson.GetBytes(respRaw, "model").String()
	if model == "" {
		model = c.ModelName
	}
	return &ports.LLMResponse{
		Content: strings.TrimSpace(content.String()),
		Usage: &ports.UsageData{
			PromptTokens:     int(gjson.GetBytes(respRaw, "usage.prompt_tokens").Int()),
			CompletionTokens: int(gjson.GetBytes(respRaw, "usage.completion_tokens").Int()),
			TotalTokens:      int(gjson.GetBytes(respRaw, "usage.total_tokens").Int()),
			Model:            model,
			Provider:         ProviderOpenAI,
		},
	}, nil
}
