package llm

import (
	"context"
	"net/http"
	"os"
	"strings"
)

const (
	anthropicURL          = "https://api.anthropic.com/v1/messages"
	anthropicVersion      = "2023-06-01"
	defaultAnthropicModel = "claude-3-5-sonnet-latest"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	Model      string // overrides ANTHROPIC_MODEL
	BaseURL    string // for tests
	HTTPClient *http.Client
}

var _ Provider = (*AnthropicProvider)(nil)

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *AnthropicProvider) Configured() bool {
	return os.Getenv("ANTHROPIC_API_KEY") != ""
}

// GenerateResponse sends a single-turn message and concatenates the text blocks of the reply.
func (p *AnthropicProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := optString(options, "api_key", os.Getenv("ANTHROPIC_API_KEY"))
	if apiKey == "" {
		return "", missingKey("ANTHROPIC", "ANTHROPIC_API_KEY")
	}

	model := p.Model
	if model == "" {
		model = os.Getenv("ANTHROPIC_MODEL")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	model = optString(options, "model", model)

	url := anthropicURL
	if p.BaseURL != "" {
		url = strings.TrimRight(p.BaseURL, "/") + "/v1/messages"
	}

	reqBody := anthropicRequest{
		Model:       model,
		MaxTokens:   optInt(options, "max_tokens", DefaultMaxTokens),
		Temperature: optFloat(options, "temperature", DefaultTemperature),
		System:      systemOrFallback(systemPrompt),
		Messages:    []Message{{Role: "user", Content: prompt}},
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}

	var response anthropicResponse
	if err := postJSON(ctx, clientOrDefault(p.HTTPClient), "ANTHROPIC", url, headers, reqBody, &response); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if block.Type == "" || block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (p *AnthropicProvider) AdaptInstructions(raw string) string {
	return raw
}
