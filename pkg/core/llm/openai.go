package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const (
	openAIURL          = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4.1-mini"
	defaultAzureAPIVer = "2024-08-01-preview"
)

// Message is a single chat turn.
type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type chatRequest struct {
	Model       string    `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (r chatResponse) firstContent(tag string) (string, error) {
	if len(r.Choices) == 0 {
		return "", fmt.Errorf("%s_NO_CHOICES: empty choices in response", tag)
	}
	return r.Choices[0].Message.Content, nil
}

func chatMessages(system, prompt string) []Message {
	return []Message{
		{Role: "system", Content: systemOrFallback(system)},
		{Role: "user", Content: prompt},
	}
}

// OpenAIProvider calls the public OpenAI Chat Completions API.
type OpenAIProvider struct {
	Model      string // overrides OPENAI_MODEL
	BaseURL    string // for tests
	HTTPClient *http.Client
}

var _ Provider = (*OpenAIProvider)(nil)

func (p *OpenAIProvider) Configured() bool {
	return os.Getenv("OPENAI_API_KEY") != ""
}

func (p *OpenAIProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := optString(options, "api_key", os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return "", missingKey("OPENAI", "OPENAI_API_KEY")
	}

	model := p.Model
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	model = optString(options, "model", model)

	endpoint := openAIURL
	if p.BaseURL != "" {
		endpoint = strings.TrimRight(p.BaseURL, "/") + "/v1/chat/completions"
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    chatMessages(systemPrompt, prompt),
		MaxTokens:   optInt(options, "max_tokens", DefaultMaxTokens),
		Temperature: optFloat(options, "temperature", DefaultTemperature),
	}

	var response chatResponse
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	if err := postJSON(ctx, clientOrDefault(p.HTTPClient), "OPENAI", endpoint, headers, reqBody, &response); err != nil {
		return "", err
	}
	return response.firstContent("OPENAI")
}

func (p *OpenAIProvider) AdaptInstructions(raw string) string {
	return raw
}

// AzureOpenAIProvider calls a Chat Completions deployment on Azure OpenAI.
// The deployment name takes the place of the model.
type AzureOpenAIProvider struct {
	HTTPClient *http.Client
}

var _ Provider = (*AzureOpenAIProvider)(nil)

type azureSettings struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
}

func loadAzureSettings() azureSettings {
	s := azureSettings{
		endpoint:   strings.TrimRight(os.Getenv("AZURE_OPENAI_ENDPOINT"), "/"),
		apiKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
		deployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
		apiVersion: os.Getenv("AZURE_OPENAI_API_VERSION"),
	}
	if s.apiVersion == "" {
		s.apiVersion = defaultAzureAPIVer
	}
	return s
}

// Configured mirrors the health check: endpoint and key present.
func (p *AzureOpenAIProvider) Configured() bool {
	s := loadAzureSettings()
	return s.endpoint != "" && s.apiKey != ""
}

func (p *AzureOpenAIProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	s := loadAzureSettings()
	if s.endpoint == "" || s.apiKey == "" || s.deployment == "" {
		return "", fmt.Errorf("AZURE_NOT_CONFIGURED: Azure OpenAI not configured: %w", ErrNotConfigured)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		s.endpoint, url.PathEscape(s.deployment), url.QueryEscape(s.apiVersion))

	reqBody := chatRequest{
		Messages:    chatMessages(systemPrompt, prompt),
		MaxTokens:   optInt(options, "max_tokens", DefaultMaxTokens),
		Temperature: optFloat(options, "temperature", DefaultTemperature),
	}

	var response chatResponse
	headers := map[string]string{"api-key": s.apiKey}
	if err := postJSON(ctx, clientOrDefault(p.HTTPClient), "AZURE", endpoint, headers, reqBody, &response); err != nil {
		return "", err
	}
	return response.firstContent("AZURE")
}

func (p *AzureOpenAIProvider) AdaptInstructions(raw string) string {
	return raw
}
