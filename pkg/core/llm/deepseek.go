package llm

import (
	"context"
	"net/http"
	"os"
	"strings"
)

const deepSeekURL = "https://api.deepseek.com/chat/completions"

// DeepSeekProvider calls DeepSeek's OpenAI-compatible chat endpoint.
type DeepSeekProvider struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Provider = (*DeepSeekProvider)(nil)

// DeepSeekRequest is the chat completion body DeepSeek expects.
type DeepSeekRequest struct {
	Messages         []Message      `json:"messages"`
	Model            string         `json:"model"`
	Thinking         *ThinkingParam `json:"thinking,omitempty"`
	FrequencyPenalty float64        `json:"frequency_penalty"`
	MaxTokens        int            `json:"max_tokens"`
	PresencePenalty  float64        `json:"presence_penalty"`
	ResponseFormat   ResponseFormat `json:"response_format"`
	Stream           bool           `json:"stream"`
	Temperature      float64        `json:"temperature"`
	TopP             float64        `json:"top_p"`
}

type ThinkingParam struct {
	Type string `json:"type"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

func (p *DeepSeekProvider) Configured() bool {
	return os.Getenv("DEEPSEEK_API_KEY") != ""
}

func (p *DeepSeekProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := optString(options, "api_key", os.Getenv("DEEPSEEK_API_KEY"))
	if apiKey == "" {
		return "", missingKey("DEEPSEEK", "DEEPSEEK_API_KEY")
	}

	url := deepSeekURL
	if p.BaseURL != "" {
		url = strings.TrimRight(p.BaseURL, "/") + "/chat/completions"
	}

	reqBody := DeepSeekRequest{
		Messages: chatMessages(systemPrompt, prompt),
		Model:    optString(options, "model", "deepseek-chat"),
		Thinking: &ThinkingParam{
			Type: "disabled",
		},
		MaxTokens: optInt(options, "max_tokens", 4096),
		ResponseFormat: ResponseFormat{
			Type: "text",
		},
		Temperature: optFloat(options, "temperature", DefaultTemperature),
		TopP:        1.0,
	}

	var response chatResponse
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	if err := postJSON(ctx, clientOrDefault(p.HTTPClient), "DEEPSEEK", url, headers, reqBody, &response); err != nil {
		return "", err
	}
	return response.firstContent("DEEPSEEK")
}

func (p *DeepSeekProvider) AdaptInstructions(raw string) string {
	return raw
}
