package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

const qwenURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// QwenProvider calls the native DashScope text-generation API.
type QwenProvider struct {
	BaseURL    string
	HTTPClient *http.Client
}

var _ Provider = (*QwenProvider)(nil)

func qwenKey() string {
	if k := os.Getenv("DASHSCOPE_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("QWEN_API_KEY")
}

func (p *QwenProvider) Configured() bool {
	return qwenKey() != ""
}

func (p *QwenProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := optString(options, "api_key", qwenKey())
	if apiKey == "" {
		return "", fmt.Errorf("QWEN_API_KEY_MISSING: Please set DASHSCOPE_API_KEY or QWEN_API_KEY: %w", ErrNotConfigured)
	}

	url := qwenURL
	if p.BaseURL != "" {
		url = strings.TrimRight(p.BaseURL, "/") + "/generation"
	}

	reqBody := map[string]interface{}{
		"model": optString(options, "model", "qwen-max"),
		"input": map[string]interface{}{
			"messages": chatMessages(systemPrompt, prompt),
		},
		"parameters": map[string]interface{}{
			"result_format": "message",
			"max_tokens":    optInt(options, "max_tokens", DefaultMaxTokens),
			"temperature":   optFloat(options, "temperature", DefaultTemperature),
		},
	}

	// DashScope answers either in chat format (choices) or with text directly in output.
	var result struct {
		Output struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
			Text string `json:"text"`
		} `json:"output"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}

	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	if err := postJSON(ctx, clientOrDefault(p.HTTPClient), "QWEN", url, headers, reqBody, &result); err != nil {
		return "", err
	}

	if result.Code != "" {
		return "", fmt.Errorf("QWEN_API_ERROR: %s - %s", result.Code, result.Message)
	}
	if len(result.Output.Choices) > 0 {
		return result.Output.Choices[0].Message.Content, nil
	}
	if result.Output.Text != "" {
		return result.Output.Text, nil
	}
	return "", fmt.Errorf("QWEN_EMPTY_RESPONSE: empty response from qwen api")
}

func (p *QwenProvider) AdaptInstructions(raw string) string {
	return raw
}
