package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// captureServer records the last request body and replies with reply.
func captureServer(t *testing.T, reply string, got *map[string]interface{}, header *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header != nil {
			*header = r.Header.Clone()
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("bad request body: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropicProvider_GenerateResponse(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_MODEL", "")

	var body map[string]interface{}
	var header http.Header
	srv := captureServer(t, `{"content":[{"type":"text","text":"Revenue "},{"type":"text","text":"grows."}]}`, &body, &header)

	p := &AnthropicProvider{BaseURL: srv.URL}
	out, err := p.GenerateResponse(context.Background(), "user prompt", "", map[string]interface{}{
		"max_tokens":  2200,
		"temperature": 0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "Revenue grows." {
		t.Errorf("unexpected output: %q", out)
	}
	if header.Get("x-api-key") != "test-key" {
		t.Errorf("expected api key header, got %q", header.Get("x-api-key"))
	}
	if body["model"] != defaultAnthropicModel {
		t.Errorf("expected default model, got %v", body["model"])
	}
	if body["system"] != SystemFallback {
		t.Errorf("expected fallback system prompt, got %v", body["system"])
	}
	if body["max_tokens"].(float64) != 2200 {
		t.Errorf("expected max_tokens 2200, got %v", body["max_tokens"])
	}
}

func TestAnthropicProvider_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	p := &AnthropicProvider{}
	if p.Configured() {
		t.Error("expected provider to be unconfigured")
	}
	_, err := p.GenerateResponse(context.Background(), "x", "y", nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOpenAIProvider_ModelOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	var body map[string]interface{}
	var header http.Header
	srv := captureServer(t, `{"choices":[{"message":{"content":"narrative"}}]}`, &body, &header)

	p := &OpenAIProvider{BaseURL: srv.URL}
	out, err := p.GenerateResponse(context.Background(), "u", "s", map[string]interface{}{"model": "gpt-custom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "narrative" {
		t.Errorf("unexpected output: %q", out)
	}
	if body["model"] != "gpt-custom" {
		t.Errorf("expected model override, got %v", body["model"])
	}
	if header.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("unexpected auth header: %q", header.Get("Authorization"))
	}
	msgs := body["messages"].([]interface{})
	if len(msgs) != 2 || msgs[0].(map[string]interface{})["role"] != "system" {
		t.Errorf("unexpected messages: %v", msgs)
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &OpenAIProvider{BaseURL: srv.URL}
	_, err := p.GenerateResponse(context.Background(), "u", "s", nil)
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_ERROR") {
		t.Errorf("expected OPENAI_API_ERROR, got %v", err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	srv := captureServer(t, `{"choices":[]}`, nil, nil)

	p := &OpenAIProvider{BaseURL: srv.URL}
	if _, err := p.GenerateResponse(context.Background(), "u", "s", nil); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestAzureOpenAIProvider(t *testing.T) {
	var gotPath, gotQuery string
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("api-version")
		header = r.Header.Clone()
		w.Write([]byte(`{"choices":[{"message":{"content":"azure says hi"}}]}`))
	}))
	defer srv.Close()

	t.Setenv("AZURE_OPENAI_ENDPOINT", srv.URL+"/")
	t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "fin-gpt")
	t.Setenv("AZURE_OPENAI_API_VERSION", "")

	p := &AzureOpenAIProvider{}
	if !p.Configured() {
		t.Fatal("expected azure to be configured")
	}
	out, err := p.GenerateResponse(context.Background(), "u", "s", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "azure says hi" {
		t.Errorf("unexpected output: %q", out)
	}
	if gotPath != "/openai/deployments/fin-gpt/chat/completions" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotQuery != defaultAzureAPIVer {
		t.Errorf("unexpected api-version: %s", gotQuery)
	}
	if header.Get("api-key") != "az-key" {
		t.Errorf("unexpected api-key header: %q", header.Get("api-key"))
	}
}

func TestAzureOpenAIProvider_NotConfigured(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT", "")

	_, err := (&AzureOpenAIProvider{}).GenerateResponse(context.Background(), "u", "s", nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestQwenProvider_TextFallback(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "")
	t.Setenv("QWEN_API_KEY", "qk")
	srv := captureServer(t, `{"output":{"text":"plain text answer"}}`, nil, nil)

	p := &QwenProvider{BaseURL: srv.URL}
	out, err := p.GenerateResponse(context.Background(), "u", "s", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "plain text answer" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestDeepSeekProvider(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "dk")
	var body map[string]interface{}
	srv := captureServer(t, `{"choices":[{"message":{"content":"ds"}}]}`, &body, nil)

	p := &DeepSeekProvider{BaseURL: srv.URL}
	out, err := p.GenerateResponse(context.Background(), "u", "s", map[string]interface{}{"temperature": 0.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ds" {
		t.Errorf("unexpected output: %q", out)
	}
	if body["temperature"].(float64) != 0 {
		t.Errorf("explicit zero temperature should be kept, got %v", body["temperature"])
	}
}

func TestOptionHelpers(t *testing.T) {
	opts := map[string]interface{}{
		"model":       "",
		"max_tokens":  float64(1500),
		"temperature": 0,
	}
	if got := optString(opts, "model", "default"); got != "default" {
		t.Errorf("empty model should fall back, got %q", got)
	}
	if got := optInt(opts, "max_tokens", 10); got != 1500 {
		t.Errorf("expected 1500, got %d", got)
	}
	if got := optFloat(opts, "temperature", 0.7); got != 0 {
		t.Errorf("expected explicit 0, got %f", got)
	}
	if got := optFloat(nil, "temperature", 0.7); got != 0.7 {
		t.Errorf("expected default 0.7, got %f", got)
	}
}
