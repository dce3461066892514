package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the interface for all LLM providers.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
	// Configured reports whether the credentials the provider needs are present.
	Configured() bool
}

// Default generation settings used when options leave them out.
const (
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.2
)

// SystemFallback is used when the caller passes an empty system prompt.
const SystemFallback = "You are a CFO-level analyst. Explain projections clearly and conservatively. " +
	"Use only numbers from the provided tables."

// ErrNotConfigured is returned when a provider is selected but its credentials are missing.
var ErrNotConfigured = errors.New("provider not configured")

func systemOrFallback(system string) string {
	if system == "" {
		return SystemFallback
	}
	return system
}

// optString reads a non-empty string option.
func optString(options map[string]interface{}, key, def string) string {
	if val, ok := options[key].(string); ok && val != "" {
		return val
	}
	return def
}

// optInt reads an integer option; JSON-decoded numbers arrive as float64.
func optInt(options map[string]interface{}, key string, def int) int {
	switch val := options[key].(type) {
	case int:
		if val > 0 {
			return val
		}
	case int64:
		if val > 0 {
			return int(val)
		}
	case float64:
		if val > 0 {
			return int(val)
		}
	}
	return def
}

// optFloat reads a float option. Zero is a valid temperature, so only a
// missing key falls back.
func optFloat(options map[string]interface{}, key string, def float64) float64 {
	switch val := options[key].(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	}
	return def
}

func missingKey(prefix, env string) error {
	return fmt.Errorf("%s_API_KEY_MISSING: Please set %s env var: %w", prefix, env, ErrNotConfigured)
}
