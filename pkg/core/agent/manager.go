package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"scenario_forecast/pkg/core/llm"

	"gopkg.in/yaml.v2"
)

// DefaultProvider is used when neither the request nor the config names one.
const DefaultProvider = "anthropic"

// ErrUnknownProvider is returned for a provider name that is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Config is the contents of config/models.yaml.
type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds per-provider generation defaults.
type ProviderConfig struct {
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	Description string   `yaml:"description"`
}

// Options are the per-call overrides coming from the request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
}

// LoadConfig reads a YAML provider config. A missing file yields an empty config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Manager routes narrative requests to a named provider.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
}

// NewManager registers the built-in providers.
func NewManager(config Config) *Manager {
	return NewManagerWithProviders(config, map[string]llm.Provider{
		"anthropic": &llm.AnthropicProvider{},
		"openai":    &llm.OpenAIProvider{},
		"azure":     &llm.AzureOpenAIProvider{},
		"gemini":    &llm.GeminiProvider{},
		"deepseek":  &llm.DeepSeekProvider{},
		"qwen":      &llm.QwenProvider{},
	})
}

// NewManagerWithProviders builds a manager over an explicit provider set.
func NewManagerWithProviders(config Config, providers map[string]llm.Provider) *Manager {
	if config.ActiveProvider == "" {
		config.ActiveProvider = DefaultProvider
	}
	return &Manager{config: config, providers: providers}
}

// GetProviderByName retrieves a provider instance by its name, or nil.
func (m *Manager) GetProviderByName(name string) llm.Provider {
	return m.providers[name]
}

// Available lists registered provider names, sorted.
func (m *Manager) Available() []string {
	names := make([]string, 0, len(m.providers))
	for k := range m.providers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Status reports, per provider, whether its credentials are configured.
func (m *Manager) Status() map[string]bool {
	status := make(map[string]bool, len(m.providers))
	for name, p := range m.providers {
		status[name] = p.Configured()
	}
	return status
}

// Generate sends the prompt to the named provider. An empty name selects the
// active provider. Request options win over the provider's configured defaults.
func (m *Manager) Generate(ctx context.Context, name, system, user string, opts Options) (string, error) {
	m.mu.RLock()
	if name == "" {
		name = m.config.ActiveProvider
	}
	defaults := m.config.Providers[name]
	m.mu.RUnlock()

	provider, ok := m.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}

	options := map[string]interface{}{}
	if defaults.Model != "" {
		options["model"] = defaults.Model
	}
	if defaults.MaxTokens > 0 {
		options["max_tokens"] = defaults.MaxTokens
	}
	if defaults.Temperature != nil {
		options["temperature"] = *defaults.Temperature
	}
	if opts.Model != "" {
		options["model"] = opts.Model
	}
	if opts.MaxTokens > 0 {
		options["max_tokens"] = opts.MaxTokens
	}
	if opts.Temperature != nil {
		options["temperature"] = *opts.Temperature
	}

	fmt.Printf("[AGENT] Generate: provider=%s model=%v max_tokens=%v\n", name, options["model"], options["max_tokens"])

	return provider.GenerateResponse(ctx, user, provider.AdaptInstructions(system), options)
}

// SetGlobalProvider changes the provider used when a request names none.
func (m *Manager) SetGlobalProvider(newProvider string) error {
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, newProvider)
	}
	m.mu.Lock()
	m.config.ActiveProvider = newProvider
	m.mu.Unlock()
	fmt.Printf("[AGENT] Global provider set to: %s\n", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}
