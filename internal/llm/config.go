package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/abhisek/sprachiz/internal/config"
)

// Provider names accepted by NewProvider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures one LLM provider.
type Config struct {
	Provider string
	// Model is a friendly alias or a provider model id. Empty selects the
	// provider default.
	Model   string
	APIKey  string
	BaseURL string
	Retry   RetryConfig

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

// ProviderConfig is what a concrete provider needs to connect.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

var defaultModels = map[string]string{
	ProviderAnthropic:  "claude-haiku",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGemini:     "gemini-flash",
	ProviderOpenRouter: "google/gemini-2.0-flash-exp",
}

// DefaultConfig returns a Config with default retry and timeout settings.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderAnthropic,
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ProviderConfig returns the connection settings for the selected provider.
func (c Config) ProviderConfig() ProviderConfig {
	model := c.Model
	if model == "" {
		model = defaultModels[c.Provider]
	}
	return ProviderConfig{APIKey: c.APIKey, Model: model, BaseURL: c.BaseURL}
}

// FromSettings builds a Config from application settings. When no provider
// is configured the standard API key variables are probed instead; ok is
// false if nothing usable was found.
func FromSettings(s config.LLMConfig) (cfg Config, ok bool) {
	if s.Provider == "" {
		cfg, ok = DiscoverConfig()
		if !ok {
			return Config{}, false
		}
	} else {
		cfg = DefaultConfig()
		cfg.Provider = s.Provider
		switch s.Provider {
		case ProviderAnthropic:
			cfg.APIKey = s.AnthropicAPIKey
		case ProviderOpenAI:
			cfg.APIKey = s.OpenAIAPIKey
			cfg.BaseURL = s.OpenAIBaseURL
		case ProviderGemini:
			cfg.APIKey = s.GeminiAPIKey
		case ProviderOpenRouter:
			cfg.APIKey = s.OpenRouterKey
		}
	}
	if s.Model != "" {
		cfg.Model = s.Model
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	return cfg, true
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for the
// first provider whose key is found.
func DiscoverConfig() (Config, bool) {
	probes := []struct {
		env      string
		provider string
	}{
		{"GEMINI_API_KEY", ProviderGemini},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
		{"OPENROUTER_API_KEY", ProviderOpenRouter},
	}
	for _, p := range probes {
		if k := os.Getenv(p.env); k != "" {
			cfg := DefaultConfig()
			cfg.Provider = p.provider
			cfg.APIKey = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.APIKey == "" {
			return fmt.Errorf("llm.%s_api_key (or %s_LLM_%s_API_KEY) is required for the %s provider",
				c.Provider, config.EnvPrefix, envName(c.Provider), c.Provider)
		}
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
}

func envName(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI"
	case ProviderGemini:
		return "GEMINI"
	case ProviderOpenRouter:
		return "OPENROUTER"
	default:
		return "ANTHROPIC"
	}
}
