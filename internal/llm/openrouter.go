package llm

import "fmt"

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider talks to OpenRouter through its OpenAI-compatible API.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg ProviderConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterBaseURL
	}

	inner, err := NewOpenAIProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}

// Name returns "openrouter".
func (p *OpenRouterProvider) Name() string { return ProviderOpenRouter }
