package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abhisek/sprachiz/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with timeout,
// retry and request logging. eventRepo may be nil to skip event logging.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log logrus.FieldLogger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pc := cfg.ProviderConfig()
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(pc)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(pc)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, pc)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(pc)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller -> timeout -> retry -> logging -> base
	p := base
	if eventRepo != nil {
		p = WithLogging(p, eventRepo, log)
	}
	p = WithRetry(p, cfg.Retry)
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}
