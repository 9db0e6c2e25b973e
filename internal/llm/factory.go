package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/abhisek/shelf/internal/store"
)

// New builds the configured provider. Calls go through retry first and
// then through the request log, so every attempt is recorded. A nil
// events repo skips the log.
func New(ctx context.Context, cfg Config, events store.EventRepo, logger *slog.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ep, _ := cfg.Endpoint()

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(ep)
	case ProviderOpenAI, ProviderOpenRouter:
		base, err = NewOpenAIProvider(cfg.Provider, ep)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, ep)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", cfg.Provider, err)
	}

	if events != nil {
		base = WithLogging(base, events, logger)
	}
	retried := WithRetry(base, cfg.Retry, logger)
	retried.timeout = cfg.Timeout
	return retried, nil
}
