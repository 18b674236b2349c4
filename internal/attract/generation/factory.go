package generation

import (
	"context"
	"fmt"

	"github.com/morich/attract-backend/pkg/config"
)

// New builds the configured provider wrapped with the idle watchdog.
// It returns ErrNotConfigured when no API key is set.
func New(ctx context.Context, cfg config.GenerationConfig) (Generator, error) {
	var (
		g   Generator
		err error
	)

	switch cfg.Provider {
	case config.ProviderGemini, "":
		g, err = NewGemini(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
		})
	case config.ProviderOpenAI:
		g, err = NewOpenAI(OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("generation: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithIdleTimeout(g, cfg.IdleTimeout), nil
}
