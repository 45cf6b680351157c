package providers

import (
	"context"

	"github.com/thomas-vilte/commitlens/internal/ai"
	"github.com/thomas-vilte/commitlens/internal/ai/gemini"
	"github.com/thomas-vilte/commitlens/internal/ai/openai"
	"github.com/thomas-vilte/commitlens/internal/cache"
	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/services/cost"
)

// NewBackend creates the concrete provider selected by cfg.ActiveProvider.
func NewBackend(ctx context.Context, cfg *config.Config, apiKey string) (ai.Backend, error) {
	if cfg.ActiveProvider == "" {
		return nil, errors.ErrProviderNotSupported.WithContext("provider", "")
	}

	pc := cfg.Provider()

	switch cfg.ActiveProvider {
	case config.AIGemini:
		p, err := gemini.NewProvider(ctx, apiKey, string(pc.Model))
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.AIOpenAI:
		p, err := openai.NewProvider(ctx, openai.Config{
			APIKey:  apiKey,
			Model:   string(pc.Model),
			BaseURL: pc.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, errors.ErrProviderNotSupported.WithContext("provider", string(cfg.ActiveProvider))
	}
}

// NewTextGenerator wraps the configured backend with the response cache and
// the daily budget. respCache and budget may be nil.
func NewTextGenerator(ctx context.Context, cfg *config.Config, apiKey string, respCache *cache.Cache, budget *cost.Budget) (*ai.CostAwareGenerator, error) {
	backend, err := NewBackend(ctx, cfg, apiKey)
	if err != nil {
		return nil, err
	}

	return ai.NewCostAwareGenerator(ai.CostAwareConfig{
		Backend:    backend,
		Cache:      respCache,
		Budget:     budget,
		Calculator: cost.NewCalculator(),
	})
}
