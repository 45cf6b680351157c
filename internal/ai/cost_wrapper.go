package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/thomas-vilte/commitlens/internal/cache"
	"github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/services/cost"
)

// TokenCounter is implemented by backends that can count prompt tokens
// before generation.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

type CostAwareConfig struct {
	Backend Backend
	// Cache is optional; nil disables response caching.
	Cache *cache.Cache
	// Budget is optional; nil disables the daily budget check.
	Budget                *cost.Budget
	Calculator            *cost.Calculator
	EstimatedOutputTokens int
}

// CostAwareGenerator decorates a Backend with the response cache, budget
// enforcement and token/cost accounting. It is safe for concurrent use when
// the backend is.
type CostAwareGenerator struct {
	backend               Backend
	cache                 *cache.Cache
	budget                *cost.Budget
	calculator            *cost.Calculator
	estimatedOutputTokens int

	mu    sync.Mutex
	usage models.TokenUsage
}

func NewCostAwareGenerator(cfg CostAwareConfig) (*CostAwareGenerator, error) {
	if cfg.Backend == nil {
		return nil, errors.ErrProviderNotSupported.WithError(fmt.Errorf("no backend configured"))
	}
	calculator := cfg.Calculator
	if calculator == nil {
		calculator = cost.NewCalculator()
	}
	estimated := cfg.EstimatedOutputTokens
	if estimated <= 0 {
		estimated = 500
	}

	return &CostAwareGenerator{
		backend:               cfg.Backend,
		cache:                 cfg.Cache,
		budget:                cfg.Budget,
		calculator:            calculator,
		estimatedOutputTokens: estimated,
		usage: models.TokenUsage{
			Provider: cfg.Backend.ProviderName(),
			Model:    cfg.Backend.ModelName(),
		},
	}, nil
}

func (g *CostAwareGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error) {
	startTime := time.Now()
	providerName := g.backend.ProviderName()
	modelName := g.backend.ModelName()

	var contentHash string
	if g.cache != nil {
		contentHash = g.cache.GenerateHash(providerName, modelName, string(opts.Format),
			fmt.Sprintf("%.2f", opts.Temperature), systemPrompt, userPrompt)

		if cachedData, hit, err := g.cache.Get(contentHash); err == nil && hit {
			var text string
			if err := json.Unmarshal(cachedData, &text); err == nil {
				logger.Debug(ctx, "cache hit", "cache_key_hash", contentHash[:12])
				g.record(models.TokenUsage{CacheHits: 1, DurationMs: time.Since(startTime).Milliseconds()})
				return text, nil
			}
		} else if err != nil {
			logger.Warn(ctx, "response cache unreadable", "error", err)
		}
	}

	if g.budget != nil {
		inputTokens := g.countTokens(ctx, systemPrompt+"\n"+userPrompt)
		estimatedCost := g.calculator.EstimateCost(providerName, modelName, inputTokens, g.estimatedOutputTokens)

		status, err := g.budget.CheckBudget(ctx, estimatedCost)
		if err != nil {
			logger.Warn(ctx, "budget check failed, continuing without it", "error", err)
		} else if status.IsExceeded {
			return "", errors.ErrQuotaExceeded.
				WithContext("today_usd", status.TodayTotal).
				WithContext("limit_usd", status.Limit).
				WithSuggestion("Daily budget reached. Raise budget_daily in the config or try again tomorrow")
		} else if status.IsWarning {
			logger.Warn(ctx, "daily budget usage is high", "percent_used", status.PercentUsed, "level", status.WarningLevel)
		}
	}

	text, usage, err := g.backend.GenerateWithUsage(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		return "", err
	}

	if g.cache != nil {
		if err := g.cache.Set(contentHash, text); err != nil {
			logger.Warn(ctx, "failed to cache response", "error", err)
		}
	}

	sample := models.TokenUsage{Calls: 1}
	if usage != nil {
		sample.InputTokens = usage.InputTokens
		sample.OutputTokens = usage.OutputTokens
		sample.TotalTokens = usage.TotalTokens
		if sample.TotalTokens == 0 {
			sample.TotalTokens = sample.InputTokens + sample.OutputTokens
		}
		sample.CostUSD = g.calculator.EstimateCost(providerName, modelName, usage.InputTokens, usage.OutputTokens)
	}
	sample.DurationMs = time.Since(startTime).Milliseconds()
	g.record(sample)

	if g.budget != nil {
		g.budget.Record(sample.CostUSD)
	}

	logger.Debug(ctx, "generation completed",
		"provider", providerName,
		"model", modelName,
		"input_tokens", sample.InputTokens,
		"output_tokens", sample.OutputTokens,
		"cost_usd", sample.CostUSD,
		"duration_ms", sample.DurationMs)

	return text, nil
}

func (g *CostAwareGenerator) CheckAvailability(ctx context.Context) error {
	return g.backend.CheckAvailability(ctx)
}

// Usage returns the usage accumulated since construction.
func (g *CostAwareGenerator) Usage() models.TokenUsage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.usage
}

func (g *CostAwareGenerator) ProviderName() string { return g.backend.ProviderName() }

func (g *CostAwareGenerator) ModelName() string { return g.backend.ModelName() }

func (g *CostAwareGenerator) record(sample models.TokenUsage) {
	g.mu.Lock()
	g.usage.Add(sample)
	g.mu.Unlock()
}

// countTokens asks the backend when it can count, otherwise approximates
// four characters per token.
func (g *CostAwareGenerator) countTokens(ctx context.Context, text string) int {
	if counter, ok := g.backend.(TokenCounter); ok {
		if n, err := counter.CountTokens(ctx, text); err == nil {
			return n
		}
	}
	return len(text) / 4
}
