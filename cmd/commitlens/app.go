package main

import (
	"context"
	"sync"

	"github.com/thomas-vilte/commitlens/internal/astdiff"
	"github.com/thomas-vilte/commitlens/internal/cache"
	"github.com/thomas-vilte/commitlens/internal/commands/analyze"
	historycmd "github.com/thomas-vilte/commitlens/internal/commands/history"
	"github.com/thomas-vilte/commitlens/internal/commands/suggest"
	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/git"
	"github.com/thomas-vilte/commitlens/internal/history"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/pipeline"
	"github.com/thomas-vilte/commitlens/internal/providers"
	"github.com/thomas-vilte/commitlens/internal/services"
	"github.com/thomas-vilte/commitlens/internal/services/cost"
)

// app builds services on demand so commands like config or completion
// never touch the history database or require an API key.
type app struct {
	keys *config.KeyStore

	storeOnce sync.Once
	store     *history.Store
	storeErr  error
}

func newApp(keys *config.KeyStore) *app {
	return &app{keys: keys}
}

// historyStore opens the run history once per process. It returns nil when
// history is disabled.
func (a *app) historyStore(cfg *config.Config) (*history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	a.storeOnce.Do(func() {
		path, err := cfg.HistoryPath()
		if err != nil {
			a.storeErr = err
			return
		}
		a.store, a.storeErr = history.Open(path)
	})
	return a.store, a.storeErr
}

func (a *app) Close(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		logger.Warn(ctx, "failed to close history store", "error", err)
	}
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	pc := cfg.Provider()
	p := cfg.Pipeline
	return pipeline.Config{
		MaxIterations:     p.MaxIterations,
		Debug:             p.Debug,
		SimpleThreshold:   p.SimpleThreshold,
		ModerateThreshold: p.ModerateThreshold,
		ComplexThreshold:  p.ComplexThreshold,
		ThresholdFloor:    p.ThresholdFloor,
		IterationDecay:    p.IterationDecay,
		MinCriteriaScore:  criteriaFloor(p.MinCriteriaScore),
		CallTimeout:       p.CallTimeout.Duration,
		Language:          cfg.Language,
		MaxLength:         cfg.MaxLength,
		Temperature:       pc.Temperature,
		MaxOutputTokens:   pc.MaxTokens,
	}
}

// criteriaFloor maps the file setting onto the pipeline, where zero would
// otherwise select the default floor.
func criteriaFloor(score int) int {
	if score == 0 {
		return pipeline.NoCriteriaFloor
	}
	return score
}

func (a *app) baseOptions(cfg *config.Config) []services.CommitOption {
	opts := []services.CommitOption{services.WithMaxDiffBytes(cfg.Diff.MaxBytes)}
	if cfg.AST.Enabled {
		opts = append(opts, services.WithDetector(astdiff.NewDetector(astdiff.WithConcurrency(cfg.AST.Concurrency))))
	}
	return opts
}

// commitServiceProvider wires generator, pipeline and recorder for one
// suggest invocation. A history store that cannot be opened only disables
// recording.
func (a *app) commitServiceProvider(ctx context.Context, cfg *config.Config) (suggest.CommitService, error) {
	apiKey, err := config.ResolveAPIKey(cfg, a.keys)
	if err != nil {
		return nil, err
	}

	var respCache *cache.Cache
	if cfg.Cache.Enabled {
		respCache, err = openCache(cfg)
		if err != nil {
			logger.Warn(ctx, "response cache disabled", "error", err)
			respCache = nil
		}
	}

	opts := a.baseOptions(cfg)

	var spend cost.SpendSource
	store, err := a.historyStore(cfg)
	if err != nil {
		logger.Warn(ctx, "run history disabled", "error", err)
	} else if store != nil {
		spend = store
		opts = append(opts, services.WithHistory(store))
	}

	gen, err := providers.NewTextGenerator(ctx, cfg, apiKey, respCache, cost.NewBudget(cfg.BudgetDaily, spend))
	if err != nil {
		return nil, err
	}

	runner, err := pipeline.New(gen, pipelineConfig(cfg))
	if err != nil {
		return nil, err
	}

	opts = append(opts,
		services.WithUsage(gen),
		services.WithModelInfo(string(cfg.ActiveProvider), string(cfg.Provider().Model)))

	logger.Debug(ctx, "commit service ready",
		"provider", cfg.ActiveProvider,
		"model", cfg.Provider().Model,
		"ast", cfg.AST.Enabled,
		"history", spend != nil,
		"cache", respCache != nil)

	return services.NewCommitService(git.NewGitService(""), runner, opts...), nil
}

func (a *app) analyzerProvider(ctx context.Context, cfg *config.Config) (analyze.Analyzer, error) {
	return services.NewCommitService(git.NewGitService(""), nil, a.baseOptions(cfg)...), nil
}

func (a *app) historyProvider(ctx context.Context, cfg *config.Config) (historycmd.Reader, error) {
	store, err := a.historyStore(cfg)
	if err != nil {
		return nil, err
	}
	var opts []services.CommitOption
	if store != nil {
		opts = append(opts, services.WithHistory(store))
	}
	return services.NewCommitService(git.NewGitService(""), nil, opts...), nil
}

func openCache(cfg *config.Config) (*cache.Cache, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewCache(dir, cfg.Cache.TTL.Duration)
}
