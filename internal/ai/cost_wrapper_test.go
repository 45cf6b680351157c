package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/commitlens/internal/cache"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/services/cost"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) CheckAvailability(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) GenerateWithUsage(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, *models.TokenUsage, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, opts)
	var usage *models.TokenUsage
	if u := args.Get(1); u != nil {
		usage = u.(*models.TokenUsage)
	}
	return args.String(0), usage, args.Error(2)
}

func (m *mockBackend) ProviderName() string { return "openai" }

func (m *mockBackend) ModelName() string { return "gpt-4o-mini" }

type fixedSpend float64

func (f fixedSpend) DailySpend(context.Context, time.Time) (float64, error) {
	return float64(f), nil
}

func newTestGenerator(t *testing.T, backend Backend, budget *cost.Budget) *CostAwareGenerator {
	t.Helper()
	c, err := cache.NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	g, err := NewCostAwareGenerator(CostAwareConfig{
		Backend:               backend,
		Cache:                 c,
		Budget:                budget,
		EstimatedOutputTokens: 200,
	})
	require.NoError(t, err)
	return g
}

func TestNewCostAwareGenerator_RequiresBackend(t *testing.T) {
	_, err := NewCostAwareGenerator(CostAwareConfig{})
	assert.True(t, errors.Is(err, apperrors.ErrProviderNotSupported))
}

func TestCostAwareGenerator_Generate(t *testing.T) {
	backend := new(mockBackend)
	opts := GenerateOptions{Temperature: 0.3, MaxOutputTokens: 512, Format: FormatText}
	backend.On("GenerateWithUsage", mock.Anything, "system", "user", opts).
		Return("feat: add cache", &models.TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}, nil).Once()

	g := newTestGenerator(t, backend, nil)

	text, err := g.Generate(context.Background(), "system", "user", opts)

	require.NoError(t, err)
	assert.Equal(t, "feat: add cache", text)

	usage := g.Usage()
	assert.Equal(t, 1, usage.Calls)
	assert.Equal(t, 2_000_000, usage.TotalTokens)
	assert.InDelta(t, 0.15+0.60, usage.CostUSD, 1e-9)
	assert.Equal(t, "openai", usage.Provider)
	assert.Equal(t, "gpt-4o-mini", usage.Model)
	backend.AssertExpectations(t)
}

func TestCostAwareGenerator_CacheHit(t *testing.T) {
	backend := new(mockBackend)
	opts := GenerateOptions{Format: FormatJSON}
	backend.On("GenerateWithUsage", mock.Anything, "s", "u", opts).
		Return(`{"decision":"accept"}`, &models.TokenUsage{InputTokens: 10, OutputTokens: 5}, nil).Once()

	g := newTestGenerator(t, backend, nil)
	ctx := context.Background()

	first, err := g.Generate(ctx, "s", "u", opts)
	require.NoError(t, err)
	second, err := g.Generate(ctx, "s", "u", opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	usage := g.Usage()
	assert.Equal(t, 1, usage.Calls)
	assert.Equal(t, 1, usage.CacheHits)
	backend.AssertNumberOfCalls(t, "GenerateWithUsage", 1)
}

func TestCostAwareGenerator_CacheKeyIncludesFormat(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateWithUsage", mock.Anything, "s", "u", GenerateOptions{Format: FormatText}).
		Return("text", (*models.TokenUsage)(nil), nil).Once()
	backend.On("GenerateWithUsage", mock.Anything, "s", "u", GenerateOptions{Format: FormatJSON}).
		Return("{}", (*models.TokenUsage)(nil), nil).Once()

	g := newTestGenerator(t, backend, nil)

	a, err := g.Generate(context.Background(), "s", "u", GenerateOptions{Format: FormatText})
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), "s", "u", GenerateOptions{Format: FormatJSON})
	require.NoError(t, err)

	assert.Equal(t, "text", a)
	assert.Equal(t, "{}", b)
	backend.AssertExpectations(t)
}

func TestCostAwareGenerator_BudgetExceeded(t *testing.T) {
	backend := new(mockBackend)
	g := newTestGenerator(t, backend, cost.NewBudget(1.0, fixedSpend(1.5)))

	_, err := g.Generate(context.Background(), "s", "u", GenerateOptions{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrQuotaExceeded))
	backend.AssertNotCalled(t, "GenerateWithUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCostAwareGenerator_RecordsSessionSpend(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateWithUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("ok", &models.TokenUsage{InputTokens: 1_000_000}, nil)
	budget := cost.NewBudget(10, nil)
	g := newTestGenerator(t, backend, budget)

	_, err := g.Generate(context.Background(), "s", "u", GenerateOptions{})
	require.NoError(t, err)

	total, err := budget.DailyTotal(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.15, total, 1e-9)
}

func TestCostAwareGenerator_BackendError(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateWithUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", (*models.TokenUsage)(nil), apperrors.ErrAIGeneration)
	g := newTestGenerator(t, backend, nil)

	_, err := g.Generate(context.Background(), "s", "u", GenerateOptions{})

	assert.True(t, errors.Is(err, apperrors.ErrAIGeneration))
	assert.Zero(t, g.Usage().Calls)
}

func TestCostAwareGenerator_ConcurrentUsage(t *testing.T) {
	backend := new(mockBackend)
	backend.On("GenerateWithUsage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("ok", &models.TokenUsage{InputTokens: 3, OutputTokens: 2}, nil)
	g, err := NewCostAwareGenerator(CostAwareConfig{Backend: backend})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.Generate(context.Background(), "s", "u", GenerateOptions{})
		}()
	}
	wg.Wait()

	usage := g.Usage()
	assert.Equal(t, 8, usage.Calls)
	assert.Equal(t, 40, usage.TotalTokens)
}

func TestCostAwareGenerator_CheckAvailability(t *testing.T) {
	backend := new(mockBackend)
	backend.On("CheckAvailability", mock.Anything).Return(apperrors.ErrProviderUnavailable)
	g := newTestGenerator(t, backend, nil)

	assert.True(t, errors.Is(g.CheckAvailability(context.Background()), apperrors.ErrProviderUnavailable))
}
