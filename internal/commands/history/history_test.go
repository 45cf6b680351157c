package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/config"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/history"
	"github.com/thomas-vilte/commitlens/internal/i18n"
)

type MockReader struct {
	mock.Mock
}

func (m *MockReader) History(ctx context.Context, limit int) ([]history.Run, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]history.Run), args.Error(1)
}

func (m *MockReader) Stats(ctx context.Context) (history.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(history.Stats), args.Error(1)
}

func run(t *testing.T, reader Reader, cfg *config.Config, args ...string) (string, error) {
	color.NoColor = true
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	factory := NewHistoryCommandFactory(func(ctx context.Context, c *config.Config) (Reader, error) {
		return reader, nil
	})
	var out bytes.Buffer
	app := &cli.Command{Writer: &out, Commands: []*cli.Command{factory.CreateCommand(translations, cfg)}}
	err = app.Run(context.Background(), append([]string{"commitlens", "history"}, args...))
	return out.String(), err
}

func sampleRuns() []history.Run {
	return []history.Run{
		{
			RunID: "b", CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), Branch: "main",
			Success: true, Iterations: 2, QualityScore: 88, Accuracy: 92, CostUSD: 0.0021,
			Message: "fix(parser): handle empty input\n\nbody",
		},
		{
			RunID: "a", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Branch: "dev",
			Success: false, Iterations: 1, Error: "AI: quota exceeded",
		},
	}
}

func TestHistoryCommand(t *testing.T) {
	t.Run("lists recent runs with the default limit", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("History", mock.Anything, 10).Return(sampleRuns(), nil)

		out, err := run(t, reader, config.Default())

		require.NoError(t, err)
		reader.AssertExpectations(t)
		assert.Contains(t, out, "fix(parser): handle empty input")
		assert.NotContains(t, out, "body")
		assert.Contains(t, out, "quota exceeded")
		assert.Contains(t, out, "$0.0021")
	})

	t.Run("honors --limit", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("History", mock.Anything, 3).Return([]history.Run{}, nil)

		out, err := run(t, reader, config.Default(), "--limit", "3")

		require.NoError(t, err)
		reader.AssertExpectations(t)
		assert.Contains(t, out, "No runs recorded yet")
	})

	t.Run("shows aggregate stats", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("Stats", mock.Anything).Return(history.Stats{
			Runs: 4, SuccessRate: 0.75, AvgIterations: 1.5, AvgQuality: 84, AvgAccuracy: 90, TotalCostUSD: 0.01,
		}, nil)

		out, err := run(t, reader, config.Default(), "--stats")

		require.NoError(t, err)
		assert.Contains(t, out, "75%")
		assert.Contains(t, out, "1.50")
		reader.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
	})

	t.Run("json output", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("History", mock.Anything, 10).Return(sampleRuns(), nil)

		out, err := run(t, reader, config.Default(), "--json")

		require.NoError(t, err)
		var decoded []history.Run
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "b", decoded[0].RunID)
	})

	t.Run("disabled history does not open the store", func(t *testing.T) {
		cfg := config.Default()
		cfg.History.Enabled = false
		reader := new(MockReader)

		out, err := run(t, reader, cfg)

		require.NoError(t, err)
		assert.Contains(t, out, "disabled")
		reader.AssertNotCalled(t, "History", mock.Anything, mock.Anything)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		reader := new(MockReader)
		reader.On("History", mock.Anything, 10).Return([]history.Run{}, apperrors.ErrHistoryRead)

		_, err := run(t, reader, config.Default())

		assert.True(t, errors.Is(err, apperrors.ErrHistoryRead))
	})
}
