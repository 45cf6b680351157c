package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/pipeline"
)

func TestPipelineConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Language = "es"
	cfg.Pipeline.MaxIterations = 3
	cfg.Pipeline.CallTimeout = config.Duration{Duration: 15 * time.Second}

	pc := pipelineConfig(cfg)

	assert.Equal(t, 3, pc.MaxIterations)
	assert.Equal(t, "es", pc.Language)
	assert.Equal(t, 15*time.Second, pc.CallTimeout)
	assert.Equal(t, 75, pc.SimpleThreshold)
	assert.Equal(t, 2048, pc.MaxOutputTokens)
	assert.InDelta(t, 0.3, pc.Temperature, 0.001)
	assert.Equal(t, 60, pc.MinCriteriaScore)
}

func TestPipelineConfig_CriteriaFloor(t *testing.T) {
	tests := []struct {
		name string
		file int
		want int
	}{
		{"zero turns the floor off", 0, pipeline.NoCriteriaFloor},
		{"explicit value is kept", 45, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Pipeline.MinCriteriaScore = tt.file

			assert.Equal(t, tt.want, pipelineConfig(cfg).MinCriteriaScore)
		})
	}
}

func TestHistoryStore(t *testing.T) {
	t.Run("disabled history opens nothing", func(t *testing.T) {
		cfg := config.Default()
		cfg.History.Enabled = false
		a := newApp(config.NewKeyStore())

		store, err := a.historyStore(cfg)

		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("store is opened once and closed", func(t *testing.T) {
		cfg := config.Default()
		cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
		a := newApp(config.NewKeyStore())

		first, err := a.historyStore(cfg)
		require.NoError(t, err)
		second, err := a.historyStore(cfg)
		require.NoError(t, err)

		assert.Same(t, first, second)
		a.Close(context.Background())
	})
}

func TestHistoryProvider_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.History.Enabled = false
	a := newApp(config.NewKeyStore())

	reader, err := a.historyProvider(context.Background(), cfg)
	require.NoError(t, err)

	runs, err := reader.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
