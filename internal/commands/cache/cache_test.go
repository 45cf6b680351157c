package cache

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/i18n"
)

func setup(t *testing.T) (*config.Config, string, func(args ...string) error) {
	color.NoColor = true
	t.Setenv("HOME", t.TempDir())

	cfg := config.Default()
	dir, err := cfg.CacheDir()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir, 0755))

	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	run := func(args ...string) error {
		app := &cli.Command{
			Writer:   &bytes.Buffer{},
			Commands: []*cli.Command{NewCacheCommand().CreateCommand(translations, cfg)},
		}
		return app.Run(context.Background(), append([]string{"commitlens", "cache"}, args...))
	}
	return cfg, dir, run
}

func TestCacheCommand(t *testing.T) {
	t.Run("clean removes every entry", func(t *testing.T) {
		_, dir, run := setup(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{}`), 0644))

		require.NoError(t, run("clean"))

		_, err := os.Stat(filepath.Join(dir, "a.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("prune keeps fresh entries", func(t *testing.T) {
		_, dir, run := setup(t)
		fresh := filepath.Join(dir, "fresh.json")
		stale := filepath.Join(dir, "stale.json")
		require.NoError(t, os.WriteFile(fresh, []byte(`{}`), 0644))
		require.NoError(t, os.WriteFile(stale, []byte(`{}`), 0644))
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(stale, old, old))

		require.NoError(t, run("prune"))

		assert.FileExists(t, fresh)
		assert.NoFileExists(t, stale)
	})
}
