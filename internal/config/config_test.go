package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
)

func TestLoadConfig(t *testing.T) {
	t.Run("creates defaults when missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, path, cfg.PathFile)
		assert.Equal(t, LangEN, cfg.Language)
		assert.Equal(t, 2, cfg.Pipeline.MaxIterations)
		assert.Equal(t, 60*time.Second, cfg.Pipeline.CallTimeout.Duration)
		assert.FileExists(t, path)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `language = "es"
active_provider = "openai"

[pipeline]
max_iterations = 3
call_timeout = "15s"

[providers.openai]
model = "gpt-4.1"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, LangES, cfg.Language)
		assert.Equal(t, AIOpenAI, cfg.ActiveProvider)
		assert.Equal(t, 3, cfg.Pipeline.MaxIterations)
		assert.Equal(t, 15*time.Second, cfg.Pipeline.CallTimeout.Duration)
		assert.Equal(t, 85, cfg.Pipeline.ComplexThreshold)
		assert.Equal(t, 72, cfg.MaxLength)
		assert.Equal(t, ModelGPTV41, cfg.Provider().Model)
	})

	t.Run("malformed toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("language = "), 0600))

		_, err := LoadConfig(path)

		assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid))
	})

	t.Run("bad duration", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte("[pipeline]\ncall_timeout = \"soon\"\n"), 0600))

		_, err := LoadConfig(path)

		assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid))
	})

	t.Run("default path needs a home directory", func(t *testing.T) {
		t.Setenv("HOME", "")

		_, err := LoadConfig("")

		assert.Error(t, err)
	})
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.PathFile = filepath.Join(t.TempDir(), "config.toml")
	cfg.BudgetDaily = 1.5
	cfg.Cache.TTL = Duration{2 * time.Hour}

	require.NoError(t, SaveConfig(cfg))
	loaded, err := LoadConfig(cfg.PathFile)

	require.NoError(t, err)
	assert.Equal(t, 1.5, loaded.BudgetDaily)
	assert.Equal(t, 2*time.Hour, loaded.Cache.TTL.Duration)

	info, err := os.Stat(cfg.PathFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveConfig_RequiresPath(t *testing.T) {
	err := SaveConfig(Default())
	assert.True(t, errors.Is(err, apperrors.ErrConfigInvalid))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults", func(*Config) {}, nil},
		{"unknown language", func(c *Config) { c.Language = "fr" }, apperrors.ErrConfigInvalid},
		{"zero max length", func(c *Config) { c.MaxLength = 0 }, apperrors.ErrConfigInvalid},
		{"unknown provider", func(c *Config) { c.ActiveProvider = "claude" }, apperrors.ErrProviderNotSupported},
		{"zero iterations", func(c *Config) { c.Pipeline.MaxIterations = 0 }, apperrors.ErrConfigInvalid},
		{"threshold above 100", func(c *Config) { c.Pipeline.ComplexThreshold = 120 }, apperrors.ErrConfigInvalid},
		{"floor above base", func(c *Config) { c.Pipeline.ThresholdFloor = 78 }, apperrors.ErrConfigInvalid},
		{"criteria floor off", func(c *Config) { c.Pipeline.MinCriteriaScore = 0 }, nil},
		{"negative criteria floor", func(c *Config) { c.Pipeline.MinCriteriaScore = -1 }, apperrors.ErrConfigInvalid},
		{"negative decay", func(c *Config) { c.Pipeline.IterationDecay = -1 }, apperrors.ErrConfigInvalid},
		{"no timeout", func(c *Config) { c.Pipeline.CallTimeout = Duration{} }, apperrors.ErrConfigInvalid},
		{"no ast workers", func(c *Config) { c.AST.Concurrency = 0 }, apperrors.ErrConfigInvalid},
		{"negative budget", func(c *Config) { c.BudgetDaily = -2 }, apperrors.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGetLocaleConfig(t *testing.T) {
	assert.Equal(t, LangES, GetLocaleConfig("es"))
	assert.Equal(t, LangEN, GetLocaleConfig("pt"))
}

func TestResolveAPIKey(t *testing.T) {
	keyring.MockInit()
	store := NewKeyStore()

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "env-key")
		cfg := Default()
		cfg.Providers[AIGemini] = ProviderConfig{APIKey: "file-key"}

		key, err := ResolveAPIKey(cfg, store)

		require.NoError(t, err)
		assert.Equal(t, "env-key", key)
	})

	t.Run("config file before keyring", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		require.NoError(t, store.Save(AIGemini, "ring-key"))
		cfg := Default()
		cfg.Providers[AIGemini] = ProviderConfig{APIKey: "file-key"}

		key, err := ResolveAPIKey(cfg, store)

		require.NoError(t, err)
		assert.Equal(t, "file-key", key)
	})

	t.Run("keyring fallback", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		require.NoError(t, store.Save(AIOpenAI, "ring-key"))
		cfg := Default()
		cfg.ActiveProvider = AIOpenAI

		key, err := ResolveAPIKey(cfg, store)

		require.NoError(t, err)
		assert.Equal(t, "ring-key", key)
	})

	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		require.NoError(t, store.Delete(AIOpenAI))
		cfg := Default()
		cfg.ActiveProvider = AIOpenAI

		_, err := ResolveAPIKey(cfg, store)

		assert.True(t, errors.Is(err, apperrors.ErrAPIKeyMissing))
	})
}

func TestKeyStore_SaveRejectsBlank(t *testing.T) {
	keyring.MockInit()
	err := NewKeyStore().Save(AIGemini, "   ")
	assert.True(t, errors.Is(err, apperrors.ErrAPIKeyMissing))
}

func TestLookupAPIKey_ReportsSource(t *testing.T) {
	keyring.MockInit()
	store := NewKeyStore()
	t.Setenv("OPENAI_API_KEY", "")
	require.NoError(t, store.Save(AIOpenAI, "sk-ring-1234"))

	key, source, err := LookupAPIKey(Default(), store, AIOpenAI)

	require.NoError(t, err)
	assert.Equal(t, "sk-ring-1234", key)
	assert.Equal(t, KeySourceKeyring, source)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "********abcd", MaskKey("sk-test-abcd"))
	assert.Equal(t, "***", MaskKey("abc"))
	assert.Empty(t, MaskKey(""))
}
