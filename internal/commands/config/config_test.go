package config

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"github.com/zalando/go-keyring"

	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/i18n"
)

type configTestEnv struct {
	cfg  *config.Config
	keys *config.KeyStore
	t    *i18n.Translations
	out  *bytes.Buffer
}

func setupConfigTest(t *testing.T) *configTestEnv {
	color.NoColor = true
	keyring.MockInit()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	return &configTestEnv{
		cfg:  cfg,
		keys: config.NewKeyStore(),
		t:    translations,
		out:  &bytes.Buffer{},
	}
}

func (e *configTestEnv) run(stdin string, args ...string) error {
	app := &cli.Command{
		Name:     "commitlens",
		Writer:   e.out,
		Reader:   strings.NewReader(stdin),
		Commands: []*cli.Command{NewConfigCommandFactory(e.keys).CreateCommand(e.t, e.cfg)},
	}
	return app.Run(context.Background(), append([]string{"commitlens", "config"}, args...))
}
