package config

import (
	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/i18n"
)

type ConfigCommandFactory struct {
	keys *config.KeyStore
}

func NewConfigCommandFactory(keys *config.KeyStore) *ConfigCommandFactory {
	return &ConfigCommandFactory{keys: keys}
}

func (c *ConfigCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: t.GetMessage("config_command_usage", 0, nil),
		Commands: []*cli.Command{
			c.newShowCommand(t, cfg),
			c.newSetKeyCommand(t, cfg),
			c.newSetCommand(t, cfg),
			c.newEditCommand(t, cfg),
		},
	}
}
