package config

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/config"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

func (c *ConfigCommandFactory) newSetKeyCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set-key",
		Usage:     t.GetMessage("config_set_key_usage", 0, nil),
		ArgsUsage: t.GetMessage("config_set_key_args_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer

			provider := cfg.ActiveProvider
			if command.Args().Len() > 0 {
				provider = config.AI(strings.ToLower(command.Args().Get(0)))
			}
			if !config.IsSupportedAI(provider) {
				return apperrors.ErrProviderNotSupported.WithContext("provider", string(provider))
			}

			apiKey := strings.TrimSpace(command.Args().Get(1))
			if apiKey == "" {
				_, _ = fmt.Fprintf(out, "%s ", ui.Info.Sprint(t.GetMessage("config.enter_api_key", 0, struct{ Provider string }{string(provider)})))
				line, err := bufio.NewReader(command.Root().Reader).ReadString('\n')
				if err != nil && line == "" {
					return apperrors.ErrAPIKeyMissing.WithContext("provider", string(provider)).WithError(err)
				}
				apiKey = strings.TrimSpace(line)
			}

			if err := c.keys.Save(provider, apiKey); err != nil {
				return err
			}
			logger.Info(ctx, "api key stored in keyring", "provider", provider)

			ui.PrintSuccess(out, t.GetMessage("config.key_saved", 0, struct{ Provider string }{string(provider)}))
			return nil
		},
	}
}
