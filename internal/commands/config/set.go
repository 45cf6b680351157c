package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/config"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

func (c *ConfigCommandFactory) newSetCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     t.GetMessage("config_set_usage", 0, nil),
		ArgsUsage: t.GetMessage("config_set_args_usage", 0, nil),
		Action: func(ctx context.Context, command *cli.Command) error {
			if command.Args().Len() < 2 {
				return apperrors.ErrConfigInvalid.
					WithError(fmt.Errorf("missing arguments")).
					WithSuggestion(t.GetMessage("config_set_error_args", 0, nil))
			}

			key := strings.ToLower(command.Args().Get(0))
			value := command.Args().Get(1)

			// Validate a copy so a rejected value leaves the loaded config intact.
			updated := *cfg
			updated.Providers = make(map[config.AI]config.ProviderConfig, len(cfg.Providers))
			for name, p := range cfg.Providers {
				updated.Providers[name] = p
			}

			if err := applySetting(&updated, key, value); err != nil {
				return err
			}
			if err := config.SaveConfig(&updated); err != nil {
				return err
			}
			*cfg = updated

			ui.PrintSuccess(command.Root().Writer, t.GetMessage("config_set_success", 0, struct {
				Key   string
				Value string
			}{Key: key, Value: value}))
			return nil
		},
	}
}

func applySetting(cfg *config.Config, key, value string) error {
	invalid := func(err error) error {
		return apperrors.ErrConfigInvalid.WithContext("key", key).WithContext("value", value).WithError(err)
	}

	switch key {
	case "lang", "language":
		cfg.Language = value
	case "provider", "active_provider":
		cfg.ActiveProvider = config.AI(value)
	case "model":
		p := cfg.Providers[cfg.ActiveProvider]
		p.Model = config.Model(value)
		cfg.Providers[cfg.ActiveProvider] = p
	case "max_length":
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid(err)
		}
		cfg.MaxLength = n
	case "max_iterations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid(err)
		}
		cfg.Pipeline.MaxIterations = n
	case "budget", "budget_daily":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return invalid(err)
		}
		cfg.BudgetDaily = f
	case "ast", "history", "cache", "debug":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalid(err)
		}
		switch key {
		case "ast":
			cfg.AST.Enabled = b
		case "history":
			cfg.History.Enabled = b
		case "cache":
			cfg.Cache.Enabled = b
		case "debug":
			cfg.Pipeline.Debug = b
		}
	default:
		return apperrors.ErrConfigInvalid.
			WithContext("key", key).
			WithSuggestion("lang, provider, model, max_length, max_iterations, budget, ast, history, cache, debug")
	}
	return nil
}
