package config

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

func (c *ConfigCommandFactory) newShowCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: t.GetMessage("config_show_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: t.GetMessage("json_flag_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer

			if command.Bool("json") {
				return ui.PrintJSON(out, redacted(cfg))
			}

			ui.PrintSectionBanner(out, t.GetMessage("config.title", 0, nil))
			ui.PrintKeyValue(out, t.GetMessage("config.path", 0, nil), cfg.PathFile)
			ui.PrintKeyValue(out, t.GetMessage("config.language", 0, nil), cfg.Language)
			ui.PrintKeyValue(out, t.GetMessage("config.max_length", 0, nil), strconv.Itoa(cfg.MaxLength))
			ui.PrintKeyValue(out, t.GetMessage("config.provider", 0, nil), string(cfg.ActiveProvider))
			ui.PrintKeyValue(out, t.GetMessage("config.model", 0, nil), string(cfg.Provider().Model))
			c.printKeyStatus(out, t, cfg)

			_, _ = fmt.Fprintln(out)
			p := cfg.Pipeline
			ui.PrintKeyValue(out, t.GetMessage("config.max_iterations", 0, nil), strconv.Itoa(p.MaxIterations))
			ui.PrintKeyValue(out, t.GetMessage("config.thresholds", 0, nil),
				fmt.Sprintf("%d / %d / %d (floor %d, -%d per iteration)",
					p.SimpleThreshold, p.ModerateThreshold, p.ComplexThreshold, p.ThresholdFloor, p.IterationDecay))
			ui.PrintKeyValue(out, t.GetMessage("config.call_timeout", 0, nil), p.CallTimeout.String())
			ui.PrintKeyValue(out, t.GetMessage("config.diff_max_bytes", 0, nil), strconv.Itoa(cfg.Diff.MaxBytes))
			ui.PrintKeyValue(out, t.GetMessage("config.ast", 0, nil), enabled(t, cfg.AST.Enabled))
			ui.PrintKeyValue(out, t.GetMessage("config.history", 0, nil), enabled(t, cfg.History.Enabled))
			ui.PrintKeyValue(out, t.GetMessage("config.cache", 0, nil),
				fmt.Sprintf("%s (%s)", enabled(t, cfg.Cache.Enabled), cfg.Cache.TTL.String()))

			budget := t.GetMessage("config.unlimited", 0, nil)
			if cfg.BudgetDaily > 0 {
				budget = fmt.Sprintf("$%.2f USD", cfg.BudgetDaily)
			}
			ui.PrintKeyValue(out, t.GetMessage("config.budget", 0, nil), budget)
			_, _ = fmt.Fprintln(out)
			return nil
		},
	}
}

func (c *ConfigCommandFactory) printKeyStatus(out io.Writer, t *i18n.Translations, cfg *config.Config) {
	key, source, err := config.LookupAPIKey(cfg, c.keys, cfg.ActiveProvider)
	switch {
	case err != nil:
		ui.PrintKeyValue(out, t.GetMessage("config.api_key", 0, nil), t.GetMessage("config.api_key_unreadable", 0, nil))
	case key == "":
		ui.PrintKeyValue(out, t.GetMessage("config.api_key", 0, nil), t.GetMessage("config.api_key_missing", 0, nil))
	default:
		ui.PrintKeyValue(out, t.GetMessage("config.api_key", 0, nil),
			t.GetMessage("config.api_key_set", 0, struct{ Masked, Source string }{config.MaskKey(key), source}))
	}
}

func enabled(t *i18n.Translations, on bool) string {
	if on {
		return t.GetMessage("config.enabled", 0, nil)
	}
	return t.GetMessage("config.disabled", 0, nil)
}

// redacted returns a copy of cfg whose API keys are masked.
func redacted(cfg *config.Config) config.Config {
	cp := *cfg
	cp.Providers = make(map[config.AI]config.ProviderConfig, len(cfg.Providers))
	for name, p := range cfg.Providers {
		if p.APIKey != "" {
			p.APIKey = config.MaskKey(p.APIKey)
		}
		cp.Providers[name] = p
	}
	return cp
}
