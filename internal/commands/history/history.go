package history

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/commands/completion_helper"
	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/history"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

const defaultLimit = 10

// Reader reads the recorded pipeline runs.
type Reader interface {
	History(ctx context.Context, limit int) ([]history.Run, error)
	Stats(ctx context.Context) (history.Stats, error)
}

type ReaderProvider func(ctx context.Context, cfg *config.Config) (Reader, error)

type HistoryCommandFactory struct {
	newReader ReaderProvider
}

func NewHistoryCommandFactory(newReader ReaderProvider) *HistoryCommandFactory {
	return &HistoryCommandFactory{newReader: newReader}
}

func (f *HistoryCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"log"},
		Usage:   t.GetMessage("history_command_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Value:   defaultLimit,
				Usage:   t.GetMessage("history_limit_flag_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:    "stats",
				Aliases: []string{"s"},
				Usage:   t.GetMessage("history_stats_flag_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: t.GetMessage("json_flag_usage", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer

			if !cfg.History.Enabled {
				ui.PrintInfo(out, t.GetMessage("history.disabled", 0, nil))
				return nil
			}

			limit := command.Int("limit")
			if limit < 1 {
				limit = defaultLimit
			}

			reader, err := f.newReader(ctx, cfg)
			if err != nil {
				return err
			}

			if command.Bool("stats") {
				stats, err := reader.Stats(ctx)
				if err != nil {
					return err
				}
				if command.Bool("json") {
					return encode(out, stats)
				}
				ui.PrintSectionBanner(out, t.GetMessage("history.stats_title", 0, nil))
				ui.RenderStats(out, stats, t)
				return nil
			}

			runs, err := reader.History(ctx, limit)
			if err != nil {
				return err
			}
			if command.Bool("json") {
				return encode(out, runs)
			}
			ui.PrintSectionBanner(out, t.GetMessage("history.title", 0, struct{ Count int }{len(runs)}))
			ui.RenderHistory(out, runs, t)
			return nil
		},
	}
}

func encode(out io.Writer, v any) error {
	if err := ui.PrintJSON(out, v); err != nil {
		return fmt.Errorf("error encoding history: %w", err)
	}
	return nil
}
