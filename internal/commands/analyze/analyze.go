package analyze

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/commands/completion_helper"
	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/services"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

// Analyzer runs the structural and syntax-tree analysis of the staged changes.
type Analyzer interface {
	Analyze(ctx context.Context) (*services.AnalysisReport, error)
}

type AnalyzerProvider func(ctx context.Context, cfg *config.Config) (Analyzer, error)

type AnalyzeCommandFactory struct {
	newAnalyzer AnalyzerProvider
}

func NewAnalyzeCommandFactory(newAnalyzer AnalyzerProvider) *AnalyzeCommandFactory {
	return &AnalyzeCommandFactory{newAnalyzer: newAnalyzer}
}

func (f *AnalyzeCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:        "analyze",
		Aliases:     []string{"a"},
		Usage:       t.GetMessage("analyze_command_usage", 0, nil),
		Description: t.GetMessage("analyze_command_description", 0, nil),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: t.GetMessage("json_flag_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "no-ast",
				Usage: t.GetMessage("suggest_no_ast_flag_usage", 0, nil),
			},
		},
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action: func(ctx context.Context, command *cli.Command) error {
			out := command.Root().Writer

			effective := *cfg
			if command.Bool("no-ast") {
				effective.AST.Enabled = false
			}

			svc, err := f.newAnalyzer(ctx, &effective)
			if err != nil {
				return err
			}

			report, err := svc.Analyze(ctx)
			if err != nil {
				return err
			}
			logger.Info(ctx, "analysis finished",
				"files", report.Analysis.Summary.TotalFiles,
				"complexity", report.Analysis.Complexity,
				"ast_files", len(report.AST))

			if command.Bool("json") {
				if err := ui.PrintJSON(out, report); err != nil {
					return fmt.Errorf("error encoding analysis: %w", err)
				}
				return nil
			}

			ui.PrintSectionBanner(out, t.GetMessage("analysis.title", 0, nil))
			ui.RenderAnalysis(out, report.Changes, report.Analysis, report.AST, t)
			return nil
		},
	}
}
