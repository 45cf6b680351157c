package suggest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/commands/completion_helper"
	"github.com/thomas-vilte/commitlens/internal/commands/handler"
	"github.com/thomas-vilte/commitlens/internal/config"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
	"github.com/thomas-vilte/commitlens/internal/pipeline"
	"github.com/thomas-vilte/commitlens/internal/services"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

// CommitService is the part of services.CommitService this command needs.
type CommitService interface {
	GenerateCommit(ctx context.Context, onState pipeline.StateFunc) (*models.PipelineResult, *services.AnalysisReport, error)
	Commit(ctx context.Context, message string) error
}

// ServiceProvider builds the commit service for the effective configuration
// of one invocation, after flag overrides were applied.
type ServiceProvider func(ctx context.Context, cfg *config.Config) (CommitService, error)

type SuggestCommandFactory struct {
	newService ServiceProvider
}

func NewSuggestCommandFactory(newService ServiceProvider) *SuggestCommandFactory {
	return &SuggestCommandFactory{newService: newService}
}

// Output is the --json document.
type Output struct {
	Result   *models.PipelineResult `json:"result,omitempty"`
	Analysis *models.DiffAnalysis   `json:"analysis,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func (f *SuggestCommandFactory) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:          "suggest",
		Aliases:       []string{"s"},
		Usage:         t.GetMessage("suggest_command_usage", 0, nil),
		Description:   t.GetMessage("suggest_command_description", 0, nil),
		Flags:         f.createFlags(cfg, t),
		ShellComplete: completion_helper.DefaultFlagComplete,
		Action:        f.createAction(cfg, t),
	}
}

func (f *SuggestCommandFactory) createFlags(cfg *config.Config, t *i18n.Translations) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "lang",
			Aliases: []string{"l"},
			Usage:   t.GetMessage("suggest_lang_flag_usage", 0, nil),
			Value:   cfg.Language,
		},
		&cli.IntFlag{
			Name:    "max-iterations",
			Aliases: []string{"i"},
			Usage:   t.GetMessage("suggest_max_iterations_flag_usage", 0, nil),
			Value:   cfg.Pipeline.MaxIterations,
		},
		&cli.BoolFlag{
			Name:    "commit",
			Aliases: []string{"c"},
			Usage:   t.GetMessage("suggest_commit_flag_usage", 0, nil),
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   t.GetMessage("suggest_yes_flag_usage", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "no-ast",
			Usage: t.GetMessage("suggest_no_ast_flag_usage", 0, nil),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: t.GetMessage("json_flag_usage", 0, nil),
		},
	}
}

func (f *SuggestCommandFactory) createAction(cfg *config.Config, t *i18n.Translations) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		log := logger.FromContext(ctx)
		out := command.Root().Writer

		lang := command.String("lang")
		maxIterations := command.Int("max-iterations")
		jsonOutput := command.Bool("json")

		log.Info("executing suggest command",
			"language", lang,
			"max_iterations", maxIterations,
			"commit", command.Bool("commit"),
			"no_ast", command.Bool("no-ast"),
			"json", jsonOutput)

		if !config.IsSupportedLanguage(lang) {
			return apperrors.ErrConfigInvalid.
				WithContext("language", lang).
				WithSuggestion(t.GetMessage("invalid_language", 0, struct{ Languages string }{"en, es"}))
		}
		if maxIterations < 1 {
			return apperrors.ErrConfigInvalid.
				WithContext("max_iterations", maxIterations).
				WithSuggestion(t.GetMessage("invalid_max_iterations", 0, nil))
		}

		// Overrides apply to this invocation only and are never saved.
		effective := *cfg
		effective.Language = lang
		effective.Pipeline.MaxIterations = maxIterations
		if command.Bool("no-ast") {
			effective.AST.Enabled = false
		}

		if err := t.SetLanguage(lang); err != nil {
			_ = t.SetLanguage(config.LangEN)
		}

		svc, err := f.newService(ctx, &effective)
		if err != nil {
			return err
		}

		var spinner *ui.SmartSpinner
		var onState pipeline.StateFunc
		if !jsonOutput {
			ui.PrintSectionBanner(out, t.GetMessage("ui.generating_banner", 0, nil))
			spinner = ui.NewSmartSpinner(out, t.GetMessage("analyzing_changes", 0, nil))
			spinner.Start()
			onState = func(s pipeline.State, iteration int) {
				if msg, ok := progressMessage(t, s, iteration); ok {
					spinner.UpdateMessage(msg)
				}
			}
		}

		start := time.Now()
		result, report, err := svc.GenerateCommit(ctx, onState)
		duration := time.Since(start)

		if spinner != nil {
			if err != nil {
				spinner.Error(t.GetMessage("ui.generation_failed", 0, nil))
			} else {
				spinner.Success(t.GetMessage("ui.message_generated", 0, nil), duration)
			}
		}

		if err != nil {
			log.Error("failed to generate commit message",
				"error", err,
				"duration_ms", duration.Milliseconds())
		} else {
			log.Info("commit message generated",
				"iterations", result.Iterations,
				"quality_score", result.FinalQualityScore,
				"duration_ms", duration.Milliseconds())
		}

		if jsonOutput {
			doc := Output{Result: result}
			if report != nil {
				doc.Analysis = &report.Analysis
			}
			if err != nil {
				doc.Error = err.Error()
			}
			if encErr := ui.PrintJSON(out, doc); encErr != nil {
				return fmt.Errorf("error encoding result: %w", encErr)
			}
		} else if result != nil {
			ui.RenderResult(out, result, t)
		}

		if err != nil {
			return err
		}

		if !command.Bool("commit") {
			return nil
		}

		var files []models.FileChange
		if report != nil {
			files = report.Analysis.FileChanges
		}
		// JSON mode is non-interactive and keeps stdout machine readable.
		handlerOut := out
		if jsonOutput {
			handlerOut = io.Discard
		}
		assumeYes := command.Bool("yes") || jsonOutput
		return handler.NewCommitHandler(svc, t, handlerOut).HandleResult(ctx, result, files, assumeYes)
	}
}

// progressMessage describes the working states of a run; terminal states have
// no message.
func progressMessage(t *i18n.Translations, s pipeline.State, iteration int) (string, bool) {
	switch s {
	case pipeline.StateGenerating, pipeline.StateReflecting, pipeline.StateVerifying, pipeline.StateRefining:
		return t.GetMessage("progress."+string(s), 0, struct{ Iteration int }{iteration}), true
	default:
		return "", false
	}
}
