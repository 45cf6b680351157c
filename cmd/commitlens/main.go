package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/commands/analyze"
	"github.com/thomas-vilte/commitlens/internal/commands/cache"
	configcmd "github.com/thomas-vilte/commitlens/internal/commands/config"
	"github.com/thomas-vilte/commitlens/internal/commands/completion"
	historycmd "github.com/thomas-vilte/commitlens/internal/commands/history"
	"github.com/thomas-vilte/commitlens/internal/commands/registry"
	"github.com/thomas-vilte/commitlens/internal/commands/suggest"
	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/ui"
	"github.com/thomas-vilte/commitlens/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, a, translations, err := initializeApp()
	if err != nil {
		log.Fatalf("Error starting commitlens: %v", err)
	}

	runErr := cmd.Run(ctx, os.Args)
	a.Close(ctx)

	if runErr != nil {
		ui.StopActiveSpinner()
		ui.HandleAppError(os.Stderr, runErr, translations)
		stop()
		os.Exit(1)
	}
}

func initializeApp() (*cli.Command, *app, *i18n.Translations, error) {
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		return nil, nil, nil, err
	}

	translations, err := i18n.NewTranslations(cfg.Language, "")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading translations: %w", err)
	}

	a := newApp(config.NewKeyStore())

	registerCommand := registry.NewRegistry(cfg, translations)

	if err := registerCommand.Register("suggest", suggest.NewSuggestCommandFactory(a.commitServiceProvider)); err != nil {
		return nil, nil, nil, fmt.Errorf("error registering 'suggest': %w", err)
	}
	if err := registerCommand.Register("analyze", analyze.NewAnalyzeCommandFactory(a.analyzerProvider)); err != nil {
		return nil, nil, nil, fmt.Errorf("error registering 'analyze': %w", err)
	}
	if err := registerCommand.Register("history", historycmd.NewHistoryCommandFactory(a.historyProvider)); err != nil {
		return nil, nil, nil, fmt.Errorf("error registering 'history': %w", err)
	}
	if err := registerCommand.Register("config", configcmd.NewConfigCommandFactory(a.keys)); err != nil {
		return nil, nil, nil, fmt.Errorf("error registering 'config': %w", err)
	}
	if err := registerCommand.Register("cache", cache.NewCacheCommand()); err != nil {
		return nil, nil, nil, fmt.Errorf("error registering 'cache': %w", err)
	}

	commands := registerCommand.CreateCommands()
	commands = append(commands, completion.NewCompletionCommand(translations))

	helpCommand := &cli.Command{
		Name:    "help",
		Aliases: []string{"h"},
		Usage:   translations.GetMessage("help_command_usage", 0, nil),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
	}
	commands = append(commands, helpCommand)

	return &cli.Command{
		Name:                  "commitlens",
		Usage:                 translations.GetMessage("app_usage", 0, nil),
		Version:               version.FullVersion(),
		Description:           translations.GetMessage("app_description", 0, nil),
		Commands:              commands,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: translations.GetMessage("debug_flag_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: translations.GetMessage("verbose_flag_usage", 0, nil),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			debug := cmd.Bool("debug") || cfg.Pipeline.Debug
			logger.Initialize(debug, cmd.Bool("verbose"))
			return logger.WithLogger(ctx, logger.New(os.Stderr, debug, cmd.Bool("verbose"))), nil
		},
	}, a, translations, nil
}
