package cache

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/thomas-vilte/commitlens/internal/cache"
	"github.com/thomas-vilte/commitlens/internal/config"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/ui"
)

type CacheCommand struct{}

func NewCacheCommand() *CacheCommand {
	return &CacheCommand{}
}

func (c *CacheCommand) CreateCommand(t *i18n.Translations, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: t.GetMessage("cache.usage", 0, nil),
		Commands: []*cli.Command{
			{
				Name:  "clean",
				Usage: t.GetMessage("cache.clean_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					responses, err := open(cfg)
					if err != nil {
						return err
					}
					if err := responses.Clean(); err != nil {
						return err
					}
					ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("cache.cleaned", 0, nil))
					return nil
				},
			},
			{
				Name:  "prune",
				Usage: t.GetMessage("cache.prune_usage", 0, nil),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					responses, err := open(cfg)
					if err != nil {
						return err
					}
					if err := responses.CleanExpired(); err != nil {
						return err
					}
					ui.PrintSuccess(cmd.Root().Writer, t.GetMessage("cache.pruned", 0, nil))
					return nil
				},
			},
		},
	}
}

func open(cfg *config.Config) (*cache.Cache, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.NewCache(dir, cfg.Cache.TTL.Duration)
}
