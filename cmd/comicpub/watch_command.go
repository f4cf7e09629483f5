package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"comicpub/internal/publish"
	"comicpub/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Publish automatically whenever images land in the source folder",
		Long:  "Watch the source folder and publish each batch after a quiet period. Stops on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withPublisher(cmd, func(pub *publish.Publisher, logger *slog.Logger) error {
				w, err := watch.New(cfg, pub, logger)
				if err != nil {
					return err
				}
				return w.Run(cmd.Context())
			})
		},
	}
}
