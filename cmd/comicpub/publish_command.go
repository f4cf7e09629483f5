package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"comicpub/internal/logging"
	"comicpub/internal/notifications"
	"comicpub/internal/publish"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var req publish.Request

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the images waiting in the source folder as one comic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPublisher(cmd, func(pub *publish.Publisher, logger *slog.Logger) error {
				result, err := pub.Publish(cmd.Context(), req)
				if err != nil {
					if !errors.Is(err, publish.ErrNoMediaFound) {
						reportFailure(cmd, ctx, logger, err)
					}
					return err
				}
				printPublishResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.OverridePath, "override", "o", "", "Metadata override document (JSON or YAML)")
	cmd.Flags().StringVarP(&req.SourceDir, "source", "s", "", "Source folder (defaults to [source].dir)")
	cmd.Flags().BoolVar(&req.NoPush, "no-push", false, "Record the comic but skip git commit and push")
	return cmd
}

func printPublishResult(cmd *cobra.Command, result *publish.Result) {
	out := cmd.OutOrStdout()
	entry := result.Entry
	fmt.Fprintf(out, "Published %s: %s\n", entry.ID, entry.Title)
	fmt.Fprintf(out, "  Category: %s / %s\n", entry.Category, entry.SubCategory)
	fmt.Fprintf(out, "  Images:   %d (gif: %s)\n", entry.ImageCount, yesNo(entry.HasAnimatedImage))
	fmt.Fprintf(out, "  Page:     %s\n", entry.DetailPagePath)
	if result.ArchivedTo != "" {
		fmt.Fprintf(out, "  Archived: %s\n", result.ArchivedTo)
	}
	switch {
	case result.Pushed:
		fmt.Fprintln(out, "  Push:     ok")
	case result.PushErr != nil:
		fmt.Fprintf(out, "  Push:     failed (%s); run `comicpub push retry`\n", strings.TrimSpace(result.PushErr.Error()))
	default:
		fmt.Fprintln(out, "  Push:     skipped")
	}
}

func reportFailure(cmd *cobra.Command, ctx *commandContext, logger *slog.Logger, err error) {
	cfg, cfgErr := ctx.ensureConfig()
	if cfgErr != nil {
		return
	}
	if nerr := notifications.NewService(cfg).NotifyError(cmd.Context(), err, "publish"); nerr != nil {
		logger.Warn("error notification failed", logging.Error(nerr))
	}
}
