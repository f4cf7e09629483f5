package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"comicpub/internal/journal"
	"comicpub/internal/publish"
)

func newPushCommand(ctx *commandContext) *cobra.Command {
	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Retry or inspect git pushes",
	}
	pushCmd.AddCommand(newPushRetryCommand(ctx))
	pushCmd.AddCommand(newPushHistoryCommand(ctx))
	return pushCmd
}

func newPushRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Push every comic whose earlier push failed or was skipped",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPublisher(cmd, func(pub *publish.Publisher, logger *slog.Logger) error {
				runs, err := pub.RetryPushes(cmd.Context())
				out := cmd.OutOrStdout()
				if err != nil {
					if len(runs) > 0 {
						fmt.Fprintf(out, "Push failed for %d pending run(s)\n", len(runs))
					}
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "Nothing to push")
					return nil
				}
				fmt.Fprintf(out, "Pushed %d pending run(s)\n", len(runs))
				for _, run := range runs {
					fmt.Fprintf(out, "  %s\n", run.ComicID)
				}
				return nil
			})
		},
	}
}

func newPushHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent publish runs and their push state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No publish runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					textColumn("Comic"), textColumn("Status"), numberColumn("Attempts"),
					textColumn("Updated"), textColumn("Last error"),
				},
				historyRows(runs),
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func historyRows(runs []journal.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ComicID,
			string(run.Status),
			strconv.Itoa(run.Attempts),
			run.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			run.LastError,
		})
	}
	return rows
}
