package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the category template table",
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List categories and sub-categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := ctx.loadTemplates()
			if err != nil {
				return err
			}
			categories := table.Categories()
			if asJSON {
				return writeJSON(cmd, categories)
			}
			defCat, defSub := table.DefaultPair()
			rows := make([][]string, 0, table.Len())
			for _, category := range categories {
				for _, sub := range category.Subs {
					marker := ""
					if category.Name == defCat && sub.Name == defSub {
						marker = "default"
					}
					rows = append(rows, []string{category.Name, sub.Name, sub.DefaultTitle, sub.SubTopic, marker})
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{
					textColumn("Category"), textColumn("Sub-category"), textColumn("Default title"),
					textColumn("Sub-topic"), textColumn(""),
				},
				rows,
			))
			return nil
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	templatesCmd.AddCommand(listCmd)
	return templatesCmd
}
