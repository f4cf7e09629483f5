package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"comicpub/internal/catalog"
	"comicpub/internal/metadata"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var overridePath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show the metadata the next publish would use, without publishing",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}
			table, err := ctx.loadTemplates()
			if err != nil {
				return err
			}
			store, err := ctx.catalogStore(cmd)
			if err != nil {
				return err
			}
			cat, err := store.Read()
			if err != nil {
				return err
			}
			number, err := cat.NextNumber()
			if err != nil {
				return err
			}

			md := metadata.NewResolver(table, logger).Resolve(cmd.Context(), number, overridePath)
			if asJSON {
				return writeJSON(cmd, md)
			}

			fields := []struct {
				name  string
				label string
				value string
			}{
				{"", "ID", catalog.IDFromNumber(number)},
				{metadata.FieldTitle, "Title", md.Title},
				{metadata.FieldTopic, "Topic", md.Topic},
				{metadata.FieldCategory, "Category", md.Category},
				{metadata.FieldSubCategory, "Sub-category", md.SubCategory},
				{metadata.FieldSubTopic, "Sub-topic", md.SubTopic},
				{metadata.FieldFunnyExample, "Funny example", md.FunnyExample},
			}
			rows := make([][]string, 0, len(fields))
			for _, f := range fields {
				source := ""
				if f.name != "" {
					source = string(md.Sources[f.name])
				}
				rows = append(rows, []string{f.label, f.value, source})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{textColumn("Field"), textColumn("Value"), textColumn("Source")},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&overridePath, "override", "o", "", "Metadata override document (JSON or YAML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
