package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"comicpub/internal/catalog"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the comic index",
	}
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	catalogCmd.AddCommand(newCatalogNextIDCommand(ctx))
	catalogCmd.AddCommand(newCatalogExportCommand(ctx))
	return catalogCmd
}

func (c *commandContext) catalogStore(cmd *cobra.Command) (*catalog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(cmd)
	if err != nil {
		return nil, err
	}
	return catalog.Open(cfg.Paths.IndexFile, logger, catalog.WithLockPath(cfg.CatalogLockPath())), nil
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries in publish order",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.catalogStore(cmd)
			if err != nil {
				return err
			}
			cat, err := store.Read()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, cat)
			}
			out := cmd.OutOrStdout()
			if cat.Len() == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}
			rows := make([][]string, 0, cat.Len())
			for _, e := range cat.Comics {
				count := e.ImageCount
				if count == 0 {
					count = 1
				}
				rows = append(rows, []string{
					e.ID,
					e.Title,
					strings.TrimSpace(e.Category + " " + e.SubCategory),
					strconv.Itoa(count),
					yesNo(e.HasAnimatedImage),
					e.CreatedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]tableColumn{
					textColumn("ID"), textColumn("Title"), textColumn("Category"),
					numberColumn("Images"), textColumn("GIF"), textColumn("Created"),
				},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newCatalogNextIDCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "next-id",
		Short: "Show the id the next publish will receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.catalogStore(cmd)
			if err != nil {
				return err
			}
			cat, err := store.Read()
			if err != nil {
				return err
			}
			next, err := cat.NextNumber()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), catalog.IDFromNumber(next))
			return nil
		},
	}
}

func newCatalogExportCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the reduced index consumed by the site front page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.catalogStore(cmd)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(outPath)
			if target == "" {
				target = cfg.Paths.ExportFile
			}
			if target == "" {
				return fmt.Errorf("no export path: set [paths].export_file or pass --out")
			}
			if err := store.ExportFrontend(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported frontend index to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination (defaults to [paths].export_file)")
	return cmd
}
