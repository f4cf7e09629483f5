package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"comicpub/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set [paths].project_root to your site checkout and [source].dir to the folder your images land in.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = strings.TrimSpace(*ctx.configFlag)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Configuration", colorize)

			cfg, resolved, exists, err := config.Load(path)
			if err != nil {
				lines = append(lines, renderStatusLine("Config file", statusError, err.Error(), colorize))
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				return fmt.Errorf("load config: %w", err)
			}
			fileKind, fileNote := statusOK, resolved
			if !exists {
				fileKind, fileNote = statusWarn, resolved+" (missing; defaults used)"
			}
			lines = append(lines,
				renderStatusLine("Config file", fileKind, fileNote, colorize),
				renderStatusLine("Project root", statusInfo, cfg.Paths.ProjectRoot, colorize),
				renderStatusLine("Index", statusInfo, cfg.Paths.IndexFile, colorize),
				renderStatusLine("Source", statusInfo, fmt.Sprintf("%s (%s)", cfg.Source.Dir, strings.Join(cfg.Source.Patterns, ", ")), colorize),
				renderStatusLine("Git", statusInfo, gitSummary(cfg.Git.Enabled, cfg.Git.Remote, cfg.Git.Branch), colorize),
			)

			table, err := loadTemplateTable(cfg)
			if err != nil {
				lines = append(lines, renderStatusLine("Templates", statusError, err.Error(), colorize))
				fmt.Fprintln(out, strings.Join(lines, "\n"))
				return err
			}
			source := "built-in"
			if cfg.Templates.Path != "" {
				source = cfg.Templates.Path
			}
			lines = append(lines,
				renderStatusLine("Templates", statusOK, fmt.Sprintf("%s (%d pairs)", source, table.Len()), colorize),
				"",
				"Configuration valid",
			)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}
