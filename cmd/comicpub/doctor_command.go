package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"comicpub/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, catalog, journal, git and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			lines := renderSectionHeader("Configuration", colorize)
			lines = append(lines,
				renderStatusLine("Config file", statusInfo, ctx.configPath, colorize),
				renderStatusLine("Project root", statusInfo, cfg.Paths.ProjectRoot, colorize),
				renderStatusLine("Git", statusInfo, gitSummary(cfg.Git.Enabled, cfg.Git.Remote, cfg.Git.Branch), colorize),
				"",
			)

			depLines, depFailures := dependencyLines(preflight.CheckSystemDeps(cmd.Context(), cfg), colorize)
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, depLines...)
			lines = append(lines, "")

			checks, checkFailures := checkLines(preflight.RunAll(cmd.Context(), cfg, logger), colorize)
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			lines = append(lines, checks...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failures := depFailures + checkFailures; failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}

func gitSummary(enabled bool, remote, branch string) string {
	if !enabled {
		return "disabled"
	}
	return fmt.Sprintf("push to %s/%s", remote, branch)
}
