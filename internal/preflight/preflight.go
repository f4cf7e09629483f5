package preflight

import (
	"context"
	"log/slog"

	"comicpub/internal/config"
	"comicpub/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled. Only the
// journal database may be created.
func RunAll(ctx context.Context, cfg *config.Config, logger *slog.Logger) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Project root", cfg.Paths.ProjectRoot))
	results = append(results, CheckOptionalDirectory("Image directory", cfg.Paths.ImgDir))
	results = append(results, CheckOptionalDirectory("Comics directory", cfg.Paths.ComicsDir))
	results = append(results, CheckSourceDirectory(cfg))
	results = append(results, CheckCatalog(cfg.Paths.IndexFile, logger))
	results = append(results, CheckTemplates(cfg.Templates.Path))
	results = append(results, CheckJournal(cfg.Paths.JournalDB))

	if cfg.Git.Enabled {
		results = append(results, CheckGitRepository(ctx, cfg, logger))
	}
	results = append(results, CheckNotifications(cfg))

	return results
}

// CheckSystemDeps evaluates the external binaries required by cfg.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "git",
			Command:     cfg.GitBinary(),
			Description: "Required to commit and push the site",
			Optional:    !cfg.Git.Enabled,
			VersionArgs: []string{"--version"},
		},
	}
	return deps.CheckBinaries(ctx, requirements)
}
