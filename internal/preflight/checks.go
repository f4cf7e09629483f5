package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"comicpub/internal/catalog"
	"comicpub/internal/config"
	"comicpub/internal/gitsync"
	"comicpub/internal/journal"
	"comicpub/internal/media"
	"comicpub/internal/templates"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOptionalDirectory passes for a missing directory that publish will
// create, and otherwise applies CheckDirectoryAccess.
func CheckOptionalDirectory(name, path string) Result {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first publish)", path)}
	}
	return CheckDirectoryAccess(name, path)
}

// CheckSourceDirectory reports the source folder and how many files are
// waiting to be published.
func CheckSourceDirectory(cfg *config.Config) Result {
	const name = "Source directory"
	result := CheckDirectoryAccess(name, cfg.Source.Dir)
	if !result.Passed {
		return result
	}
	files, err := media.Enumerate(cfg.Source.Dir, cfg.Source.Patterns)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Source.Dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d file(s) waiting)", cfg.Source.Dir, len(files))}
}

// CheckCatalog parses the index document without creating it and reports the
// next id.
func CheckCatalog(path string, logger *slog.Logger) Result {
	const name = "Catalog"
	cat, err := catalog.Open(path, logger).Read()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	next, err := cat.NextNumber()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%d entries, next %s", cat.Len(), catalog.IDFromNumber(next)),
	}
}

// CheckTemplates loads the template table (builtin when path is empty).
func CheckTemplates(path string) Result {
	const name = "Template table"
	table, err := templates.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	source := "builtin"
	if strings.TrimSpace(path) != "" {
		source = path
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d categories, %d pairs)", source, len(table.Categories()), table.Len())}
}

// CheckJournal opens (and if needed creates) the push journal database.
func CheckJournal(path string) Result {
	const name = "Push journal"
	store, err := journal.Open(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckGitRepository verifies the project root is a git work tree.
func CheckGitRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) Result {
	const name = "Git repository"
	syncer := gitsync.NewFromConfig(cfg, logger)
	if err := syncer.VerifyRepository(ctx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s → %s/%s", cfg.Paths.ProjectRoot, cfg.Git.Remote, cfg.Git.Branch)}
}

// CheckNotifications reports whether ntfy is configured. It never sends.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	return Result{Name: name, Passed: true, Detail: topic}
}
