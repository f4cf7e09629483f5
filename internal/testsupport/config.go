package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"comicpub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The site lives in <base>/site, source media in <base>/source and state
// (logs, journal, lock) in <base>/state. Git and notifications are off.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	site := filepath.Join(base, "site")
	cfgVal := config.Default()
	cfgVal.Paths.ProjectRoot = site
	cfgVal.Paths.ImgDir = filepath.Join(site, "img")
	cfgVal.Paths.ComicsDir = filepath.Join(site, "comics")
	cfgVal.Paths.IndexFile = filepath.Join(site, "comic-index.json")
	cfgVal.Paths.ExportFile = filepath.Join(site, "output", "comic-index.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Paths.JournalDB = filepath.Join(base, "state", "journal.db")
	cfgVal.Source.Dir = filepath.Join(base, "source")
	cfgVal.Git.Enabled = false
	cfgVal.Notifications.NtfyTopic = ""
	cfgVal.Watch.DebounceSeconds = 1

	if err := os.MkdirAll(cfgVal.Source.Dir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGit enables git against the given remote name and branch.
func WithGit(remote, branch string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Git.Enabled = true
		b.cfg.Git.Remote = remote
		b.cfg.Git.Branch = branch
	}
}

// WithArchive turns on archiving of published source files.
func WithArchive() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Source.ArchiveAfterPublish = true
	}
}

// WithNtfyTopic points notifications at url.
func WithNtfyTopic(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = url
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"git"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ProjectRoot)
}
