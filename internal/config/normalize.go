package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.loadDotEnv(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeImages()
	c.normalizeGit()
	c.normalizeSite()
	if err := c.normalizeTemplates(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectRoot) == "" {
		c.Paths.ProjectRoot = defaultProjectRoot
	}
	if c.Paths.ProjectRoot, err = expandPath(strings.TrimSpace(c.Paths.ProjectRoot)); err != nil {
		return fmt.Errorf("paths.project_root: %w", err)
	}
	root := c.Paths.ProjectRoot

	fields := []struct {
		key      string
		value    *string
		fallback string
	}{
		{"paths.img_dir", &c.Paths.ImgDir, defaultImgDir},
		{"paths.comics_dir", &c.Paths.ComicsDir, defaultComicsDir},
		{"paths.index_file", &c.Paths.IndexFile, defaultIndexFile},
		{"paths.export_file", &c.Paths.ExportFile, defaultExportFile},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.journal_db", &c.Paths.JournalDB, defaultJournalDB},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		resolved, err := resolveUnder(root, *field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = resolved
	}
	return nil
}

// loadDotEnv reads <project_root>/.env without overriding variables that are
// already set in the process environment.
func (c *Config) loadDotEnv() error {
	path := filepath.Join(c.Paths.ProjectRoot, ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalizeSource() error {
	var err error
	if strings.TrimSpace(c.Source.Dir) == "" {
		c.Source.Dir = defaultSourceDir
	}
	if c.Source.Dir, err = resolveUnder(c.Paths.ProjectRoot, c.Source.Dir); err != nil {
		return fmt.Errorf("source.dir: %w", err)
	}
	patterns := make([]string, 0, len(c.Source.Patterns))
	seen := make(map[string]struct{}, len(c.Source.Patterns))
	for _, pattern := range c.Source.Patterns {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		patterns = append(patterns, trimmed)
	}
	if len(patterns) == 0 {
		patterns = DefaultSourcePatterns()
	}
	c.Source.Patterns = patterns
	return nil
}

func (c *Config) normalizeImages() {
	if c.Images.Quality == 0 {
		c.Images.Quality = defaultImageQuality
	}
	if c.Images.MaxWidth < 0 {
		c.Images.MaxWidth = 0
	}
}

func (c *Config) normalizeGit() {
	c.Git.Remote = strings.TrimSpace(c.Git.Remote)
	if c.Git.Remote == "" {
		if value, ok := os.LookupEnv(envGitRemote); ok && strings.TrimSpace(value) != "" {
			c.Git.Remote = strings.TrimSpace(value)
		} else {
			c.Git.Remote = defaultGitRemote
		}
	}
	c.Git.Branch = strings.TrimSpace(c.Git.Branch)
	if c.Git.Branch == "" {
		c.Git.Branch = defaultGitBranch
	}
	c.Git.CommitPrefix = strings.TrimSpace(c.Git.CommitPrefix)
	if c.Git.CommitPrefix == "" {
		c.Git.CommitPrefix = defaultCommitPrefix
	}
}

func (c *Config) normalizeSite() {
	c.Site.Name = strings.TrimSpace(c.Site.Name)
	if c.Site.Name == "" {
		c.Site.Name = defaultSiteName
	}
	c.Site.Footer = strings.TrimSpace(c.Site.Footer)
	c.Site.BackLink = strings.TrimSpace(c.Site.BackLink)
	if c.Site.BackLink == "" {
		c.Site.BackLink = defaultBackLink
	}
	c.Site.CounterURL = strings.TrimRight(strings.TrimSpace(c.Site.CounterURL), "/")
	c.Site.AdSlot = strings.TrimSpace(c.Site.AdSlot)
}

func (c *Config) normalizeTemplates() error {
	path := strings.TrimSpace(c.Templates.Path)
	if path == "" {
		c.Templates.Path = ""
		return nil
	}
	resolved, err := resolveUnder(c.Paths.ProjectRoot, path)
	if err != nil {
		return fmt.Errorf("templates.path: %w", err)
	}
	c.Templates.Path = resolved
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv(envNtfyTopic); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeWatch() {
	if c.Watch.DebounceSeconds == 0 {
		c.Watch.DebounceSeconds = defaultDebounceSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
