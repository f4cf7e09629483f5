package config

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths locates the managed site tree and comicpub's own state.
type Paths struct {
	ProjectRoot string `toml:"project_root"`
	ImgDir      string `toml:"img_dir"`
	ComicsDir   string `toml:"comics_dir"`
	IndexFile   string `toml:"index_file"`
	ExportFile  string `toml:"export_file"`
	LogDir      string `toml:"log_dir"`
	JournalDB   string `toml:"journal_db"`
}

// Source describes where freshly generated images are picked up.
type Source struct {
	Dir                 string   `toml:"dir"`
	Patterns            []string `toml:"patterns"`
	ArchiveAfterPublish bool     `toml:"archive_after_publish"`
}

// Images controls how static images are re-encoded while staging.
type Images struct {
	Quality  int  `toml:"quality"`
	MaxWidth int  `toml:"max_width"`
	Compress bool `toml:"compress"`
}

// Git controls the snapshot-and-push step.
type Git struct {
	Enabled      bool   `toml:"enabled"`
	Remote       string `toml:"remote"`
	Branch       string `toml:"branch"`
	CommitPrefix string `toml:"commit_prefix"`
}

// Site holds text and snippets rendered into detail pages.
type Site struct {
	Name       string `toml:"name"`
	Footer     string `toml:"footer"`
	BackLink   string `toml:"back_link"`
	CounterURL string `toml:"counter_url"`
	AdsEnabled bool   `toml:"ads_enabled"`
	AdSlot     string `toml:"ad_slot"`
}

// Templates optionally replaces the built-in category table.
type Templates struct {
	Path string `toml:"path"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Published      bool   `toml:"published"`
	PushFailures   bool   `toml:"push_failures"`
	Errors         bool   `toml:"errors"`
}

// Watch contains configuration for watch mode.
type Watch struct {
	DebounceSeconds int `toml:"debounce_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for comicpub.
//
// Relative entries under [paths] (other than log_dir and journal_db, which
// default to per-user locations) resolve against paths.project_root, the git
// working tree that holds the published site.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Source        Source        `toml:"source"`
	Images        Images        `toml:"images"`
	Git           Git           `toml:"git"`
	Site          Site          `toml:"site"`
	Templates     Templates     `toml:"templates"`
	Notifications Notifications `toml:"notifications"`
	Watch         Watch         `toml:"watch"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the site tree and state directories. It is
// idempotent and runs at the start of every publish.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.ImgDir,
		c.Paths.ComicsDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.IndexFile),
		filepath.Dir(c.Paths.JournalDB),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SitePath converts an absolute path inside the project root into the
// slash-separated relative form stored in the catalog.
func (c *Config) SitePath(absPath string) (string, error) {
	rel, err := filepath.Rel(c.Paths.ProjectRoot, absPath)
	if err != nil {
		return "", fmt.Errorf("relative site path for %q: %w", absPath, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside project root %q", absPath, c.Paths.ProjectRoot)
	}
	return filepath.ToSlash(rel), nil
}

// CatalogLockPath returns the lock file guarding the catalog. It must stay
// outside the site tree (git add . stages everything there) and is keyed by
// the index path.
func (c *Config) CatalogLockPath() string {
	sum := sha256.Sum256([]byte(c.Paths.IndexFile))
	name := "catalog-" + hex.EncodeToString(sum[:6]) + ".lock"
	return filepath.Join(filepath.Dir(c.Paths.JournalDB), name)
}

// GitBinary returns the git executable name.
func (c *Config) GitBinary() string {
	return "git"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// resolveUnder expands home-relative and absolute values as-is and joins
// anything else onto root.
func resolveUnder(root, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, "~") || filepath.IsAbs(value) {
		return expandPath(value)
	}
	return filepath.Clean(filepath.Join(root, value)), nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
