package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateGit(); err != nil {
		return err
	}
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
		"watch.debounce_seconds":        c.Watch.DebounceSeconds,
	}); err != nil {
		return err
	}
	return nil
}

// validatePaths requires the published tree to live inside the project root
// because catalog entries store paths relative to it.
func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ProjectRoot) == "" {
		return errors.New("paths.project_root must be set")
	}
	inside := map[string]string{
		"paths.img_dir":    c.Paths.ImgDir,
		"paths.comics_dir": c.Paths.ComicsDir,
		"paths.index_file": c.Paths.IndexFile,
	}
	for key, value := range inside {
		if _, err := c.SitePath(value); err != nil {
			return fmt.Errorf("%s must be inside paths.project_root: %w", key, err)
		}
	}
	if filepath.Clean(c.Paths.ImgDir) == filepath.Clean(c.Paths.ComicsDir) {
		return errors.New("paths.img_dir and paths.comics_dir must differ")
	}
	return nil
}

func (c *Config) validateSource() error {
	if strings.TrimSpace(c.Source.Dir) == "" {
		return errors.New("source.dir must be set")
	}
	if len(c.Source.Patterns) == 0 {
		return errors.New("source.patterns must include at least one pattern")
	}
	for _, pattern := range c.Source.Patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("source.patterns: invalid glob %q", pattern)
		}
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return errors.New("images.quality must be between 1 and 100")
	}
	return nil
}

func (c *Config) validateGit() error {
	if !c.Git.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Git.Remote) == "" {
		return errors.New("git.remote must be set when git.enabled is true")
	}
	if strings.TrimSpace(c.Git.Branch) == "" {
		return errors.New("git.branch must be set when git.enabled is true")
	}
	return nil
}

func (c *Config) validateSite() error {
	if c.Site.CounterURL != "" {
		parsed, err := url.Parse(c.Site.CounterURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("site.counter_url must be an http(s) URL, got %q", c.Site.CounterURL)
		}
	}
	if c.Site.AdsEnabled && c.Site.AdSlot == "" {
		return errors.New("site.ad_slot must be set when site.ads_enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
