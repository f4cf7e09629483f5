package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"comicpub/internal/config"
	"comicpub/internal/journal"
	"comicpub/internal/logging"
	"comicpub/internal/publish"
	"comicpub/internal/templates"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// ensureLogger writes to the command's stderr and to <log_dir>/comicpub.log,
// pruning rotated logs once per process.
func (c *commandContext) ensureLogger(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays)
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) loadTemplates() (*templates.Table, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return loadTemplateTable(cfg)
}

func loadTemplateTable(cfg *config.Config) (*templates.Table, error) {
	table, err := templates.Load(cfg.Templates.Path)
	if err != nil {
		return nil, fmt.Errorf("load template table: %w", err)
	}
	return table, nil
}

func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := journal.Open(cfg.Paths.JournalDB)
	if err != nil {
		return nil, fmt.Errorf("open push journal: %w", err)
	}
	return store, nil
}

// withPublisher builds a Publisher backed by the journal and closes the
// journal afterwards.
func (c *commandContext) withPublisher(cmd *cobra.Command, fn func(*publish.Publisher, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger(cmd)
	if err != nil {
		return err
	}
	table, err := c.loadTemplates()
	if err != nil {
		return err
	}
	store, err := c.openJournal()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(publish.New(cfg, table, logger, publish.WithJournal(store)), logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
