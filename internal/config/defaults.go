package config

const (
	defaultConfigPath      = "~/.config/comicpub/config.toml"
	projectConfigName      = "comicpub.toml"
	defaultProjectRoot     = "."
	defaultImgDir          = "img"
	defaultComicsDir       = "comics"
	defaultIndexFile       = "comic-index.json"
	defaultExportFile      = "output/comic-index.json"
	defaultLogDir          = "~/.local/share/comicpub/logs"
	defaultJournalDB       = "~/.local/share/comicpub/journal.db"
	defaultSourceDir       = "~/AI_Comic_Output"
	defaultImageQuality    = 85
	defaultGitRemote       = "origin"
	defaultGitBranch       = "main"
	defaultCommitPrefix    = "Auto add comic"
	defaultSiteName        = "笑点制造机"
	defaultSiteFooter      = "© 笑点制造机 · AI辅助创作 · 仅供娱乐"
	defaultBackLink        = "../index.html"
	defaultRequestTimeout  = 10
	defaultDebounceSeconds = 5
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultRetentionDays   = 30

	envNtfyTopic = "COMICPUB_NTFY_TOPIC"
	envGitRemote = "COMICPUB_GIT_REMOTE"
)

// DefaultSourcePatterns lists the glob patterns used when [source].patterns is empty.
func DefaultSourcePatterns() []string {
	return []string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectRoot: defaultProjectRoot,
			ImgDir:      defaultImgDir,
			ComicsDir:   defaultComicsDir,
			IndexFile:   defaultIndexFile,
			ExportFile:  defaultExportFile,
			LogDir:      defaultLogDir,
			JournalDB:   defaultJournalDB,
		},
		Source: Source{
			Dir:      defaultSourceDir,
			Patterns: DefaultSourcePatterns(),
		},
		Images: Images{
			Quality:  defaultImageQuality,
			Compress: true,
		},
		Git: Git{
			Enabled:      true,
			Remote:       defaultGitRemote,
			Branch:       defaultGitBranch,
			CommitPrefix: defaultCommitPrefix,
		},
		Site: Site{
			Name:     defaultSiteName,
			Footer:   defaultSiteFooter,
			BackLink: defaultBackLink,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			Published:      true,
			PushFailures:   true,
			Errors:         true,
		},
		Watch: Watch{
			DebounceSeconds: defaultDebounceSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
