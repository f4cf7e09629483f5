package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"comicpub/internal/catalog"
	"comicpub/internal/config"
	"comicpub/internal/logging"
	"comicpub/internal/media"
	"comicpub/internal/notifications"
	"comicpub/internal/publish"
	"comicpub/internal/services"
)

// ErrArchiveRequired is returned when watch mode would republish the same
// files forever.
var ErrArchiveRequired = errors.New("watch mode requires [source].archive_after_publish = true")

// Publisher runs one publish.
type Publisher interface {
	Publish(ctx context.Context, req publish.Request) (*publish.Result, error)
}

// Watcher publishes the source folder after it has been quiet for the
// debounce period.
type Watcher struct {
	dir      string
	patterns []string
	debounce time.Duration
	pub      Publisher
	notifier notifications.Service
	logger   *slog.Logger
	ready    chan struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce overrides [watch].debounce_seconds.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithNotifier reports publish errors through n.
func WithNotifier(n notifications.Service) Option {
	return func(w *Watcher) {
		if n != nil {
			w.notifier = n
		}
	}
}

// New builds a Watcher for cfg's source folder.
func New(cfg *config.Config, pub Publisher, logger *slog.Logger, opts ...Option) (*Watcher, error) {
	if !cfg.Source.ArchiveAfterPublish {
		return nil, ErrArchiveRequired
	}
	if pub == nil {
		return nil, errors.New("watch: publisher is required")
	}
	w := &Watcher{
		dir:      cfg.Source.Dir,
		patterns: cfg.Source.Patterns,
		debounce: time.Duration(cfg.Watch.DebounceSeconds) * time.Second,
		pub:      pub,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewComponentLogger(logger, "watch"),
		ready:    make(chan struct{}),
	}
	if len(w.patterns) == 0 {
		w.patterns = config.DefaultSourcePatterns()
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.debounce <= 0 {
		w.debounce = 5 * time.Second
	}
	return w, nil
}

// Ready is closed once the folder is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Publishes run on this goroutine, one
// at a time.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create source dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	w.logger.Info("watching source folder",
		logging.String("dir", w.dir),
		logging.Duration("debounce", w.debounce),
	)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	var fire <-chan time.Time
	arm := func() {
		timer.Reset(w.debounce)
		fire = timer.C
	}

	if existing, err := media.Enumerate(w.dir, w.patterns); err == nil && len(existing) > 0 {
		w.logger.Info("unpublished media already present", logging.Int("files", len(existing)))
		arm()
	}
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("media event", logging.String("file", filepath.Base(event.Name)), logging.String("op", event.Op.String()))
			arm()
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(err))
		case <-fire:
			fire = nil
			if retry := w.publishOnce(ctx); retry {
				arm()
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	if name == "" || strings.HasPrefix(name, ".") || name == media.ArchiveDirName {
		return false
	}
	lower := strings.ToLower(name)
	for _, pattern := range w.patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, lower); ok {
			return true
		}
	}
	return false
}

// publishOnce runs a publish and reports whether it should be retried after
// another quiet period.
func (w *Watcher) publishOnce(ctx context.Context) bool {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, w.logger)
	result, err := w.pub.Publish(ctx, publish.Request{})
	switch {
	case err == nil:
		logger.Info("watch publish complete",
			logging.ComicID(result.Entry.ID),
			logging.Int("images", result.Entry.ImageCount),
		)
		return false
	case errors.Is(err, publish.ErrNoMediaFound):
		logger.Debug("nothing to publish")
		return false
	case errors.Is(err, catalog.ErrCatalogLocked):
		logger.Info("catalog busy; retrying after the next quiet period")
		return true
	case ctx.Err() != nil:
		return false
	default:
		logging.ErrorWithContext(logger, "watch publish failed", "watch_publish_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fix the problem and touch a file in the source folder to retry"),
		)
		if nerr := w.notifier.NotifyError(ctx, err, "watch publish"); nerr != nil {
			logger.Warn("error notification failed", logging.Error(nerr))
		}
		return false
	}
}
