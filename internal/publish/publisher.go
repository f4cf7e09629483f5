package publish

import (
	"context"
	"log/slog"
	"time"

	"comicpub/internal/catalog"
	"comicpub/internal/config"
	"comicpub/internal/gitsync"
	"comicpub/internal/journal"
	"comicpub/internal/logging"
	"comicpub/internal/media"
	"comicpub/internal/metadata"
	"comicpub/internal/notifications"
	"comicpub/internal/templates"
)

// Syncer snapshots and pushes the site tree.
type Syncer interface {
	Enabled() bool
	SnapshotAndPush(ctx context.Context, message string) error
}

// Publisher runs publish operations against one site.
type Publisher struct {
	cfg      *config.Config
	catalog  *catalog.Store
	resolver *metadata.Resolver
	stager   *media.Stager
	syncer   Syncer
	journal  *journal.Store
	notifier notifications.Service
	logger   *slog.Logger
	now      func() time.Time
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithSyncer replaces the git collaborator.
func WithSyncer(s Syncer) Option {
	return func(p *Publisher) {
		if s != nil {
			p.syncer = s
		}
	}
}

// WithJournal records runs and push outcomes in store.
func WithJournal(store *journal.Store) Option {
	return func(p *Publisher) { p.journal = store }
}

// WithNotifier replaces the ntfy service.
func WithNotifier(n notifications.Service) Option {
	return func(p *Publisher) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// New wires a Publisher from configuration and a template table.
func New(cfg *config.Config, table *templates.Table, logger *slog.Logger, opts ...Option) *Publisher {
	base := logger
	if base == nil {
		base = logging.NewNop()
	}
	stager := media.NewStager(media.Options{
		Quality:  cfg.Images.Quality,
		MaxWidth: cfg.Images.MaxWidth,
		Compress: cfg.Images.Compress,
	}, base)
	p := &Publisher{
		cfg:      cfg,
		resolver: metadata.NewResolver(table, base),
		stager:   stager,
		syncer:   gitsync.NewFromConfig(cfg, base),
		notifier: notifications.NewService(cfg),
		logger:   logging.NewComponentLogger(base, "publish"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	catalogOpts := []catalog.Option{
		catalog.WithLockPath(cfg.CatalogLockPath()),
		catalog.WithClock(p.now),
	}
	if table != nil {
		catalogOpts = append(catalogOpts, catalog.WithCategoryValidator(table.HasCategory))
	}
	p.catalog = catalog.Open(cfg.Paths.IndexFile, base, catalogOpts...)
	return p
}

// Catalog exposes the store the Publisher appends to.
func (p *Publisher) Catalog() *catalog.Store {
	return p.catalog
}
