package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"comicpub/internal/catalog"
	"comicpub/internal/fileutil"
	"comicpub/internal/gitsync"
	"comicpub/internal/journal"
	"comicpub/internal/logging"
	"comicpub/internal/media"
	"comicpub/internal/metadata"
	"comicpub/internal/render"
	"comicpub/internal/services"
)

// Request describes one publish.
type Request struct {
	// OverridePath points at an optional JSON/YAML metadata document.
	OverridePath string
	// SourceDir replaces [source].dir for this run.
	SourceDir string
	// NoPush skips git; the run stays push_pending in the journal.
	NoPush bool
}

// Result reports what a publish produced. PushErr is set when the entry was
// recorded but the site could not be pushed.
type Result struct {
	RunID       string
	Entry       catalog.Entry
	Metadata    metadata.Metadata
	Sources     []string
	StagedFiles []string
	ArchivedTo  string
	Pushed      bool
	PushErr     error
}

// Publish turns the media in the source folder into one catalog entry.
// Failures before the catalog append undo any files written so far; a push
// failure after the append is reported on the Result and never undone.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := journal.NewRunID()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	sourceDir := strings.TrimSpace(req.SourceDir)
	if sourceDir == "" {
		sourceDir = p.cfg.Source.Dir
	}
	sources, err := media.Enumerate(sourceDir, p.cfg.Source.Patterns)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrNoMediaFound, err)
		}
		return nil, fmt.Errorf("enumerate source media: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMediaFound, sourceDir)
	}
	logger.Info("source media found", logging.String("dir", sourceDir), logging.Int("files", len(sources)))

	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	unlock, err := p.catalog.Lock()
	if err != nil {
		return nil, err
	}
	result, err := p.record(services.WithStage(ctx, "record"), runID, sources, req.OverridePath)
	unlock()
	if err != nil {
		return nil, err
	}
	ctx = services.WithComicID(ctx, result.Entry.ID)
	logger = logging.WithContext(ctx, p.logger)

	if p.cfg.Source.ArchiveAfterPublish {
		result.ArchivedTo = p.archive(logger, sourceDir, result.Entry.ID, sources)
	}
	p.exportFrontend(logger)
	pushCtx := services.WithStage(ctx, "distribute")
	p.distribute(pushCtx, logging.WithContext(pushCtx, p.logger), result, req.NoPush)

	if err := p.notifier.NotifyPublished(ctx, result.Entry.ID, result.Entry.Title, result.Entry.ImageCount); err != nil {
		logger.Warn("publish notification failed", logging.Error(err))
	}
	logger.Info("publish complete",
		logging.String("title", result.Entry.Title),
		logging.String("html", result.Entry.DetailPagePath),
		logging.Bool("pushed", result.Pushed),
	)
	return result, nil
}

// record performs every step that must happen under the catalog lock.
func (p *Publisher) record(ctx context.Context, runID string, sources []string, overridePath string) (*Result, error) {
	number, err := p.catalog.AllocateNextID()
	if err != nil {
		return nil, fmt.Errorf("allocate id: %w", err)
	}
	id := catalog.IDFromNumber(number)
	ctx = services.WithComicID(ctx, id)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("allocated id")

	meta := p.resolver.Resolve(ctx, number, overridePath)

	result := &Result{RunID: runID, Metadata: meta, Sources: sources}
	var written []string
	cleanup := func() {
		for _, path := range written {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				logger.Warn("cleanup failed", logging.Path(path), logging.Error(err))
			}
		}
	}

	sitePaths := make([]string, 0, len(sources))
	pageImages := make([]string, 0, len(sources))
	animated := false
	for i, src := range sources {
		dst := filepath.Join(p.cfg.Paths.ImgDir, media.StagedName(id, i+1, src))
		if err := p.stager.Stage(src, dst); err != nil {
			cleanup()
			return nil, fmt.Errorf("stage %s: %w", filepath.Base(src), err)
		}
		written = append(written, dst)
		sitePath, err := p.cfg.SitePath(dst)
		if err != nil {
			cleanup()
			return nil, err
		}
		pageImage, err := relativeURL(p.cfg.Paths.ComicsDir, dst)
		if err != nil {
			cleanup()
			return nil, err
		}
		sitePaths = append(sitePaths, sitePath)
		pageImages = append(pageImages, pageImage)
		animated = animated || media.IsAnimated(src)
		logger.Info("image staged", logging.String("source", filepath.Base(src)), logging.String("img", sitePath))
	}
	result.StagedFiles = append([]string(nil), written...)

	htmlPath := filepath.Join(p.cfg.Paths.ComicsDir, id+".html")
	page, err := render.Render(p.page(id, meta, pageImages))
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := fileutil.AtomicWriteFile(htmlPath, page, 0o644); err != nil {
		cleanup()
		return nil, fmt.Errorf("write detail page: %w", err)
	}
	written = append(written, htmlPath)
	htmlSitePath, err := p.cfg.SitePath(htmlPath)
	if err != nil {
		cleanup()
		return nil, err
	}
	logger.Info("detail page rendered", logging.String("html", htmlSitePath))

	entry := catalog.Entry{
		ID:               id,
		Title:            meta.Title,
		Topic:            meta.Topic,
		Category:         meta.Category,
		SubCategory:      meta.SubCategory,
		SubTopic:         meta.SubTopic,
		FunnyExample:     meta.FunnyExample,
		PrimaryImagePath: sitePaths[0],
		ImagePaths:       sitePaths,
		ImageCount:       len(sitePaths),
		HasAnimatedImage: animated,
		DetailPagePath:   htmlSitePath,
		CreatedAt:        p.now().Format(catalog.TimeLayout),
	}
	if err := p.catalog.Append(entry); err != nil {
		cleanup()
		return nil, fmt.Errorf("append catalog entry: %w", err)
	}
	logger.Info("catalog entry appended", logging.String("index", p.catalog.Path()))
	result.Entry = entry
	return result, nil
}

func (p *Publisher) page(id string, meta metadata.Metadata, images []string) render.Page {
	site := p.cfg.Site
	return render.Page{
		ID:         id,
		Title:      meta.Title,
		Topic:      meta.Topic,
		Category:   meta.Category,
		SubTopic:   meta.SubTopic,
		Images:     images,
		SiteName:   site.Name,
		Footer:     site.Footer,
		BackLink:   site.BackLink,
		CounterURL: site.CounterURL,
		AdsEnabled: site.AdsEnabled,
		AdSlot:     site.AdSlot,
	}
}

// archive moves published sources under <source>/published/<id>/ so the
// source folder only holds unpublished media. Failures are logged.
func (p *Publisher) archive(logger *slog.Logger, sourceDir, id string, sources []string) string {
	dest := filepath.Join(sourceDir, media.ArchiveDirName, id)
	for _, src := range sources {
		rel, err := filepath.Rel(sourceDir, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		target := filepath.Join(dest, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			logging.WarnWithContext(logger, "archive directory unavailable", "archive_failed",
				logging.Path(filepath.Dir(target)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "source stays in place and will be published again by watch mode"),
			)
			return ""
		}
		if err := fileutil.MoveFile(src, target); err != nil {
			logging.WarnWithContext(logger, "archive move failed", "archive_failed",
				logging.String("source", src),
				logging.Error(err),
				logging.String(logging.FieldImpact, "source stays in place and will be published again by watch mode"),
			)
			continue
		}
	}
	logger.Info("sources archived", logging.String("dir", dest))
	return dest
}

func (p *Publisher) exportFrontend(logger *slog.Logger) {
	dst := strings.TrimSpace(p.cfg.Paths.ExportFile)
	if dst == "" {
		return
	}
	if err := p.catalog.ExportFrontend(dst); err != nil {
		logging.WarnWithContext(logger, "frontend index export failed", "export_failed",
			logging.Path(dst),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run comicpub catalog export"),
			logging.String(logging.FieldImpact, "front page lists stale entries"),
		)
	}
}

// distribute journals the run and pushes it. Nothing here can fail the publish.
func (p *Publisher) distribute(ctx context.Context, logger *slog.Logger, result *Result, noPush bool) {
	message := gitsync.CommitMessage(p.cfg.Git.CommitPrefix, result.Entry.ID, p.now())
	status := journal.StatusPushPending
	if !p.syncer.Enabled() {
		status = journal.StatusPublished
	}
	p.journalRun(ctx, logger, journal.Run{
		RunID:         result.RunID,
		ProjectRoot:   p.cfg.Paths.ProjectRoot,
		ComicID:       result.Entry.ID,
		Status:        status,
		CommitMessage: message,
	})
	if !p.syncer.Enabled() {
		logger.Info("git disabled; site left uncommitted")
		return
	}
	if noPush {
		logger.Info("push skipped; run comicpub push retry to deploy")
		return
	}

	if err := p.syncer.SnapshotAndPush(ctx, message); err != nil {
		result.PushErr = err
		logging.WarnWithContext(logger, "push failed; catalog entry kept", "push_failed",
			logging.Error(err),
			logging.Alert("site_not_deployed"),
			logging.String(logging.FieldErrorHint, "run comicpub push retry once the remote is reachable"),
			logging.String(logging.FieldImpact, "the comic is recorded locally but not deployed"),
		)
		if p.journal != nil {
			if jerr := p.journal.MarkPushFailed(ctx, err.Error(), result.RunID); jerr != nil {
				logger.Warn("journal update failed", logging.Error(jerr))
			}
		}
		if nerr := p.notifier.NotifyPushFailed(ctx, result.Entry.ID, err); nerr != nil {
			logger.Warn("push failure notification failed", logging.Error(nerr))
		}
		return
	}
	result.Pushed = true
	if p.journal != nil {
		if err := p.journal.MarkPushed(ctx, result.RunID); err != nil {
			logger.Warn("journal update failed", logging.Error(err))
		}
	}
}

func (p *Publisher) journalRun(ctx context.Context, logger *slog.Logger, run journal.Run) {
	if p.journal == nil {
		return
	}
	if _, err := p.journal.RecordRun(ctx, run); err != nil {
		logging.WarnWithContext(logger, "journal write failed", "journal_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "push retry will not know about this run"),
		)
	}
}

// RetryPushes pushes every journaled run under this project root that has not
// reached the remote. One push covers all of them.
func (p *Publisher) RetryPushes(ctx context.Context) ([]journal.Run, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.journal == nil {
		return nil, ErrJournalUnavailable
	}
	if !p.syncer.Enabled() {
		return nil, ErrGitDisabled
	}
	pending, err := p.journal.Pending(ctx, p.cfg.Paths.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		p.logger.Info("no pending pushes")
		return nil, nil
	}

	ids := make([]string, 0, len(pending))
	comics := make([]string, 0, len(pending))
	for _, run := range pending {
		ids = append(ids, run.RunID)
		comics = append(comics, run.ComicID)
	}
	message := gitsync.CommitMessage(p.cfg.Git.CommitPrefix, strings.Join(comics, ", "), p.now())
	p.logger.Info("retrying push", logging.Int("runs", len(pending)), logging.String("comics", strings.Join(comics, ",")))

	if pushErr := p.syncer.SnapshotAndPush(ctx, message); pushErr != nil {
		if err := p.journal.MarkPushFailed(ctx, pushErr.Error(), ids...); err != nil {
			p.logger.Warn("journal update failed", logging.Error(err))
		}
		return pending, pushErr
	}
	if err := p.journal.MarkPushed(ctx, ids...); err != nil {
		return pending, err
	}
	return pending, nil
}

// relativeURL returns target relative to dir in URL form.
func relativeURL(dir, target string) (string, error) {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return "", fmt.Errorf("relative image path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
