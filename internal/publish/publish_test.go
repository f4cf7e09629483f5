package publish_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"comicpub/internal/catalog"
	"comicpub/internal/config"
	"comicpub/internal/gitsync"
	"comicpub/internal/journal"
	"comicpub/internal/publish"
	"comicpub/internal/templates"
	"comicpub/internal/testsupport"
)

type fakeSyncer struct {
	enabled  bool
	err      error
	messages []string
}

func (f *fakeSyncer) Enabled() bool { return f.enabled }

func (f *fakeSyncer) SnapshotAndPush(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return f.err
}

type fakeNotifier struct {
	published  []string
	pushFailed []string
}

func (f *fakeNotifier) NotifyPublished(_ context.Context, id, _ string, _ int) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeNotifier) NotifyPushFailed(_ context.Context, id string, _ error) error {
	f.pushFailed = append(f.pushFailed, id)
	return nil
}

func (f *fakeNotifier) NotifyError(context.Context, error, string) error { return nil }

func (f *fakeNotifier) TestNotification(context.Context) error { return nil }

var fixedNow = time.Date(2026, 1, 2, 15, 4, 5, 0, time.Local)

func builtinTable(t *testing.T) *templates.Table {
	t.Helper()
	table, err := templates.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	return table
}

func newPublisher(t *testing.T, cfg *config.Config, opts ...publish.Option) *publish.Publisher {
	t.Helper()
	opts = append([]publish.Option{publish.WithClock(func() time.Time { return fixedNow })}, opts...)
	return publish.New(cfg, builtinTable(t), nil, opts...)
}

func readCatalog(t *testing.T, cfg *config.Config) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(cfg.Paths.IndexFile, nil).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return cat
}

func seedCatalog(t *testing.T, cfg *config.Config, count int) {
	t.Helper()
	var rows []string
	for i := 1; i <= count; i++ {
		id := catalog.FormatID(i)
		rows = append(rows, fmt.Sprintf(
			`{"id": %q, "title": "t%d", "topic": "x", "category": "生活日常", "img": "img/%s.png", "has_gif": false, "html": "comics/%s.html", "create_time": "2025-12-01 10:00:00"}`,
			id, i, id, id))
	}
	body := `{"comics": [` + strings.Join(rows, ",") + `]}`
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.IndexFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Paths.IndexFile, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPublishFirstComicWithDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 32, 16)
	notifier := &fakeNotifier{}

	result, err := newPublisher(t, cfg, publish.WithNotifier(notifier)).Publish(context.Background(), publish.Request{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	entry := result.Entry
	if entry.ID != "comic-001" {
		t.Fatalf("expected comic-001, got %s", entry.ID)
	}
	if entry.Category != templates.DefaultCategory || entry.SubCategory != templates.DefaultSubCategory {
		t.Fatalf("expected default category pair, got %s/%s", entry.Category, entry.SubCategory)
	}
	if entry.ImageCount != 1 || entry.HasAnimatedImage {
		t.Fatalf("unexpected image summary: count=%d gif=%v", entry.ImageCount, entry.HasAnimatedImage)
	}
	if entry.PrimaryImagePath != "img/comic-001-1.png" {
		t.Fatalf("unexpected primary image %q", entry.PrimaryImagePath)
	}
	if entry.DetailPagePath != "comics/comic-001.html" {
		t.Fatalf("unexpected detail page %q", entry.DetailPagePath)
	}
	if entry.CreatedAt != "2026-01-02 15:04:05" {
		t.Fatalf("unexpected create time %q", entry.CreatedAt)
	}
	if entry.Title == "" || entry.Topic == "" || entry.SubTopic == "" || entry.FunnyExample == "" {
		t.Fatalf("metadata not fully populated: %#v", entry)
	}

	cat := readCatalog(t, cfg)
	if cat.Len() != 1 || cat.Comics[0].ID != "comic-001" {
		t.Fatalf("expected exactly one catalog entry, got %#v", cat.Comics)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.ImgDir, "comic-001-1.png")); err != nil {
		t.Fatalf("staged image missing: %v", err)
	}
	html, err := os.ReadFile(filepath.Join(cfg.Paths.ComicsDir, "comic-001.html"))
	if err != nil {
		t.Fatalf("detail page missing: %v", err)
	}
	if !strings.Contains(string(html), `src="../img/comic-001-1.png"`) {
		t.Fatalf("detail page should reference staged image:\n%s", html)
	}
	if _, err := os.Stat(cfg.Paths.ExportFile); err != nil {
		t.Fatalf("frontend export missing: %v", err)
	}
	if len(notifier.published) != 1 || notifier.published[0] != "comic-001" {
		t.Fatalf("expected publish notification, got %v", notifier.published)
	}
	if _, err := os.Stat(filepath.Join(cfg.Source.Dir, "raw.png")); err != nil {
		t.Fatal("source should stay in place without archiving")
	}
}

func TestPublishOverrideUsesTemplateText(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedCatalog(t, cfg, 7)
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 8, 8)
	override := filepath.Join(testsupport.BaseDir(cfg), "override.json")
	if err := os.WriteFile(override, []byte(`{"category": "职场打工", "subCategory": "摸鱼翻车"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := newPublisher(t, cfg).Publish(context.Background(), publish.Request{OverridePath: override})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	want, ok := builtinTable(t).Lookup("职场打工", "摸鱼翻车")
	if !ok {
		t.Fatal("template pair missing from builtin table")
	}
	entry := result.Entry
	if entry.ID != "comic-008" {
		t.Fatalf("expected comic-008, got %s", entry.ID)
	}
	if entry.SubTopic != want.SubTopic || entry.FunnyExample != want.FunnyExample {
		t.Fatalf("expected template text, got %q / %q", entry.SubTopic, entry.FunnyExample)
	}
	if entry.Title != want.DefaultTitle || entry.Topic != want.DefaultTopic {
		t.Fatalf("expected template title/topic, got %q / %q", entry.Title, entry.Topic)
	}
	if cat := readCatalog(t, cfg); cat.Len() != 8 || cat.Comics[7].ID != "comic-008" {
		t.Fatalf("expected entry appended last, got %d entries", cat.Len())
	}
}

func TestPublishAbortsWithoutMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Source.Dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	syncer := &fakeSyncer{enabled: true}

	_, err := newPublisher(t, cfg, publish.WithSyncer(syncer)).Publish(context.Background(), publish.Request{})
	if !errors.Is(err, publish.ErrNoMediaFound) {
		t.Fatalf("expected ErrNoMediaFound, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Paths.IndexFile); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("catalog must not be touched, stat err=%v", statErr)
	}
	if len(syncer.messages) != 0 {
		t.Fatal("git must not run for an empty batch")
	}

	_, err = newPublisher(t, cfg).Publish(context.Background(), publish.Request{SourceDir: filepath.Join(cfg.Source.Dir, "missing")})
	if !errors.Is(err, publish.ErrNoMediaFound) {
		t.Fatalf("expected ErrNoMediaFound for missing dir, got %v", err)
	}
}

func TestPublishStagesBatchInLexicographicOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "c.png"), 4, 4)
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "a.png"), 4, 4)
	testsupport.WriteGIF(t, filepath.Join(cfg.Source.Dir, "b.gif"))

	result, err := newPublisher(t, cfg).Publish(context.Background(), publish.Request{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	var names []string
	for _, src := range result.Sources {
		names = append(names, filepath.Base(src))
	}
	if strings.Join(names, ",") != "a.png,b.gif,c.png" {
		t.Fatalf("unexpected batch order %v", names)
	}
	want := []string{"img/comic-001-1.png", "img/comic-001-2.gif", "img/comic-001-3.png"}
	if strings.Join(result.Entry.ImagePaths, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected staged paths %v", result.Entry.ImagePaths)
	}
	if result.Entry.ImageCount != 3 || !result.Entry.HasAnimatedImage {
		t.Fatalf("unexpected image summary %d/%v", result.Entry.ImageCount, result.Entry.HasAnimatedImage)
	}

	original, _ := os.ReadFile(filepath.Join(cfg.Source.Dir, "b.gif"))
	staged, _ := os.ReadFile(filepath.Join(cfg.Paths.ImgDir, "comic-001-2.gif"))
	if string(original) != string(staged) {
		t.Fatal("gif must be staged byte-for-byte")
	}
}

func TestPublishPushFailureKeepsEntryAndRetries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGit("origin", "main"))
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 4, 4)
	store := testsupport.MustOpenJournal(t, cfg)
	syncer := &fakeSyncer{enabled: true, err: &gitsync.PushError{Step: gitsync.StepPush, Err: errors.New("exit status 128")}}
	notifier := &fakeNotifier{}
	pub := newPublisher(t, cfg, publish.WithSyncer(syncer), publish.WithJournal(store), publish.WithNotifier(notifier))

	result, err := pub.Publish(context.Background(), publish.Request{})
	if err != nil {
		t.Fatalf("push failure must not fail the publish: %v", err)
	}
	var pushErr *gitsync.PushError
	if !errors.As(result.PushErr, &pushErr) || result.Pushed {
		t.Fatalf("expected recorded push error, got %v pushed=%v", result.PushErr, result.Pushed)
	}
	if syncer.messages[0] != "Auto add comic: comic-001 (20260102_150405)" {
		t.Fatalf("unexpected commit message %q", syncer.messages[0])
	}
	if readCatalog(t, cfg).Len() != 1 {
		t.Fatal("catalog entry must survive a failed push")
	}
	if len(notifier.pushFailed) != 1 {
		t.Fatal("expected push failure notification")
	}
	run, err := store.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != journal.StatusPushFailed || run.ComicID != "comic-001" {
		t.Fatalf("unexpected journal run %#v", run)
	}

	syncer.err = nil
	retried, err := pub.RetryPushes(context.Background())
	if err != nil {
		t.Fatalf("RetryPushes: %v", err)
	}
	if len(retried) != 1 || retried[0].RunID != result.RunID {
		t.Fatalf("unexpected retried runs %#v", retried)
	}
	run, err = store.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != journal.StatusPushed {
		t.Fatalf("expected pushed after retry, got %s", run.Status)
	}
	again, err := pub.RetryPushes(context.Background())
	if err != nil || len(again) != 0 {
		t.Fatalf("expected nothing left to retry, got %d runs err=%v", len(again), err)
	}
}

func TestPublishNoPushLeavesRunPending(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithGit("origin", "main"))
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 4, 4)
	store := testsupport.MustOpenJournal(t, cfg)
	syncer := &fakeSyncer{enabled: true}
	pub := newPublisher(t, cfg, publish.WithSyncer(syncer), publish.WithJournal(store))

	result, err := pub.Publish(context.Background(), publish.Request{NoPush: true})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(syncer.messages) != 0 || result.Pushed {
		t.Fatal("git must not run with NoPush")
	}
	pending, err := store.Pending(context.Background(), cfg.Paths.ProjectRoot)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Status != journal.StatusPushPending {
		t.Fatalf("expected one pending run, got %#v", pending)
	}
}

func TestPublishGitDisabledJournalsPublished(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 4, 4)
	store := testsupport.MustOpenJournal(t, cfg)
	pub := newPublisher(t, cfg, publish.WithJournal(store))

	result, err := pub.Publish(context.Background(), publish.Request{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	run, err := store.Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != journal.StatusPublished {
		t.Fatalf("expected published status, got %s", run.Status)
	}
	if _, err := pub.RetryPushes(context.Background()); !errors.Is(err, publish.ErrGitDisabled) {
		t.Fatalf("expected ErrGitDisabled, got %v", err)
	}
}

func TestPublishArchivesSources(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithArchive())
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 4, 4)

	result, err := newPublisher(t, cfg).Publish(context.Background(), publish.Request{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Source.Dir, "raw.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("source should have been moved, stat err=%v", err)
	}
	archived := filepath.Join(cfg.Source.Dir, "published", "comic-001", "raw.png")
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("archived source missing: %v", err)
	}
	if result.ArchivedTo != filepath.Dir(archived) {
		t.Fatalf("unexpected archive dir %q", result.ArchivedTo)
	}

	// The archived file is not picked up again.
	if _, err := newPublisher(t, cfg).Publish(context.Background(), publish.Request{}); !errors.Is(err, publish.ErrNoMediaFound) {
		t.Fatalf("expected ErrNoMediaFound after archiving, got %v", err)
	}
}

func TestPublishFailsFastWhenCatalogLocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 4, 4)
	pub := newPublisher(t, cfg)

	unlock, err := pub.Catalog().Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer unlock()

	if _, err := pub.Publish(context.Background(), publish.Request{}); !errors.Is(err, catalog.ErrCatalogLocked) {
		t.Fatalf("expected ErrCatalogLocked, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.ImgDir)
	if len(entries) != 0 {
		t.Fatalf("nothing should be staged while locked, found %d files", len(entries))
	}
}

func TestPublishCleansUpOnCorruptCatalog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WritePNG(t, filepath.Join(cfg.Source.Dir, "raw.png"), 4, 4)
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.IndexFile), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Paths.IndexFile, []byte(`{"comics": [{"id": "bogus"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := newPublisher(t, cfg).Publish(context.Background(), publish.Request{}); !errors.Is(err, catalog.ErrCorruptCatalog) {
		t.Fatalf("expected ErrCorruptCatalog, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.ComicsDir)
	if len(entries) != 0 {
		t.Fatalf("no detail page should be written, found %d", len(entries))
	}
}
