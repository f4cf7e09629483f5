package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"comicpub/internal/fileutil"
	"comicpub/internal/logging"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store owns the index document on disk.
type Store struct {
	path          string
	lockPath      string
	logger        *slog.Logger
	validCategory func(string) bool
	now           func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithLockPath overrides the default <index>.lock location.
func WithLockPath(path string) Option {
	return func(s *Store) {
		if strings.TrimSpace(path) != "" {
			s.lockPath = path
		}
	}
}

// WithCategoryValidator makes Append reject entries whose category fn refuses.
func WithCategoryValidator(fn func(string) bool) Option {
	return func(s *Store) { s.validCategory = fn }
}

// WithClock replaces time.Now for CreatedAt defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns a Store for the index document at path. The file is not
// touched until the first operation.
func Open(path string, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		path:     path,
		lockPath: path + ".lock",
		logger:   logging.NewComponentLogger(logger, "catalog"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the index document location.
func (s *Store) Path() string { return s.path }

// Lock takes an exclusive, non-blocking lock on the catalog. Hold it from
// AllocateNextID through Append.
func (s *Store) Lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(s.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock %s: %w", s.lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrCatalogLocked, s.lockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(s.logger, "catalog unlock failed", "catalog_unlock_failed",
				logging.String("lock", s.lockPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "lock released when the process exits"),
			)
		}
	}, nil
}

// Read parses the index document. A missing or empty file reads as an empty
// catalog; anything else that is not {"comics": [...]} is ErrCorruptCatalog.
func (s *Store) Read() (*Catalog, error) {
	raw, err := s.readRaw()
	if err != nil {
		return nil, err
	}
	cat := &Catalog{Comics: make([]Entry, 0, len(raw))}
	for i, item := range raw {
		var entry Entry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %v", ErrCorruptCatalog, s.path, i, err)
		}
		cat.Comics = append(cat.Comics, entry)
	}
	return cat, nil
}

// AllocateNextID returns the zero-padded numeric part of the next id:
// one more than the largest suffix present, or "001" for an empty catalog.
// A missing document is created empty.
func (s *Store) AllocateNextID() (string, error) {
	if err := s.ensureDocument(); err != nil {
		return "", err
	}
	cat, err := s.Read()
	if err != nil {
		return "", err
	}
	next, err := cat.NextNumber()
	if err != nil {
		return "", err
	}
	s.logger.Debug("allocated id", logging.ComicID(IDFromNumber(next)), logging.Int("entries", cat.Len()))
	return next, nil
}

// Append validates entry and rewrites the document with entry added at the
// end. Existing entries are written back as they were read.
func (s *Store) Append(entry Entry) error {
	raw, err := s.readRaw()
	if err != nil {
		return err
	}
	existing := make(map[string]struct{}, len(raw))
	for i, item := range raw {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return fmt.Errorf("%w: %s: entry %d: %v", ErrCorruptCatalog, s.path, i, err)
		}
		existing[head.ID] = struct{}{}
	}

	if strings.TrimSpace(entry.CreatedAt) == "" {
		entry.CreatedAt = s.now().Format(TimeLayout)
	}
	if err := s.validate(entry, existing); err != nil {
		return err
	}

	encoded, err := marshalNoEscape(entry)
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", entry.ID, err)
	}
	raw = append(raw, json.RawMessage(encoded))
	if err := s.write(raw); err != nil {
		return err
	}
	s.logger.Info("catalog entry appended",
		logging.ComicID(entry.ID),
		logging.String("title", entry.Title),
		logging.Int("entries", len(raw)),
	)
	return nil
}

// ExportFrontend writes the reduced index consumed by the site's front page.
func (s *Store) ExportFrontend(dst string) error {
	cat, err := s.Read()
	if err != nil {
		return err
	}
	type frontendEntry struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Category   string `json:"category"`
		Topic      string `json:"topic"`
		Img        string `json:"img"`
		HTML       string `json:"html"`
		CreateTime string `json:"create_time"`
	}
	doc := struct {
		Comics []frontendEntry `json:"comics"`
	}{Comics: make([]frontendEntry, 0, cat.Len())}
	for _, e := range cat.Comics {
		doc.Comics = append(doc.Comics, frontendEntry{
			ID:         e.ID,
			Title:      e.Title,
			Category:   e.Category,
			Topic:      e.Topic,
			Img:        e.PrimaryImagePath,
			HTML:       e.DetailPagePath,
			CreateTime: e.CreatedAt,
		})
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode frontend index: %w", err)
	}
	if err := fileutil.AtomicWriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write frontend index: %w", err)
	}
	s.logger.Info("frontend index exported", logging.Path(dst), logging.Int("entries", len(doc.Comics)))
	return nil
}

func (s *Store) validate(entry Entry, existing map[string]struct{}) error {
	if _, err := ParseID(entry.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if _, dup := existing[entry.ID]; dup {
		return fmt.Errorf("%w: id %s already present", ErrInvalidEntry, entry.ID)
	}
	if strings.TrimSpace(entry.Title) == "" {
		return fmt.Errorf("%w: %s has an empty title", ErrInvalidEntry, entry.ID)
	}
	if entry.ImageCount < 1 {
		return fmt.Errorf("%w: %s has image count %d", ErrInvalidEntry, entry.ID, entry.ImageCount)
	}
	if s.validCategory != nil && !s.validCategory(entry.Category) {
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidEntry, entry.ID, entry.Category)
	}
	return nil
}

func (s *Store) readRaw() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var doc struct {
		Comics *[]json.RawMessage `json:"comics"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptCatalog, s.path, err)
	}
	if doc.Comics == nil {
		return nil, fmt.Errorf("%w: %s: missing comics array", ErrCorruptCatalog, s.path)
	}
	return *doc.Comics, nil
}

func (s *Store) ensureDocument() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat catalog: %w", err)
	}
	s.logger.Info("creating empty catalog", logging.Path(s.path))
	return s.write(nil)
}

func (s *Store) write(raw []json.RawMessage) error {
	if raw == nil {
		raw = []json.RawMessage{}
	}
	data, err := encodeDocument(struct {
		Comics []json.RawMessage `json:"comics"`
	}{Comics: raw})
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := fileutil.AtomicWriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

func maxNumber(cat *Catalog) (int, error) {
	highest := 0
	for _, entry := range cat.Comics {
		n, err := ParseID(entry.ID)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrCorruptCatalog, err)
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

// encodeDocument renders v with two-space indentation and without escaping
// non-ASCII or HTML characters.
func encodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
