package media

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"comicpub/internal/fileutil"
	"comicpub/internal/logging"
)

// Options controls static image re-encoding.
type Options struct {
	// Quality is the JPEG quality (1-100).
	Quality int
	// MaxWidth downscales wider images; 0 keeps the original width.
	MaxWidth int
	// Compress enables re-encoding; when false every file is copied.
	Compress bool
}

// Stager copies or re-encodes one source image into the site tree.
type Stager struct {
	opts   Options
	logger *slog.Logger
}

// NewStager returns a Stager with the given options.
func NewStager(opts Options, logger *slog.Logger) *Stager {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 85
	}
	return &Stager{opts: opts, logger: logging.NewComponentLogger(logger, "media")}
}

// StagedName returns the managed file name for the index-th (1-based) image
// of a batch: comic-008-2.png.
func StagedName(id string, index int, src string) string {
	return id + "-" + strconv.Itoa(index) + strings.ToLower(filepath.Ext(src))
}

// IsAnimated reports whether path names a format that is passed through
// unmodified because it may carry animation.
func IsAnimated(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gif")
}

// reencodable lists extensions imaging can both decode and encode.
var reencodable = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Stage writes src to dst. GIFs, formats without an encoder, and every file
// when compression is off are copied byte-for-byte. Re-encoding failures fall
// back to a copy; only a failed copy is returned as an error.
func (s *Stager) Stage(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(src))
	switch {
	case IsAnimated(src):
		return s.copy(src, dst, "animated passthrough")
	case !s.opts.Compress:
		return s.copy(src, dst, "compression disabled")
	case !reencodable[ext]:
		return s.copy(src, dst, "no encoder for "+ext)
	}

	if err := s.reencode(src, dst); err != nil {
		_ = os.Remove(dst)
		logging.WarnWithContext(s.logger, "image re-encode failed; copying original", "stage_fallback",
			logging.String("source", src),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the source image is a valid "+strings.TrimPrefix(ext, ".")),
			logging.String(logging.FieldImpact, "image published without compression"),
		)
		return s.copy(src, dst, "re-encode fallback")
	}
	return nil
}

func (s *Stager) reencode(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	resized := false
	if s.opts.MaxWidth > 0 && img.Bounds().Dx() > s.opts.MaxWidth {
		img = imaging.Resize(img, s.opts.MaxWidth, 0, imaging.Lanczos)
		resized = true
	}
	if err := imaging.Save(img, dst,
		imaging.JPEGQuality(s.opts.Quality),
		imaging.PNGCompressionLevel(png.BestCompression),
	); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	if !resized {
		srcInfo, err := os.Stat(src)
		if err != nil {
			return fmt.Errorf("stat source: %w", err)
		}
		dstInfo, err := os.Stat(dst)
		if err != nil {
			return fmt.Errorf("stat output: %w", err)
		}
		if dstInfo.Size() >= srcInfo.Size() {
			return s.copy(src, dst, "re-encode did not shrink")
		}
		s.logger.Debug("image re-encoded",
			logging.String("source", filepath.Base(src)),
			logging.Int64("bytes_before", srcInfo.Size()),
			logging.Int64("bytes_after", dstInfo.Size()),
		)
		return nil
	}
	s.logger.Debug("image resized", logging.String("source", filepath.Base(src)), logging.Int("width", s.opts.MaxWidth))
	return nil
}

func (s *Stager) copy(src, dst, reason string) error {
	if err := fileutil.CopyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	s.logger.Debug("image copied", logging.String("source", filepath.Base(src)), logging.String("reason", reason))
	return nil
}
