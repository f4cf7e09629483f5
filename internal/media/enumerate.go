package media

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ArchiveDirName is the sub-directory of the source folder that receives
// published originals. Enumerate never descends into it.
const ArchiveDirName = "published"

// Enumerate lists regular files under dir whose slash-separated relative path
// matches any pattern, case-insensitively. The result holds absolute paths,
// deduplicated and sorted lexicographically ("a10.png" before "a2.png").
func Enumerate(dir string, patterns []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory %s is not a directory", dir)
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid source pattern %q", pattern)
		}
	}

	seen := make(map[string]struct{})
	var rels []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == dir {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if name == ArchiveDirName || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(patterns, rel) {
			return nil
		}
		if _, dup := seen[rel]; dup {
			return nil
		}
		seen[rel] = struct{}{}
		rels = append(rels, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan source directory: %w", err)
	}

	sort.Strings(rels)
	out := make([]string, len(rels))
	for i, rel := range rels {
		out[i] = filepath.Join(dir, filepath.FromSlash(rel))
	}
	return out, nil
}

func matchAny(patterns []string, rel string) bool {
	lower := strings.ToLower(rel)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(strings.ToLower(pattern), lower); err == nil && ok {
			return true
		}
	}
	return false
}
