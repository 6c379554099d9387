package walk

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// Glob returns the absolute paths of the regular files matching pattern
// rooted at dir. The pattern supports ** for recursive matches. Paths are
// sorted, so the order is stable across runs.
func Glob(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving directory %s: %w", dir, err)
	}

	full := pattern
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, pattern)
	}
	matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("globbing %s: %w", full, err)
	}
	slices.Sort(matches)
	return matches, nil
}
