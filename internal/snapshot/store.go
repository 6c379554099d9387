// Package snapshot holds the record of accepted outputs: run metadata,
// options, the distinct outputs accepted for every file and timing
// statistics.
package snapshot

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/CZERTAINLY/golden/internal/model"
)

type Store struct {
	Metadata model.Metadata
	Options  model.Options
	Results  map[string][]string
	Timing   map[string]model.Timing
}

// New returns an empty store, as used by run and record. Unset options get
// their defaults.
func New(metadata model.Metadata, options model.Options) *Store {
	return &Store{
		Metadata: metadata,
		Options:  options.WithDefaults(),
		Results:  make(map[string][]string),
		Timing:   make(map[string]model.Timing),
	}
}

// Override applies options supplied on the command line on top of the
// stored ones, then fills whatever is still unset with defaults. Metadata
// is never touched.
func (s *Store) Override(cli model.Options) {
	s.Options = s.Options.Override(cli).WithDefaults()
}

// Key returns path relative to the store directory with forward slashes,
// so stores stay portable between machines and working directories.
// Paths outside the directory are kept as they are.
func (s *Store) Key(path string) string {
	dir, err := filepath.Abs(s.Metadata.Dir())
	if err != nil {
		return filepath.ToSlash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Contains reports whether output was already accepted for key.
func (s *Store) Contains(key, output string) bool {
	return slices.Contains(s.Results[key], output)
}

// Accept appends output to the accepted outputs of key unless it is
// already there. It returns true if output was new.
func (s *Store) Accept(key, output string) bool {
	if s.Contains(key, output) {
		return false
	}
	s.Results[key] = append(s.Results[key], output)
	return true
}

// Latest returns the most recently accepted output for key.
func (s *Store) Latest(key string) (string, bool) {
	results := s.Results[key]
	if len(results) == 0 {
		return "", false
	}
	return results[len(results)-1], true
}

// Observe records the duration of a successful run of key.
func (s *Store) Observe(key string, ms int64) model.Timing {
	t, ok := s.Timing[key]
	if !ok {
		t = model.Timing{Fastest: ms, MostRecent: ms}
	} else {
		t = t.Observe(ms)
	}
	s.Timing[key] = t
	return t
}
