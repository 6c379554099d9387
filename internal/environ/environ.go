// Package environ resolves the KEY=VALUE lists given on the command line or
// stored in a snapshot into the environment of the tested command.
package environ

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/joho/godotenv"
)

// ErrMalformed is returned for entries without exactly one '=' or
// with an empty name.
var ErrMalformed = model.ErrMalformedEnv

// Env is a validated set of variables, ordered by key.
type Env struct {
	keys   []string
	values map[string]string
}

// Parse validates every entry. A later entry for the same key wins.
func Parse(entries []string) (Env, error) {
	values := make(map[string]string, len(entries))
	for _, entry := range entries {
		if strings.Count(entry, "=") != 1 {
			return Env{}, fmt.Errorf("%q: %w", entry, ErrMalformed)
		}
		key, value, _ := strings.Cut(entry, "=")
		if key == "" {
			return Env{}, fmt.Errorf("%q: empty name: %w", entry, ErrMalformed)
		}
		values[key] = value
	}
	return Env{
		keys:   slices.Sorted(maps.Keys(values)),
		values: values,
	}, nil
}

func (e Env) Len() int {
	return len(e.keys)
}

// Apply builds the environment for exec.Cmd. The parent environment is
// inherited only when preserve is set, explicit entries always come last so
// they win over inherited ones.
func (e Env) Apply(preserve bool) []string {
	var base []string
	if preserve {
		base = os.Environ()
	}
	ret := make([]string, 0, len(base)+len(e.keys))
	ret = append(ret, base...)
	for _, k := range e.keys {
		ret = append(ret, k+"="+e.values[k])
	}
	return ret
}

// LoadFiles reads dotenv files and returns their content as KEY=VALUE
// entries, in file order and sorted by key within a file.
func LoadFiles(paths ...string) ([]string, error) {
	var ret []string
	for _, path := range paths {
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("reading env file %s: %w", path, err)
		}
		for _, k := range slices.Sorted(maps.Keys(values)) {
			ret = append(ret, k+"="+values[k])
		}
	}
	return ret, nil
}
