package environ_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/CZERTAINLY/golden/internal/environ"
	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	env, err := environ.Parse([]string{"B=2", "A=1", "EMPTY=", "A=3"})
	require.NoError(t, err)
	require.Equal(t, 3, env.Len())
	require.Equal(t, []string{"A=3", "B=2", "EMPTY="}, env.Apply(false))
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	for _, given := range []string{"NOVALUE", "A=1=2", "", "=v", "="} {
		t.Run(given, func(t *testing.T) {
			t.Parallel()
			_, err := environ.Parse([]string{"OK=1", given})
			require.Error(t, err)
			require.ErrorIs(t, err, environ.ErrMalformed)
			require.ErrorIs(t, err, model.ErrMalformedEnv)
		})
	}
}

func TestApply_Preserve(t *testing.T) {
	t.Setenv("GOLDEN_TEST_INHERITED", "parent")
	t.Setenv("GOLDEN_TEST_OVERRIDE", "parent")

	env, err := environ.Parse([]string{"GOLDEN_TEST_OVERRIDE=child"})
	require.NoError(t, err)

	got := env.Apply(true)
	require.Contains(t, got, "GOLDEN_TEST_INHERITED=parent")
	// exec.Cmd takes the last value of a duplicated key
	last := slices.Index(got, "GOLDEN_TEST_OVERRIDE=child")
	first := slices.Index(got, "GOLDEN_TEST_OVERRIDE=parent")
	require.Greater(t, last, first)

	got = env.Apply(false)
	require.Equal(t, []string{"GOLDEN_TEST_OVERRIDE=child"}, got)
}

func TestLoadFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("# comment\nZ=last\nA=1\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("export B=\"two words\"\n"), 0o644))

	entries, err := environ.LoadFiles(first, second)
	require.NoError(t, err)
	require.Equal(t, []string{"A=1", "Z=last", "B=two words"}, entries)

	_, err = environ.LoadFiles(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
}
