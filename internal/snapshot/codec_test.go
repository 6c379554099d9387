package snapshot_test

import (
	"testing"

	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/CZERTAINLY/golden/internal/snapshot"
	"github.com/stretchr/testify/require"
)

func sample() *snapshot.Store {
	dir := "tests"
	printOnly := model.StreamPrint
	s := snapshot.New(
		model.Metadata{Command: "python3 run.py", Directory: &dir, Files: "**/*.in"},
		model.Options{StderrMode: &printOnly, Env: []string{"LANG=C", "X=<&>"}},
	)
	s.Accept("a.in", "x\n")
	s.Accept("a.in", "multi\nline\n  indented\n")
	s.Accept("b/c.in", "")
	s.Observe("a.in", 12)
	s.Observe("a.in", 15)
	s.Observe("b/c.in", 3)
	return s
}

func TestFormatFor(t *testing.T) {
	t.Parallel()
	require.Equal(t, snapshot.JSON, snapshot.FormatFor("db.json"))
	require.Equal(t, snapshot.JSON, snapshot.FormatFor("db"))
	require.Equal(t, snapshot.YAML, snapshot.FormatFor("db.yaml"))
	require.Equal(t, snapshot.YAML, snapshot.FormatFor("DB.YML"))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, format := range []snapshot.Format{snapshot.JSON, snapshot.YAML} {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()
			s := sample()
			raw, err := snapshot.Marshal(s, format)
			require.NoError(t, err)

			got, err := snapshot.Unmarshal("store", raw, format)
			require.NoError(t, err)
			require.Equal(t, s.Metadata, got.Metadata)
			require.Equal(t, s.Options, got.Options)
			require.Equal(t, s.Results, got.Results)
			require.Equal(t, s.Timing, got.Timing)

			again, err := snapshot.Marshal(got, format)
			require.NoError(t, err)
			require.Equal(t, string(raw), string(again))
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	raw, err := snapshot.Marshal(sample(), snapshot.JSON)
	require.NoError(t, err)
	require.JSONEq(t, `{
  "metadata": {"command": "python3 run.py", "directory": "tests", "files": "**/*.in"},
  "options": {"stdout_mode": "both", "stderr_mode": "print", "env": ["LANG=C", "X=<&>"], "preserve_env": false, "timeout": 10},
  "results": {"a.in": ["x\n", "multi\nline\n  indented\n"], "b/c.in": [""]},
  "timing": {"a.in": {"fastest": 12, "most_recent": 15}, "b/c.in": {"fastest": 3, "most_recent": 3}}
}`, string(raw))
	// no < escapes, the file is meant to be read by people
	require.Contains(t, string(raw), "X=<&>")
}

func TestUnmarshalLegacy(t *testing.T) {
	t.Parallel()

	raw := `{
  "results": {"a.txt": ["x"]},
  "%metadata%": {"command": "cat", "directory": null, "files": "*.txt"},
  "%options%": {"stdout_mode": "Both", "stderr_mode": "None", "env": ["A=1"], "preserve_env": true, "timeout": 4},
  "%timing%": {"a.txt": {"fastest": 1, "most_recent": 2}}
}`
	s, err := snapshot.Unmarshal("old.json", []byte(raw), snapshot.JSON)
	require.NoError(t, err)
	require.Equal(t, "cat", s.Metadata.Command)
	require.Nil(t, s.Metadata.Directory)
	require.Equal(t, model.StreamBoth, s.Options.Stdout())
	require.Equal(t, model.StreamNone, s.Options.Stderr())
	require.True(t, s.Options.Preserve())
	require.Equal(t, map[string][]string{"a.txt": {"x"}}, s.Results)
	require.Equal(t, model.Timing{Fastest: 1, MostRecent: 2}, s.Timing["a.txt"])

	out, err := snapshot.Marshal(s, snapshot.JSON)
	require.NoError(t, err)
	require.NotContains(t, string(out), "%metadata%")
}

func TestUnmarshalNoTiming(t *testing.T) {
	t.Parallel()

	raw := `{"metadata": {"command": "cat", "files": "*"}, "options": {}, "results": {}}`
	s, err := snapshot.Unmarshal("store.json", []byte(raw), snapshot.JSON)
	require.NoError(t, err)
	require.NotNil(t, s.Timing)
	require.Empty(t, s.Timing)
	require.Nil(t, s.Options.StdoutMode)
}

func TestUnmarshal_Fail(t *testing.T) {
	t.Parallel()

	var testCases = []struct {
		scenario string
		given    string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"truncated", `{"metadata": {"command": "cat", "files": "*"}, "results": {"a": ["x"`},
		{"no metadata", `{"results": {}}`},
		{"results not a list", `{"metadata": {"command": "cat", "files": "*"}, "results": {"a": "x"}}`},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			_, err := snapshot.Unmarshal("store.json", []byte(tt.given), snapshot.JSON)
			require.ErrorIs(t, err, model.ErrStoreInvalid)
		})
	}
}

func TestMarshal_BinaryOutput(t *testing.T) {
	t.Parallel()

	for _, format := range []snapshot.Format{snapshot.JSON, snapshot.YAML} {
		t.Run(format.String(), func(t *testing.T) {
			t.Parallel()
			s := sample()
			s.Accept("a.in", "\xff\xfebin")
			_, err := snapshot.Marshal(s, format)
			require.ErrorIs(t, err, model.ErrBinaryOutput)

			s = sample()
			s.Accept("\xff.in", "x")
			_, err = snapshot.Marshal(s, format)
			require.ErrorIs(t, err, model.ErrBinaryOutput)
		})
	}
}
