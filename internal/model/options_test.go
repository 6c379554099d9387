package model_test

import (
	"testing"
	"time"

	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/stretchr/testify/require"
)

func TestOptionsOverride(t *testing.T) {
	t.Parallel()

	save := model.StreamSave
	none := model.StreamNone
	yes := true
	var five uint64 = 5
	var thirty uint64 = 30

	stored := model.Options{
		StdoutMode:  &save,
		StderrMode:  &none,
		Env:         []string{"A=1"},
		PreserveEnv: &yes,
		Timeout:     &thirty,
	}

	var testCases = []struct {
		scenario string
		cli      model.Options
		then     model.Options
	}{
		{
			scenario: "nothing supplied keeps stored",
			cli:      model.Options{},
			then:     stored,
		},
		{
			scenario: "empty env keeps stored env",
			cli:      model.Options{Env: []string{}},
			then:     stored,
		},
		{
			scenario: "timeout only",
			cli:      model.Options{Timeout: &five},
			then: model.Options{
				StdoutMode:  &save,
				StderrMode:  &none,
				Env:         []string{"A=1"},
				PreserveEnv: &yes,
				Timeout:     &five,
			},
		},
		{
			scenario: "env replaced wholesale",
			cli:      model.Options{Env: []string{"B=2", "C=3"}},
			then: model.Options{
				StdoutMode:  &save,
				StderrMode:  &none,
				Env:         []string{"B=2", "C=3"},
				PreserveEnv: &yes,
				Timeout:     &thirty,
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			t.Parallel()
			got := stored.Override(tt.cli)
			require.Equal(t, tt.then, got)
		})
	}
}

func TestOptionsOverrideExplicitFalse(t *testing.T) {
	t.Parallel()
	yes, no := true, false
	stored := model.Options{PreserveEnv: &yes}
	got := stored.Override(model.Options{PreserveEnv: &no})
	require.NotNil(t, got.PreserveEnv)
	require.False(t, *got.PreserveEnv)
}

func TestOptionsWithDefaults(t *testing.T) {
	t.Parallel()

	got := model.Options{}.WithDefaults()
	require.Equal(t, model.StreamBoth, got.Stdout())
	require.Equal(t, model.StreamPrint, got.Stderr())
	require.False(t, got.Preserve())
	require.Equal(t, 10*time.Second, got.TimeoutDuration())
	require.NotNil(t, got.Env)
	require.Empty(t, got.Env)

	var zero uint64
	print := model.StreamPrint
	got = model.Options{StdoutMode: &print, Timeout: &zero}.WithDefaults()
	require.Equal(t, model.StreamPrint, got.Stdout())
	require.Equal(t, time.Duration(0), got.TimeoutDuration())
}

func TestMetadataDir(t *testing.T) {
	t.Parallel()
	require.Equal(t, ".", model.Metadata{}.Dir())
	empty := ""
	require.Equal(t, ".", model.Metadata{Directory: &empty}.Dir())
	dir := "testdata"
	m := model.Metadata{Directory: &dir, Files: "*.txt"}
	require.Equal(t, "testdata", m.Dir())
	require.Equal(t, "testdata/*.txt", m.Pattern())
}

func TestTimingObserve(t *testing.T) {
	t.Parallel()
	elapsed := []int64{40, 12, 30, 55}
	timing := model.Timing{Fastest: elapsed[0], MostRecent: elapsed[0]}
	for _, e := range elapsed[1:] {
		timing = timing.Observe(e)
	}
	require.Equal(t, model.Timing{Fastest: 12, MostRecent: 55}, timing)
}
