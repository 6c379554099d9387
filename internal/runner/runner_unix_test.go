//go:build unix

package runner_test

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/CZERTAINLY/golden/internal/runner"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func readPID(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	require.NoError(t, err)
	return pid
}

// zombie reports whether pid is dead but not yet reaped by its new parent,
// which in containers may be a pid 1 that never reaps.
func zombie(pid int) bool {
	b, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	_, rest, ok := strings.Cut(string(b), ") ")
	return ok && strings.HasPrefix(rest, "Z")
}

func TestRun_TimeoutReaps(t *testing.T) {
	t.Parallel()
	requireShell(t)

	dir := t.TempDir()
	path := input(t, dir, "a.txt", "")

	r := runner.Runner{
		Command: `echo $$ > shell.pid; sleep 30 & echo $! > child.pid; wait`,
		Dir:     dir,
		Timeout: 300 * time.Millisecond,
	}
	o, err := r.Run(t.Context(), path)
	require.NoError(t, err)
	require.IsType(t, model.Timeout{}, o)

	// the shell was waited for, so it is gone and not a zombie
	shell := readPID(t, filepath.Join(dir, "shell.pid"))
	require.ErrorIs(t, unix.Kill(shell, 0), unix.ESRCH)

	// the background child shared the process group and got killed too
	child := readPID(t, filepath.Join(dir, "child.pid"))
	require.Eventually(t, func() bool {
		return unix.Kill(child, 0) == unix.ESRCH || zombie(child)
	}, 5*time.Second, 10*time.Millisecond)
}
