// Package runner executes the tested command once per input file and
// classifies what happened.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/CZERTAINLY/golden/internal/log"
	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/CZERTAINLY/golden/internal/parallel"
)

const (
	DefaultShell = "sh"
	// waitDelay bounds how long Wait keeps reading pipes held open by
	// processes which outlived the command
	waitDelay = 2 * time.Second
)

// Runner runs Command through Shell with a file as its standard input.
type Runner struct {
	Shell   string // default sh
	Command string
	Dir     string
	// Env is the complete environment of the command. Nil means empty,
	// the parent environment is never inherited implicitly.
	Env     []string
	Timeout time.Duration
}

// Run executes the command for a single file. Exit status 0 is a Success,
// any other exit status is a Failure and exceeding the timeout is a Timeout.
// The killed process is always reaped before Run returns. Every other
// problem (missing file, shell not found, broken pipes) is returned as an
// error and must not be treated as a test result.
func (r Runner) Run(ctx context.Context, path string) (model.Outcome, error) {
	stdin, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer func() {
		_ = stdin.Close()
	}()

	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}

	cmd := exec.Command(shell, "-c", r.Command)
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	if cmd.Env == nil {
		cmd.Env = []string{}
	}
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", shell, err)
	}
	slog.DebugContext(ctx, "started", "pid", cmd.Process.Pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(r.Timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return classify(err, stdout.String(), stderr.String(), time.Since(started))
	case <-timer.C:
		r.kill(ctx, cmd, done)
		slog.DebugContext(ctx, "timeout", "after", r.Timeout)
		return model.Timeout{After: r.Timeout}, nil
	case <-ctx.Done():
		r.kill(ctx, cmd, done)
		return nil, ctx.Err()
	}
}

// kill terminates the process group and waits for the process, so no zombie is left behind.
func (r Runner) kill(ctx context.Context, cmd *exec.Cmd, done <-chan error) {
	if err := killProcessGroup(cmd); err != nil {
		slog.WarnContext(ctx, "killing process group failed", "pid", cmd.Process.Pid, "error", err)
		_ = cmd.Process.Kill()
	}
	<-done
}

func classify(err error, stdout, stderr string, elapsed time.Duration) (model.Outcome, error) {
	// stores hold text only
	if !utf8.ValidString(stdout) {
		return nil, fmt.Errorf("stdout: %w", model.ErrBinaryOutput)
	}
	if !utf8.ValidString(stderr) {
		return nil, fmt.Errorf("stderr: %w", model.ErrBinaryOutput)
	}
	if err == nil {
		return model.Success{Stdout: stdout, Stderr: stderr, Elapsed: elapsed}, nil
	}
	if errors.Is(err, exec.ErrWaitDelay) {
		return nil, fmt.Errorf("output left open by a background process: %w", err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return model.Failure{Stdout: stdout, Stderr: stderr, ExitCode: exitErr.ExitCode()}, nil
	}
	return nil, fmt.Errorf("waiting for command: %w", err)
}

// Engine runs a Runner over many files in parallel.
type Engine struct {
	runner Runner
	pmap   *parallel.Map[string, model.Outcome]
}

// NewEngine returns an Engine running at most jobs commands at once,
// jobs < 1 means the number of CPUs.
func NewEngine(runner Runner, jobs int) *Engine {
	e := &Engine{runner: runner}
	e.pmap = parallel.NewMap(jobs, e.run)
	return e
}

// Do returns one Outcome per file, in the order of files. The first error
// aborts the whole run.
func (e *Engine) Do(ctx context.Context, files []string) ([]model.Outcome, error) {
	return e.pmap.Do(ctx, files)
}

// Completed returns the number of finished jobs.
func (e *Engine) Completed() int64 {
	return e.pmap.Completed()
}

func (e *Engine) run(ctx context.Context, path string) (model.Outcome, error) {
	ctx = log.ContextAttrs(ctx, slog.String("path", path))
	slog.InfoContext(ctx, "testing")
	outcome, err := e.runner.Run(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	switch o := outcome.(type) {
	case model.Success:
		slog.InfoContext(ctx, "success", "elapsed_ms", o.ElapsedMillis())
	case model.Failure:
		slog.InfoContext(ctx, "failure", "exit_code", o.ExitCode)
	case model.Timeout:
		slog.InfoContext(ctx, "timeout")
	}
	return outcome, nil
}
