package model

import (
	"path/filepath"
	"time"
)

// Defaults for options nobody has set.
const (
	DefaultStdoutMode  = StreamBoth
	DefaultStderrMode  = StreamPrint
	DefaultPreserveEnv = false
	DefaultTimeout     = uint64(10) // seconds
)

// Metadata identifies a store. It is fixed when the store is recorded and
// never overridden afterwards.
type Metadata struct {
	// Command is run through the shell, reads the file on stdin and writes to stdout and/or stderr
	Command string `json:"command" yaml:"command"`
	// Directory is the working directory of the command and the root of Files (default: cwd)
	Directory *string `json:"directory,omitempty" yaml:"directory,omitempty"`
	// Files is a glob relative to Directory
	Files string `json:"files" yaml:"files"`
}

// Dir returns the working directory, "." when none was given.
func (m Metadata) Dir() string {
	if m.Directory == nil || *m.Directory == "" {
		return "."
	}
	return *m.Directory
}

// Pattern joins Dir and Files.
func (m Metadata) Pattern() string {
	return filepath.Join(m.Dir(), m.Files)
}

// Options is the mutable run configuration. A nil field means unset.
type Options struct {
	StdoutMode  *StreamMode `json:"stdout_mode" yaml:"stdout_mode"`
	StderrMode  *StreamMode `json:"stderr_mode" yaml:"stderr_mode"`
	Env         []string    `json:"env" yaml:"env"`
	PreserveEnv *bool       `json:"preserve_env" yaml:"preserve_env"`
	Timeout     *uint64     `json:"timeout" yaml:"timeout"` // seconds
}

// Override replaces every field explicitly set in cli. Env is replaced only
// by a non-empty list, an empty list keeps what was recorded.
func (o Options) Override(cli Options) Options {
	if cli.StdoutMode != nil {
		o.StdoutMode = ptr(*cli.StdoutMode)
	}
	if cli.StderrMode != nil {
		o.StderrMode = ptr(*cli.StderrMode)
	}
	if cli.PreserveEnv != nil {
		o.PreserveEnv = ptr(*cli.PreserveEnv)
	}
	if cli.Timeout != nil {
		o.Timeout = ptr(*cli.Timeout)
	}
	if len(cli.Env) > 0 {
		o.Env = append([]string(nil), cli.Env...)
	}
	return o
}

// WithDefaults fills every unset field with its default.
func (o Options) WithDefaults() Options {
	if o.StdoutMode == nil {
		o.StdoutMode = ptr(DefaultStdoutMode)
	}
	if o.StderrMode == nil {
		o.StderrMode = ptr(DefaultStderrMode)
	}
	if o.PreserveEnv == nil {
		o.PreserveEnv = ptr(DefaultPreserveEnv)
	}
	if o.Timeout == nil {
		o.Timeout = ptr(DefaultTimeout)
	}
	if o.Env == nil {
		o.Env = []string{}
	}
	return o
}

func (o Options) Stdout() StreamMode {
	return deref(o.StdoutMode, DefaultStdoutMode)
}

func (o Options) Stderr() StreamMode {
	return deref(o.StderrMode, DefaultStderrMode)
}

func (o Options) Preserve() bool {
	return deref(o.PreserveEnv, DefaultPreserveEnv)
}

func (o Options) TimeoutDuration() time.Duration {
	return time.Duration(deref(o.Timeout, DefaultTimeout)) * time.Second
}

// Timing holds per file durations in milliseconds.
type Timing struct {
	Fastest    int64 `json:"fastest" yaml:"fastest"`
	MostRecent int64 `json:"most_recent" yaml:"most_recent"`
}

// Observe records a new successful run.
func (t Timing) Observe(ms int64) Timing {
	return Timing{
		Fastest:    min(t.Fastest, ms),
		MostRecent: ms,
	}
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T, dflt T) T {
	if p == nil {
		return dflt
	}
	return *p
}
