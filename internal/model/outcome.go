package model

import "time"

// Outcome is the classification of a single job. It is one of Success,
// Failure or Timeout.
type Outcome interface {
	outcome()
}

// Success is a zero exit status within the timeout.
type Success struct {
	Stdout  string
	Stderr  string
	Elapsed time.Duration
}

// Failure is a non-zero exit status within the timeout.
type Failure struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Timeout means the process was killed after exceeding its time budget.
type Timeout struct {
	After time.Duration
}

func (Success) outcome() {}
func (Failure) outcome() {}
func (Timeout) outcome() {}

// ElapsedMillis is the value stored in timing statistics.
func (s Success) ElapsedMillis() int64 {
	return s.Elapsed.Milliseconds()
}
