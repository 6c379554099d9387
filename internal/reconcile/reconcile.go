// Package reconcile folds job outcomes into a snapshot store. It is the
// only code that mutates store results and timing, and it runs after
// every job has finished, so it needs no locking.
package reconcile

import (
	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/CZERTAINLY/golden/internal/snapshot"
)

// NewSuccess describes a success whose saved text was not accepted
// before.
type NewSuccess struct {
	File    string
	Printed string
	Saved   string
	// Previous is the latest output accepted for File before this one,
	// valid when HasPrevious is set.
	Previous    string
	HasPrevious bool
}

// Printer receives what the operator should see.
type Printer interface {
	NewSuccess(NewSuccess)
	Failure(file, printed string)
	Timeout(file string)
}

type Summary struct {
	Success    int
	NewSuccess int
	Failure    int
	Timeout    int
}

// ExitCode is 0 when nothing failed or timed out, new successes don't
// count.
func (s Summary) ExitCode() int {
	if s.Failure == 0 && s.Timeout == 0 {
		return 0
	}
	return 1
}

type Reconciler struct {
	store   *snapshot.Store
	printer Printer
	summary Summary
}

// New returns a reconciler for store. A nil printer prints nothing.
func New(store *snapshot.Store, printer Printer) *Reconciler {
	if printer == nil {
		printer = nop{}
	}
	return &Reconciler{
		store:   store,
		printer: printer,
	}
}

// Project splits stdout and stderr into the text to print and the text
// to save according to the stream modes of opts.
func Project(opts model.Options, stdout, stderr string) (printed, saved string) {
	out, errs := opts.Stdout(), opts.Stderr()
	if out.Prints() {
		printed += stdout
	}
	if errs.Prints() {
		printed += stderr
	}
	if out.Saves() {
		saved += stdout
	}
	if errs.Saves() {
		saved += stderr
	}
	return printed, saved
}

// Apply folds the outcome of path into the store.
func (r *Reconciler) Apply(path string, outcome model.Outcome) {
	key := r.store.Key(path)
	switch o := outcome.(type) {
	case model.Success:
		r.summary.Success++
		r.store.Observe(key, o.ElapsedMillis())
		printed, saved := Project(r.store.Options, o.Stdout, o.Stderr)
		if r.store.Contains(key, saved) {
			return
		}
		previous, hasPrevious := r.store.Latest(key)
		r.store.Accept(key, saved)
		r.summary.NewSuccess++
		r.printer.NewSuccess(NewSuccess{
			File:        key,
			Printed:     printed,
			Saved:       saved,
			Previous:    previous,
			HasPrevious: hasPrevious,
		})
	case model.Failure:
		r.summary.Failure++
		printed, _ := Project(r.store.Options, o.Stdout, o.Stderr)
		r.printer.Failure(key, printed)
	case model.Timeout:
		r.summary.Timeout++
		r.printer.Timeout(key)
	}
}

// ApplyAll applies outcomes[i] to paths[i] in order.
func (r *Reconciler) ApplyAll(paths []string, outcomes []model.Outcome) Summary {
	for i, path := range paths {
		r.Apply(path, outcomes[i])
	}
	return r.summary
}

func (r *Reconciler) Summary() Summary {
	return r.summary
}

type nop struct{}

func (nop) NewSuccess(NewSuccess)  {}
func (nop) Failure(string, string) {}
func (nop) Timeout(string)         {}
