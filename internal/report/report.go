// Package report writes per file results and the run summary for the
// operator.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/CZERTAINLY/golden/internal/reconcile"
	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

type Config struct {
	// Quiet turns every method into a no-op.
	Quiet bool
	Color bool
	// Diff prints a new success of a file with earlier accepted outputs
	// as a unified diff against the latest of them.
	Diff bool
}

type Printer struct {
	w   io.Writer
	cfg Config

	good *color.Color
	bad  *color.Color
	warn *color.Color
	bold *color.Color
}

var _ reconcile.Printer = (*Printer)(nil)

func New(w io.Writer, cfg Config) *Printer {
	p := &Printer{
		w:    w,
		cfg:  cfg,
		good: color.New(color.FgGreen),
		bad:  color.New(color.FgRed),
		warn: color.New(color.FgYellow),
		bold: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.good, p.bad, p.warn, p.bold} {
		if cfg.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) NewSuccess(s reconcile.NewSuccess) {
	if p.cfg.Quiet {
		return
	}
	body := s.Printed
	if p.cfg.Diff && s.HasPrevious {
		body = p.diff(s.File, s.Previous, s.Saved)
	}
	_, _ = fmt.Fprintf(p.w, "%s: %s:\n%s\n===\n\n", s.File, p.good.Sprint("New success"), body)
}

func (p *Printer) Failure(file, printed string) {
	if p.cfg.Quiet {
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s: %s\n%s\n===\n\n", file, p.bad.Sprint("Failure"), printed)
}

func (p *Printer) Timeout(file string) {
	if p.cfg.Quiet {
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s: %s\n", file, p.warn.Sprint("Timeout"))
}

func (p *Printer) Summary(s reconcile.Summary) {
	if p.cfg.Quiet {
		return
	}
	_, _ = fmt.Fprintf(p.w, "\n%s\n\tSuccesses: %d (%d new)\n\tFailures: %s\n\tTimeouts: %s\n",
		p.bold.Sprint("Summary:"),
		s.Success, s.NewSuccess,
		count(p.bad, s.Failure),
		count(p.warn, s.Timeout),
	)
}

func count(c *color.Color, n int) string {
	if n == 0 {
		return "0"
	}
	return c.Sprint(n)
}

func (p *Printer) diff(file, accepted, saved string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(accepted),
		B:        difflib.SplitLines(saved),
		FromFile: file,
		ToFile:   file,
		FromDate: "accepted",
		ToDate:   "new",
		Context:  3,
	})
	if err != nil {
		return saved
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = p.bold.Sprint(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = p.good.Sprint(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = p.bad.Sprint(line)
		}
	}
	return strings.Join(lines, "\n")
}
