package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/CZERTAINLY/golden/internal/environ"
	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/CZERTAINLY/golden/internal/progress"
	"github.com/CZERTAINLY/golden/internal/reconcile"
	"github.com/CZERTAINLY/golden/internal/runner"
	"github.com/CZERTAINLY/golden/internal/snapshot"
	"github.com/CZERTAINLY/golden/internal/walk"
)

// Mode selects how the store is created and whether it is saved.
type Mode int

const (
	// ModeRun builds a fresh store and never saves it.
	ModeRun Mode = iota
	// ModeRecord builds a fresh store and saves it to Config.Store.
	ModeRecord
	// ModeUpdate loads Config.Store, overrides options and saves it back.
	ModeUpdate
)

func (m Mode) String() string {
	switch m {
	case ModeRecord:
		return "record"
	case ModeUpdate:
		return "update"
	default:
		return "run"
	}
}

type Config struct {
	Mode Mode
	// Metadata of a new store, ignored by ModeUpdate
	Metadata model.Metadata
	// Options explicitly given on the command line
	Options model.Options
	// EnvFiles are dotenv files, their entries go before Options.Env
	EnvFiles []string
	Store    string
	DryRun   bool
	Shell    string
	Jobs     int
}

// Printer shows results and the summary to the operator.
type Printer interface {
	reconcile.Printer
	Summary(reconcile.Summary)
}

// Service is a single configured run.
type Service struct {
	cfg   Config
	store *snapshot.Store
	env   environ.Env
	files []string
}

// New validates cfg, creates or loads the store and lists the files to test.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.Mode != ModeRun && cfg.Store == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Mode, model.ErrNoTarget)
	}

	cli := cfg.Options
	if len(cfg.EnvFiles) > 0 {
		fromFiles, err := environ.LoadFiles(cfg.EnvFiles...)
		if err != nil {
			return nil, err
		}
		cli.Env = append(fromFiles, cli.Env...)
	}

	var store *snapshot.Store
	switch cfg.Mode {
	case ModeUpdate:
		var err error
		store, err = snapshot.Load(cfg.Store)
		if err != nil {
			return nil, err
		}
		store.Override(cli)
	default:
		store = snapshot.New(cfg.Metadata, cli)
	}

	env, err := environ.Parse(store.Options.Env)
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	files, err := walk.Glob(store.Metadata.Dir(), store.Metadata.Files)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	slog.DebugContext(ctx, "configured",
		"mode", cfg.Mode.String(),
		"command", store.Metadata.Command,
		"dir", store.Metadata.Dir(),
		"files", len(files),
		"env", env.Len(),
	)

	return &Service{
		cfg:   cfg,
		store: store,
		env:   env,
		files: files,
	}, nil
}

// Store returns the store the run reconciles into.
func (s *Service) Store() *snapshot.Store {
	return s.store
}

// Files returns the files to test, in the order results are reconciled.
func (s *Service) Files() []string {
	return s.files
}

// Do runs every file, reconciles the outcomes, prints the summary and saves
// the store unless this is a dry run or ModeRun.
func (s *Service) Do(ctx context.Context, printer Printer) (reconcile.Summary, error) {
	opts := s.store.Options
	engine := runner.NewEngine(runner.Runner{
		Shell:   s.cfg.Shell,
		Command: s.store.Metadata.Command,
		Dir:     s.store.Metadata.Dir(),
		Env:     s.env.Apply(opts.Preserve()),
		Timeout: opts.TimeoutDuration(),
	}, s.cfg.Jobs)

	reporter := progress.Reporter{
		Total:    len(s.files),
		Progress: engine.Completed,
		Timeout:  opts.TimeoutDuration(),
	}
	progressCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Go(func() {
		reporter.Run(progressCtx)
	})

	outcomes, err := engine.Do(ctx, s.files)
	stop()
	wg.Wait()
	if err != nil {
		return reconcile.Summary{}, fmt.Errorf("running tests: %w", err)
	}

	summary := reconcile.New(s.store, printer).ApplyAll(s.files, outcomes)
	printer.Summary(summary)
	slog.InfoContext(ctx, "done",
		"success", summary.Success,
		"new_success", summary.NewSuccess,
		"failure", summary.Failure,
		"timeout", summary.Timeout,
	)

	if s.cfg.DryRun || s.cfg.Mode == ModeRun {
		return summary, nil
	}
	if err := snapshot.Save(s.cfg.Store, s.store); err != nil {
		return summary, err
	}
	slog.DebugContext(ctx, "store saved", "path", s.cfg.Store)
	return summary, nil
}
