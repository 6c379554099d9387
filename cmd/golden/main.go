package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/CZERTAINLY/golden/internal/log"
	"github.com/CZERTAINLY/golden/internal/model"
	"github.com/CZERTAINLY/golden/internal/report"
	"github.com/CZERTAINLY/golden/internal/runner"
	"github.com/CZERTAINLY/golden/internal/service"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the exit status: 0 when every
// test passed, 1 on a failure, a timeout or an error.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	slog.SetDefault(log.New(stderr, slog.LevelWarn))

	app := &app{stdout: stdout, stderr: stderr}
	root := app.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		for _, d := range model.CueErrDetails(err) {
			slog.Error("invalid store", d.Attr("detail"))
		}
		slog.Error("golden failed", "err", err)
		return 1
	}
	return app.exitCode
}

type app struct {
	stdout io.Writer
	stderr io.Writer

	// global flags
	flagDryRun  bool
	flagQuiet   bool
	flagVerbose int

	// run configuration
	flagDirectory   string
	flagStdoutMode  model.StreamMode
	flagStderrMode  model.StreamMode
	flagEnv         []string
	flagEnvFiles    []string
	flagPreserveEnv bool
	flagTimeout     uint64
	flagJobs        int
	flagShell       string
	flagDiff        bool
	flagNoColor     bool

	exitCode int
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "golden",
		Short: "Snapshot test runner: runs a command for every file and compares the output with accepted results",
		// never print messages
		SilenceErrors: true,
		SilenceUsage:  true,
		// setup logging
		PersistentPreRunE: a.initGolden,
	}
	pf := root.PersistentFlags()
	pf.BoolVarP(&a.flagDryRun, "dry-run", "n", false, "run and report, but never write the store file")
	pf.BoolVarP(&a.flagQuiet, "quiet", "q", false, "print nothing but errors")
	pf.CountVarP(&a.flagVerbose, "verbose", "v", "verbose logging, repeat for debug output")

	runCmd := &cobra.Command{
		Use:   "run COMMAND FILES",
		Short: "run COMMAND for every file matching FILES and report the outputs, nothing is saved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.do(cmd, service.Config{
				Mode:     service.ModeRun,
				Metadata: a.metadata(cmd, args[0], args[1]),
			})
		},
	}
	a.directoryFlag(runCmd.Flags())
	a.optionFlags(runCmd.Flags())

	recordCmd := &cobra.Command{
		Use:   "record COMMAND FILES DB",
		Short: "like run, then accept every successful output into a new store file DB",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 {
				return fmt.Errorf("record: %w", model.ErrNoTarget)
			}
			return a.do(cmd, service.Config{
				Mode:     service.ModeRecord,
				Metadata: a.metadata(cmd, args[0], args[1]),
				Store:    args[2],
			})
		},
	}
	a.directoryFlag(recordCmd.Flags())
	a.optionFlags(recordCmd.Flags())

	updateCmd := &cobra.Command{
		Use:   "update DB",
		Short: "rerun the command recorded in DB and accept new successful outputs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("update: %w", model.ErrNoTarget)
			}
			return a.do(cmd, service.Config{
				Mode:  service.ModeUpdate,
				Store: args[0],
			})
		},
	}
	a.optionFlags(updateCmd.Flags())

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "version provide version of a golden",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				_, _ = fmt.Fprintln(out, "golden: version info not available")
				return
			}
			_, _ = fmt.Fprintf(out, "golden: %s\n", info.Main.Version)
			_, _ = fmt.Fprintf(out, "go:     %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					_, _ = fmt.Fprintf(out, "commit: %s\n", s.Value)
				case "vcs.time":
					_, _ = fmt.Fprintf(out, "date:   %s\n", s.Value)
				case "vcs.modified":
					_, _ = fmt.Fprintf(out, "dirty:  %s\n", s.Value)
				}
			}
		},
	}

	root.AddCommand(runCmd, recordCmd, updateCmd, versionCmd)
	return root
}

func (a *app) directoryFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&a.flagDirectory, "directory", "d", "", "working directory of COMMAND and root of FILES (default: current directory)")
}

func (a *app) optionFlags(fs *pflag.FlagSet) {
	fs.Var(&a.flagStdoutMode, "stdout-mode", fmt.Sprintf("what to do with stdout: %s (default %s)", model.StreamModeList(), model.DefaultStdoutMode))
	fs.Var(&a.flagStderrMode, "stderr-mode", fmt.Sprintf("what to do with stderr: %s (default %s)", model.StreamModeList(), model.DefaultStderrMode))
	fs.StringArrayVarP(&a.flagEnv, "env", "e", nil, "KEY=VALUE passed to COMMAND, repeatable, replaces the recorded list")
	fs.StringArrayVar(&a.flagEnvFiles, "env-file", nil, "dotenv file with variables for COMMAND, repeatable, --env wins")
	fs.BoolVarP(&a.flagPreserveEnv, "preserve-env", "E", false, "pass the environment of golden to COMMAND, turn a recorded true off with --preserve-env=false or -E=false (default false)")
	fs.Uint64VarP(&a.flagTimeout, "timeout", "t", 0, "seconds a single run may take (default 10)")
	fs.IntVarP(&a.flagJobs, "jobs", "j", 0, "number of parallel runs (default: number of CPUs)")
	fs.StringVar(&a.flagShell, "shell", runner.DefaultShell, "shell used as SHELL -c COMMAND")
	fs.BoolVar(&a.flagDiff, "diff", false, "show new outputs as a diff against the latest accepted one")
	fs.BoolVar(&a.flagNoColor, "no-color", false, "never color the output")
}

func (a *app) metadata(cmd *cobra.Command, command, files string) model.Metadata {
	m := model.Metadata{
		Command: command,
		Files:   files,
	}
	if cmd.Flags().Changed("directory") {
		m.Directory = &a.flagDirectory
	}
	return m
}

// options returns only what was given on the command line, everything
// else stays unset so stored values and defaults apply.
func (a *app) options(cmd *cobra.Command) model.Options {
	fs := cmd.Flags()
	var o model.Options
	if fs.Changed("stdout-mode") {
		o.StdoutMode = &a.flagStdoutMode
	}
	if fs.Changed("stderr-mode") {
		o.StderrMode = &a.flagStderrMode
	}
	if fs.Changed("preserve-env") {
		o.PreserveEnv = &a.flagPreserveEnv
	}
	if fs.Changed("timeout") {
		o.Timeout = &a.flagTimeout
	}
	o.Env = a.flagEnv
	return o
}

func (a *app) do(cmd *cobra.Command, cfg service.Config) error {
	ctx := cmd.Context()
	attrs := slog.Group("golden",
		slog.String("cmd", cmd.Name()),
		slog.Int("pid", os.Getpid()),
	)
	ctx = log.ContextAttrs(ctx, attrs)

	cfg.Options = a.options(cmd)
	cfg.EnvFiles = a.flagEnvFiles
	cfg.DryRun = a.flagDryRun
	cfg.Shell = a.flagShell
	cfg.Jobs = a.flagJobs

	printer := report.New(a.stdout, report.Config{
		Quiet: a.flagQuiet,
		Color: !a.flagNoColor && log.IsTerminal(a.stdout),
		Diff:  a.flagDiff,
	})
	summary, err := service.Run(ctx, cfg, printer)
	if err != nil {
		return err
	}
	a.exitCode = summary.ExitCode()
	return nil
}

func (a *app) initGolden(cmd *cobra.Command, _ []string) error {
	level := log.Level(a.flagQuiet, a.flagVerbose)
	slog.SetDefault(log.New(a.stderr, level))
	slog.Debug("golden run", "args", os.Args, "level", level.String())
	return nil
}
