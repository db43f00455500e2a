// Package cli wires the rela command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
	"github.com/felixgeelhaar/rela/internal/infrastructure/autodetect"
	"github.com/felixgeelhaar/rela/internal/infrastructure/config"
	"github.com/felixgeelhaar/rela/internal/infrastructure/pkgresolve"
	"github.com/felixgeelhaar/rela/internal/infrastructure/pysource"
	"github.com/felixgeelhaar/rela/internal/infrastructure/python"
	"github.com/felixgeelhaar/rela/internal/infrastructure/report"
	"github.com/felixgeelhaar/rela/internal/infrastructure/searchpath"
	"github.com/felixgeelhaar/rela/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/rela/internal/infrastructure/wizard"
	"github.com/felixgeelhaar/rela/internal/mcp"
)

// Service is the application surface the commands drive.
type Service interface {
	Resolve(ctx context.Context, opts application.ResolveOptions) (application.ResolveResult, error)
	Activate(ctx context.Context, opts application.ActivateOptions) (application.ActivateResult, error)
	EnsurePath(ctx context.Context, opts application.PathOptions) (application.PathResult, error)
	Redirect(ctx context.Context, opts application.RedirectOptions) error
	Test(ctx context.Context, opts application.TestOptions) (application.TestResult, error)
	LoadConfig(configPath string) (application.Config, error)
	Watch(ctx context.Context, root string, watcher application.FileWatcher, run func(context.Context) error, callback application.WatchCallback) error
}

var (
	initWizard = wizard.Run
	newWatcher = func(cfg application.Config, logger *log.Logger) (application.FileWatcher, error) {
		return watcher.New(
			watcher.WithDebounce(cfg.Watch.Debounce),
			watcher.WithExtensions(cfg.Watch.Extensions...),
			watcher.WithErrorHandler(func(err error) { logger.Warn("watch", "err", err) }),
		)
	}
)

// App carries the dependencies shared by all commands.
type App struct {
	Service  Service
	Detector application.Autodetector
	Logger   *log.Logger
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
	// ServeMCP runs the MCP server until ctx is done.
	ServeMCP func(ctx context.Context, configPath string) error
}

// BuildApp assembles the production dependency graph.
func BuildApp(stdin io.Reader, stdout, stderr io.Writer) *App {
	logger := log.NewWithOptions(stderr, log.Options{Prefix: "rela"})

	launcher := python.NewLauncher()
	launcher.Stdin, launcher.Stdout, launcher.Stderr = stdin, stdout, stderr

	svc := &application.Service{
		ConfigLoader: config.Loader{},
		Autodetector: autodetect.Detector{},
		Resolver:     pkgresolve.NewCachedResolver(),
		SearchPath:   searchpath.NewFromEnv(),
		Detector:     python.EnvDetector{},
		Launcher:     launcher,
		TestRunner:   python.NewUnittestRunner(launcher),
		Scanner:      pysource.Scanner{},
		Reporter:     report.Writer{},
		Logger:       logger,
		Out:          stdout,
	}

	return &App{
		Service:  svc,
		Detector: autodetect.Detector{},
		Logger:   logger,
		Stdin:    stdin,
		Stdout:   stdout,
		Stderr:   stderr,
		ServeMCP: func(ctx context.Context, configPath string) error {
			return mcp.New(svc, mcp.Config{ConfigPath: configPath}, Version).Run(ctx)
		},
	}
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	app := BuildApp(os.Stdin, os.Stdout, os.Stderr)
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return exitCode(err)
}

type rootFlags struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "rela",
		Short: "Run Python scripts that use relative imports",
		Long: `rela launches a Python script under its fully qualified module name so
relative imports inside it work when the file is run directly.

Examples:
  rela run src/thing/other.py            Run thing.other from the src root
  rela run --spec ..tools cli.py -- -h   Require two package levels
  rela resolve --command src/thing/other.py
  rela test tests/test_thing.py --keep test_b`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.verbose {
				app.Logger.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultFile, "config file path")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(
		newRunCommand(app, flags),
		newResolveCommand(app, flags),
		newPathCommand(app),
		newRedirectCommand(app, flags),
		newTestCommand(app, flags),
		newInitCommand(app, flags),
		newMCPCommand(app, flags),
		newVersionCommand(),
	)
	return root
}

// watch reruns fn whenever a source file below root changes.
func (a *App) watch(ctx context.Context, configPath, root string, fn func(context.Context) error) error {
	cfg, err := a.Service.LoadConfig(configPath)
	if err != nil {
		return err
	}
	w, err := newWatcher(cfg, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	a.Logger.Info("watching for changes (Ctrl+C to stop)", "root", root)
	callback := func(run int, runErr error) {
		if code := exitCode(runErr); code != ExitOK {
			a.Logger.Error("run failed", "run", run, "code", code, "err", runErr)
			return
		}
		a.Logger.Info("run finished", "run", run)
	}

	err = a.Service.Watch(ctx, root, w, fn, callback)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// positional wraps a cobra argument validator so violations exit with the
// usage code.
func positional(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func parseMode(s string) (domain.EntryMode, error) {
	mode, err := domain.ParseEntryMode(s)
	if err != nil {
		return mode, usageError(err)
	}
	return mode, nil
}

type outputValue application.OutputFormat

func (o *outputValue) String() string { return string(*o) }

func (o *outputValue) Set(value string) error {
	switch value {
	case string(application.OutputText), string(application.OutputJSON):
		*o = outputValue(value)
		return nil
	default:
		return fmt.Errorf("invalid output format: %s", value)
	}
}

func (o *outputValue) Type() string { return "format" }

func outputFlag(cmd *cobra.Command) *application.OutputFormat {
	output := application.OutputText
	cmd.Flags().VarP((*outputValue)(&output), "output", "o", "output format: text|json")
	return &output
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer, force bool) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
		}
	}
	file, err := os.Create(path) // #nosec G304 -- path chosen by the user
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()
	return config.Write(file, cfg)
}
