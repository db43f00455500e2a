package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

func newRunCommand(app *App, root *rootFlags) *cobra.Command {
	var (
		spec  string
		mode  string
		exec  bool
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "run SCRIPT [-- ARGS...]",
		Short: "Run a script under its qualified module name",
		Args:  positional(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseMode(mode)
			if err != nil {
				return err
			}
			opts := application.ActivateOptions{
				ConfigPath: root.configPath,
				Script:     args[0],
				Spec:       spec,
				Args:       passthrough(args),
				Mode:       entry,
				Exec:       exec,
			}
			activate := func(ctx context.Context) error {
				res, err := app.Service.Activate(ctx, opts)
				if err == nil && !res.Launched {
					app.Logger.Info("already running under its qualified name", "module", res.Context.Module())
				}
				return err
			}
			if !watch {
				return activate(cmd.Context())
			}

			res, err := app.Service.Resolve(cmd.Context(), application.ResolveOptions{
				ConfigPath: root.configPath,
				Script:     args[0],
				Spec:       spec,
				Mode:       entry,
			})
			if err != nil {
				return err
			}
			return app.watch(cmd.Context(), root.configPath, res.Context.RootDir(), activate)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&spec, "spec", "s", ".", "package spec: dots for depth or a dotted package name")
	cmd.Flags().StringVar(&mode, "mode", "auto", "entry mode: auto|main|imported")
	cmd.Flags().BoolVar(&exec, "exec", false, "replace the rela process with the interpreter (Unix)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "run again when Python files under the package root change")
	cmd.MarkFlagsMutuallyExclusive("exec", "watch")
	return cmd
}

func newResolveCommand(app *App, root *rootFlags) *cobra.Command {
	var (
		spec    string
		mode    string
		command bool
		output  *application.OutputFormat
	)
	cmd := &cobra.Command{
		Use:   "resolve SCRIPT [-- ARGS...]",
		Short: "Show the module name, package root and search path of a script",
		Args:  positional(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseMode(mode)
			if err != nil {
				return err
			}
			_, err = app.Service.Resolve(cmd.Context(), application.ResolveOptions{
				ConfigPath: root.configPath,
				Script:     args[0],
				Spec:       spec,
				Args:       passthrough(args),
				Mode:       entry,
				Output:     *output,
				Command:    command,
			})
			return err
		},
	}
	output = outputFlag(cmd)
	cmd.Flags().StringVarP(&spec, "spec", "s", ".", "package spec: dots for depth or a dotted package name")
	cmd.Flags().StringVar(&mode, "mode", "auto", "entry mode: auto|main|imported")
	cmd.Flags().BoolVar(&command, "command", false, "include the launch command")
	return cmd
}

func newPathCommand(app *App) *cobra.Command {
	var (
		bottom bool
		from   string
		output *application.OutputFormat
	)
	cmd := &cobra.Command{
		Use:   "path DIR [-- COMMAND ARGS...]",
		Short: "Put a directory on the search path, optionally only while a command runs",
		Long: `path puts DIR on PYTHONPATH exactly once. Relative directories resolve
against the directory of --from, or the working directory.

With a command the insertion is scoped: the command runs with DIR present
and DIR is removed again afterwards if path added it.`,
		Args: positional(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			position := domain.PositionFront
			if bottom {
				position = domain.PositionBack
			}
			opts := application.PathOptions{
				Dir:      args[0],
				Position: position,
				From:     from,
				Command:  passthrough(args),
				Output:   *output,
			}
			// A scoped command owns stdout unless a report was asked for.
			if len(opts.Command) > 0 && !cmd.Flags().Changed("output") {
				opts.Output = ""
			}
			_, err := app.Service.EnsurePath(cmd.Context(), opts)
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	output = outputFlag(cmd)
	cmd.Flags().BoolVar(&bottom, "bottom", false, "append instead of prepending")
	cmd.Flags().StringVar(&from, "from", "", "script whose directory relative paths resolve against")
	return cmd
}

func newRedirectCommand(app *App, root *rootFlags) *cobra.Command {
	var (
		spec string
		mode string
		from string
	)
	cmd := &cobra.Command{
		Use:   "redirect TARGET --from SCRIPT [-- ARGS...]",
		Short: "Run another module as main in place of a script",
		Long: `redirect runs TARGET as the main module when SCRIPT is the entry point.
TARGET may be absolute (pkg.tool) or relative to SCRIPT's module (.tool, ..other.tool).
Nothing happens when SCRIPT already runs under its qualified name.`,
		Args: positional(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseMode(mode)
			if err != nil {
				return err
			}
			err = app.Service.Redirect(cmd.Context(), application.RedirectOptions{
				ConfigPath: root.configPath,
				Script:     from,
				Spec:       spec,
				Target:     args[0],
				Args:       passthrough(args),
				Mode:       entry,
			})
			if err == nil {
				app.Logger.Debug("not the entry point; nothing redirected", "script", from)
			}
			if domain.IsControlSignal(err) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&from, "from", "", "script that delegates to TARGET")
	cmd.Flags().StringVarP(&spec, "spec", "s", ".", "package spec of SCRIPT")
	cmd.Flags().StringVar(&mode, "mode", "auto", "entry mode: auto|main|imported")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newTestCommand(app *App, root *rootFlags) *cobra.Command {
	var (
		class     string
		keep      []string
		spec      string
		mode      string
		list      bool
		failfast  bool
		verbosity int
		watch     bool
		output    *application.OutputFormat
	)
	cmd := &cobra.Command{
		Use:   "test FILE [-- RUNNER ARGS...]",
		Short: "Run the tests of a file, keeping only marked test methods",
		Long: `test scans FILE for test classes. In a class marked with a case() decorator
or a "# rela:case" comment, test methods marked with a keep() decorator or a
"# rela:keep" comment are kept. A --keep flag keeps a test method in any
class. When any test method of a class is kept the other test methods of that
class are skipped.

--keep NAME applies to every class, --keep Class.NAME to one.`,
		Args: positional(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := parseMode(mode)
			if err != nil {
				return err
			}
			if verbosity < 0 {
				return usageError(fmt.Errorf("invalid verbosity %d", verbosity))
			}
			opts := application.TestOptions{
				ConfigPath: root.configPath,
				File:       args[0],
				Class:      class,
				Keep:       keep,
				Spec:       spec,
				Mode:       entry,
				List:       list,
				Verbosity:  verbosity,
				Failfast:   failfast,
				Args:       passthrough(args),
				Output:     *output,
			}
			run := func(ctx context.Context) error {
				res, err := app.Service.Test(ctx, opts)
				if !domain.IsControlSignal(err) {
					return err
				}
				if res.ExitCode != 0 {
					return &ExitError{Code: res.ExitCode, Err: fmt.Errorf("tests failed in %s", res.Module)}
				}
				return nil
			}
			if !watch {
				return run(cmd.Context())
			}
			return app.watch(cmd.Context(), root.configPath, filepath.Dir(args[0]), run)
		},
	}
	cmd.Flags().SetInterspersed(false)
	output = outputFlag(cmd)
	cmd.Flags().StringVar(&class, "class", "", "only consider this test class")
	cmd.Flags().StringArrayVarP(&keep, "keep", "k", nil, "test method to keep, optionally Class.method (repeatable)")
	cmd.Flags().StringVarP(&spec, "spec", "s", "", "package spec used to name the test module (default: file stem)")
	cmd.Flags().StringVar(&mode, "mode", "auto", "entry mode: auto|main|imported")
	cmd.Flags().BoolVar(&list, "list", false, "show the selection without running")
	cmd.Flags().BoolVarP(&failfast, "failfast", "f", false, "stop on the first failure")
	cmd.Flags().IntVar(&verbosity, "verbosity", 0, "runner verbosity (default from config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "run again when Python files change")
	cmd.MarkFlagsMutuallyExclusive("list", "watch")
	return cmd
}

func newInitCommand(app *App, root *rootFlags) *cobra.Command {
	var (
		force         bool
		noInteractive bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Detect the interpreter and write a config file",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Detector.Detect()
			if err != nil {
				return fmt.Errorf("%w: %w", application.ErrConfig, err)
			}
			if !noInteractive {
				var confirmed bool
				cfg, confirmed, err = initWizard(cfg, app.Stdout, app.Stdin)
				if err != nil {
					return err
				}
				if !confirmed {
					_, _ = fmt.Fprintln(app.Stdout, "Init cancelled; no configuration written.")
					return nil
				}
			}
			if err := writeConfigFile(root.configPath, cfg, app.Stdout, force); err != nil {
				return usageError(err)
			}
			if root.configPath != "-" {
				_, _ = fmt.Fprintf(app.Stdout, "Wrote %s\n", root.configPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "skip the interactive wizard")
	return cmd
}

func newMCPCommand(app *App, root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve resolve and select_tests over MCP on stdio",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ServeMCP(cmd.Context(), root.configPath)
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  positional(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rela %s\n", versionString())
		},
	}
}

// passthrough returns the arguments after the first positional one. A
// separating "--" left in place by non-interspersed parsing is dropped.
func passthrough(args []string) []string {
	rest := args[1:]
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}
	return rest
}
