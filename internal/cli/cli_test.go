package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

type fakeService struct {
	activateOpts application.ActivateOptions
	activateRes  application.ActivateResult
	activateErr  error
	resolveOpts  application.ResolveOptions
	resolveErr   error
	pathOpts     application.PathOptions
	pathErr      error
	redirectOpts application.RedirectOptions
	redirectErr  error
	testOpts     application.TestOptions
	testRes      application.TestResult
	testErr      error
}

func (f *fakeService) Resolve(_ context.Context, opts application.ResolveOptions) (application.ResolveResult, error) {
	f.resolveOpts = opts
	return application.ResolveResult{}, f.resolveErr
}

func (f *fakeService) Activate(_ context.Context, opts application.ActivateOptions) (application.ActivateResult, error) {
	f.activateOpts = opts
	return f.activateRes, f.activateErr
}

func (f *fakeService) EnsurePath(_ context.Context, opts application.PathOptions) (application.PathResult, error) {
	f.pathOpts = opts
	return application.PathResult{}, f.pathErr
}

func (f *fakeService) Redirect(_ context.Context, opts application.RedirectOptions) error {
	f.redirectOpts = opts
	return f.redirectErr
}

func (f *fakeService) Test(_ context.Context, opts application.TestOptions) (application.TestResult, error) {
	f.testOpts = opts
	return f.testRes, f.testErr
}

func (f *fakeService) LoadConfig(string) (application.Config, error) {
	return application.DefaultConfig(), nil
}

func (f *fakeService) Watch(ctx context.Context, root string, w application.FileWatcher, run func(context.Context) error, cb application.WatchCallback) error {
	return run(ctx)
}

type fakeDetector struct{ cfg application.Config }

func (f fakeDetector) Detect() (application.Config, error) { return f.cfg, nil }

func newTestApp(svc *fakeService) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{
		Service:  svc,
		Detector: fakeDetector{cfg: application.DefaultConfig()},
		Logger:   log.New(io.Discard),
		Stdin:    strings.NewReader(""),
		Stdout:   out,
		Stderr:   io.Discard,
	}, out
}

func execute(app *App, args ...string) error {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRunCommandActivates(t *testing.T) {
	svc := &fakeService{activateRes: application.ActivateResult{Launched: true}}
	app, _ := newTestApp(svc)

	err := execute(app, "run", "--spec", "..", "--exec", "src/thing/other.py", "--", "-h", "x")
	require.NoError(t, err)
	assert.Equal(t, "src/thing/other.py", svc.activateOpts.Script)
	assert.Equal(t, "..", svc.activateOpts.Spec)
	assert.True(t, svc.activateOpts.Exec)
	assert.Equal(t, []string{"-h", "x"}, svc.activateOpts.Args)
	assert.Equal(t, ".rela.yaml", svc.activateOpts.ConfigPath)
}

func TestRunCommandPassesFlagsAfterScript(t *testing.T) {
	svc := &fakeService{}
	app, _ := newTestApp(svc)

	require.NoError(t, execute(app, "run", "tool.py", "--verbose"))
	assert.Equal(t, []string{"--verbose"}, svc.activateOpts.Args)
}

func TestRunCommandErrors(t *testing.T) {
	app, _ := newTestApp(&fakeService{})
	assert.Equal(t, ExitUsage, exitCode(execute(app, "run")))
	assert.Equal(t, ExitUsage, exitCode(execute(app, "run", "--mode", "sideways", "x.py")))
	assert.Equal(t, ExitUsage, exitCode(execute(app, "run", "--exec", "--watch", "x.py")))

	svc := &fakeService{activateErr: &application.ExitStatusError{Target: "thing.other", Code: 7}}
	app, _ = newTestApp(svc)
	assert.Equal(t, 7, exitCode(execute(app, "run", "x.py")))
}

func TestRunCommandWatchResolvesRoot(t *testing.T) {
	svc := &fakeService{}
	app, _ := newTestApp(svc)
	newWatcher = func(application.Config, *log.Logger) (application.FileWatcher, error) { return nopWatcher{}, nil }
	t.Cleanup(func() { newWatcher = defaultWatcher })

	// The fake resolver returns an empty context; the watcher root is
	// whatever it reports.
	require.NoError(t, execute(app, "run", "--watch", "x.py"))
	assert.Equal(t, "x.py", svc.resolveOpts.Script)
	assert.Equal(t, "x.py", svc.activateOpts.Script)
}

type nopWatcher struct{}

func (nopWatcher) WatchDir(string) error                  { return nil }
func (nopWatcher) Events(context.Context) <-chan struct{} { return nil }
func (nopWatcher) Close() error                           { return nil }

var defaultWatcher = newWatcher

func TestResolveCommand(t *testing.T) {
	svc := &fakeService{}
	app, _ := newTestApp(svc)

	require.NoError(t, execute(app, "resolve", "-o", "json", "--command", "x.py", "a"))
	assert.Equal(t, application.OutputJSON, svc.resolveOpts.Output)
	assert.True(t, svc.resolveOpts.Command)
	assert.Equal(t, []string{"a"}, svc.resolveOpts.Args)

	assert.Equal(t, ExitUsage, exitCode(execute(app, "resolve", "-o", "xml", "x.py")))

	svc.resolveErr = &domain.ResolutionError{Step: domain.StepMissingMarker}
	assert.Equal(t, ExitResolution, exitCode(execute(app, "resolve", "x.py")))
}

func TestPathCommand(t *testing.T) {
	svc := &fakeService{}
	app, _ := newTestApp(svc)

	require.NoError(t, execute(app, "path", "--bottom", "lib"))
	assert.Equal(t, domain.PositionBack, svc.pathOpts.Position)
	assert.Equal(t, application.OutputText, svc.pathOpts.Output)

	require.NoError(t, execute(app, "path", "--from", "tool.py", "lib", "--", "python3", "-c", "pass"))
	assert.Equal(t, domain.PositionFront, svc.pathOpts.Position)
	assert.Equal(t, "tool.py", svc.pathOpts.From)
	assert.Equal(t, []string{"python3", "-c", "pass"}, svc.pathOpts.Command)
	assert.Empty(t, svc.pathOpts.Output, "scoped commands keep stdout to themselves")
}

func TestRedirectCommand(t *testing.T) {
	svc := &fakeService{redirectErr: &domain.ControlSignal{Kind: domain.SignalMainRedirectDone}}
	app, _ := newTestApp(svc)

	require.NoError(t, execute(app, "redirect", "--from", "pkg/__init__.py", ".cli", "arg"))
	assert.Equal(t, ".cli", svc.redirectOpts.Target)
	assert.Equal(t, "pkg/__init__.py", svc.redirectOpts.Script)
	assert.Equal(t, []string{"arg"}, svc.redirectOpts.Args)

	assert.Equal(t, ExitUsage, exitCode(execute(app, "redirect", ".cli")), "--from is required")
}

func TestTestCommand(t *testing.T) {
	svc := &fakeService{
		testRes: application.TestResult{Module: "test_thing", Ran: true},
		testErr: &domain.ControlSignal{Kind: domain.SignalTestRunDone},
	}
	app, _ := newTestApp(svc)

	require.NoError(t, execute(app, "test", "--keep", "test_b", "-k", "TestThing.test_c", "--verbosity", "1", "test_thing.py"))
	assert.Equal(t, []string{"test_b", "TestThing.test_c"}, svc.testOpts.Keep)
	assert.Equal(t, 1, svc.testOpts.Verbosity)

	svc.testRes.ExitCode = 1
	err := execute(app, "test", "test_thing.py")
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, err.Error(), "test_thing")

	assert.Equal(t, ExitUsage, exitCode(execute(app, "test", "--verbosity", "-1", "test_thing.py")))
}

func TestInitCommand(t *testing.T) {
	app, out := newTestApp(&fakeService{})
	path := filepath.Join(t.TempDir(), ".rela.yaml")

	require.NoError(t, execute(app, "init", "--no-interactive", "--config", path))
	assert.Contains(t, out.String(), "Wrote "+path)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "python: python3")

	assert.Equal(t, ExitUsage, exitCode(execute(app, "init", "--no-interactive", "--config", path)), "existing file needs --force")
	require.NoError(t, execute(app, "init", "--no-interactive", "--force", "--config", path))
}

func TestInitCommandWizardCancelled(t *testing.T) {
	app, out := newTestApp(&fakeService{})
	initWizard = func(cfg application.Config, _ io.Writer, _ io.Reader) (application.Config, bool, error) {
		return cfg, false, nil
	}
	t.Cleanup(func() { initWizard = defaultWizard })

	path := filepath.Join(t.TempDir(), ".rela.yaml")
	require.NoError(t, execute(app, "init", "--config", path))
	assert.Contains(t, out.String(), "cancelled")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

var defaultWizard = initWizard

func TestMCPCommand(t *testing.T) {
	app, _ := newTestApp(&fakeService{})
	var gotPath string
	app.ServeMCP = func(_ context.Context, configPath string) error {
		gotPath = configPath
		return nil
	}
	require.NoError(t, execute(app, "--config", "custom.yaml", "mcp"))
	assert.Equal(t, "custom.yaml", gotPath)
}

func TestVersionCommand(t *testing.T) {
	app, _ := newTestApp(&fakeService{})
	root := NewRootCommand(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "rela dev")
}

func TestVerboseEnablesDebug(t *testing.T) {
	app, _ := newTestApp(&fakeService{})
	require.NoError(t, execute(app, "-v", "version"))
	assert.Equal(t, log.DebugLevel, app.Logger.GetLevel())
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"control signal", &domain.ControlSignal{Kind: domain.SignalTestRunDone}, ExitOK},
		{"child status", &application.ExitStatusError{Code: 5}, 5},
		{"child without status", &application.ExitStatusError{Code: -1}, ExitChildFailure},
		{"resolution", &domain.ResolutionError{Step: domain.StepNameMismatch}, ExitResolution},
		{"activation", &domain.ActivationError{Reason: "stdin"}, ExitActivation},
		{"config", errors.Join(application.ErrConfig, errors.New("bad yaml")), ExitUsage},
		{"spec", domain.ErrInvalidSpec, ExitUsage},
		{"explicit", &ExitError{Code: 9}, 9},
		{"unknown command", errors.New(`unknown command "x" for "rela"`), ExitUsage},
		{"other", errors.New("exec: python3: not found"), ExitChildFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.err))
		})
	}
}

func TestOutputValueSet(t *testing.T) {
	val := outputValue(application.OutputText)
	require.NoError(t, val.Set("json"))
	assert.Equal(t, "json", val.String())
	assert.Error(t, val.Set("bad"))
}

func TestPassthrough(t *testing.T) {
	assert.Equal(t, []string{"-h"}, passthrough([]string{"x.py", "--", "-h"}))
	assert.Equal(t, []string{"a", "--", "b"}, passthrough([]string{"x.py", "a", "--", "b"}))
	assert.Empty(t, passthrough([]string{"x.py"}))
}

func TestWriteConfigFileToStdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeConfigFile("-", application.DefaultConfig(), &buf, false))
	assert.Contains(t, buf.String(), "marker: __init__.py")
}
