package python

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/rela/internal/application"
)

// UnittestRunner implements application.TestRunner with `python -m unittest`.
type UnittestRunner struct {
	Launcher application.Launcher
}

// NewUnittestRunner creates a runner that launches through l.
func NewUnittestRunner(l application.Launcher) *UnittestRunner {
	return &UnittestRunner{Launcher: l}
}

// RunTests runs the targets and returns the runner's exit code.
func (r *UnittestRunner) RunTests(ctx context.Context, req application.TestRunRequest) (int, error) {
	if len(req.Targets) == 0 {
		return 0, errors.New("no test targets")
	}
	return r.Launcher.Launch(ctx, application.LaunchRequest{
		Python:     req.Python,
		Module:     "unittest",
		Args:       unittestArgs(req),
		PythonPath: req.PythonPath,
		Env:        req.Env,
	})
}

func unittestArgs(req application.TestRunRequest) []string {
	var args []string
	switch {
	case req.Verbosity >= 2:
		args = append(args, "-v")
	case req.Verbosity <= 0:
		args = append(args, "-q")
	}
	if req.Failfast {
		args = append(args, "-f")
	}
	args = append(args, req.Args...)
	return append(args, req.Targets...)
}
