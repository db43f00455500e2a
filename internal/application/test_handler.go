package application

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/felixgeelhaar/rela/internal/domain"
)

// SelectTests scans a test file and applies keep markers from the source and
// from opts.Keep. It does not run anything.
func (s *Service) SelectTests(ctx context.Context, opts TestOptions) ([]domain.Selection, error) {
	cfg, err := s.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	file, err := scriptPath(opts.File)
	if err != nil {
		return nil, err
	}
	return s.selectTests(ctx, cfg, file, opts)
}

func (s *Service) selectTests(ctx context.Context, cfg Config, file string, opts TestOptions) ([]domain.Selection, error) {
	classes, err := s.Scanner.ScanTests(ctx, file)
	if err != nil {
		return nil, err
	}
	if opts.Class != "" {
		var found []domain.TestClass
		for _, c := range classes {
			if c.Name == opts.Class {
				found = append(found, c)
			}
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("test class %s not found in %s", opts.Class, file)
		}
		classes = found
	} else {
		classes = slices.DeleteFunc(classes, func(c domain.TestClass) bool {
			return !slices.ContainsFunc(c.Methods, func(m domain.TestMethod) bool {
				return strings.HasPrefix(m.Name, cfg.Test.Prefix)
			})
		})
	}

	selections := make([]domain.Selection, 0, len(classes))
	for _, c := range classes {
		keep := domain.KeepSetFromClass(c)
		for _, k := range opts.Keep {
			class, method, qualified := strings.Cut(k, ".")
			switch {
			case !qualified:
				keep.Keep(k)
			case class == c.Name:
				keep.Keep(method)
			}
		}

		sel := domain.SelectCase(c, keep, cfg.Test.Prefix)
		if sel.Filtered {
			kept := make([]string, 0, len(sel.Kept))
			for _, m := range sel.Kept {
				kept = append(kept, fmt.Sprintf("%s (line %d)", m.Name, m.Line))
			}
			s.logger().Info(fmt.Sprintf("Removed %d tests from %s", len(sel.Removed), c.Name),
				"keeping", len(sel.Kept), "tests", strings.Join(kept, ", "))
		}
		if len(sel.Missing) > 0 && !unqualifiedOnly(opts.Keep, sel.Missing) {
			s.logger().Warn("keep marker matches no method", "class", c.Name, "names", sel.Missing)
		}
		selections = append(selections, sel)
	}
	return selections, nil
}

// unqualifiedOnly reports whether every missing name came from a bare
// --keep flag. A bare flag applies to all classes, so a miss on one of them
// is expected.
func unqualifiedOnly(flags, missing []string) bool {
	bare := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		if !strings.Contains(f, ".") {
			bare[f] = struct{}{}
		}
	}
	for _, m := range missing {
		if _, ok := bare[m]; !ok {
			return false
		}
	}
	return true
}

// Test selects the tests of a file and, when the file is the entry point,
// runs them through the test runner. After a run it returns a
// domain.ControlSignal together with the result; the exit code of the run
// is in TestResult.ExitCode.
func (s *Service) Test(ctx context.Context, opts TestOptions) (TestResult, error) {
	cfg, err := s.LoadConfig(opts.ConfigPath)
	if err != nil {
		return TestResult{}, err
	}
	file, err := scriptPath(opts.File)
	if err != nil {
		return TestResult{}, err
	}

	var (
		module, pkg, root string
		mode              domain.EntryMode
	)
	if opts.Spec != "" {
		ic, err := s.bootstrap(ctx, cfg, file, opts.Spec, opts.Mode)
		if err != nil {
			return TestResult{}, err
		}
		module, pkg, root, mode = ic.Module(), ic.Package(), ic.RootDir(), ic.Mode()
		if ic.IsMain() && !opts.List {
			if err := s.installSearchPath(cfg, ic); err != nil {
				return TestResult{}, err
			}
		}
	} else {
		base := filepath.Base(file)
		module = strings.TrimSuffix(base, filepath.Ext(base))
		root = filepath.Dir(file)
		mode = s.entryMode(opts.Mode, module)
		if mode == domain.ModeMain && !opts.List {
			if _, err := s.SearchPath.Ensure(root, domain.PositionFront); err != nil {
				return TestResult{}, err
			}
		}
	}

	selections, err := s.selectTests(ctx, cfg, file, opts)
	if err != nil {
		return TestResult{}, err
	}
	result := TestResult{Module: module, Selections: selections, Targets: testTargets(module, selections)}

	if opts.List {
		if opts.Output != "" && s.Reporter != nil && s.Out != nil {
			if err := s.Reporter.WriteSelection(s.Out, result, opts.Output); err != nil {
				return result, err
			}
		}
		return result, nil
	}
	if mode != domain.ModeMain {
		return result, nil
	}
	if len(result.Targets) == 0 {
		return result, fmt.Errorf("no test methods selected in %s", file)
	}

	verbosity := opts.Verbosity
	if verbosity == 0 {
		verbosity = cfg.Test.Verbosity
	}
	s.logger().Warn("running tests", "module", module, "targets", len(result.Targets))

	code, err := s.TestRunner.RunTests(ctx, TestRunRequest{
		Python:     cfg.Python,
		Targets:    result.Targets,
		Verbosity:  verbosity,
		Failfast:   opts.Failfast || cfg.Test.Failfast,
		Args:       append(append([]string(nil), cfg.Test.Args...), opts.Args...),
		PythonPath: s.SearchPath.Env(),
		Env:        contextEnv(module, pkg, root),
	})
	if err != nil {
		return result, err
	}
	result.Ran = true
	result.ExitCode = code
	return result, &domain.ControlSignal{Kind: domain.SignalTestRunDone, Detail: module}
}

// testTargets names what the runner should load: a whole class when it was
// not filtered, otherwise each surviving method.
func testTargets(module string, selections []domain.Selection) []string {
	var targets []string
	for _, sel := range selections {
		if len(sel.Kept) == 0 {
			continue
		}
		prefix := module + "." + sel.Class.Name
		if !sel.Filtered {
			targets = append(targets, prefix)
			continue
		}
		for _, m := range sel.Kept {
			targets = append(targets, prefix+"."+m.Name)
		}
	}
	return targets
}
