package application

import (
	"context"
)

// Activate resolves a script's package identity and, when the script is the
// entry point, relaunches it in module mode under its qualified name.
//
// When the environment shows the module is already running under that name
// the call is a no-op that still returns the top-level package.
func (s *Service) Activate(ctx context.Context, opts ActivateOptions) (ActivateResult, error) {
	cfg, err := s.LoadConfig(opts.ConfigPath)
	if err != nil {
		return ActivateResult{}, err
	}
	ic, err := s.bootstrap(ctx, cfg, opts.Script, opts.Spec, opts.Mode)
	if err != nil {
		return ActivateResult{}, err
	}

	result := ActivateResult{Context: ic, TopLevel: ic.TopLevel()}
	if !ic.IsMain() {
		s.logger().Debug("already running under qualified name", "module", ic.Module())
		return result, nil
	}

	if err := s.installSearchPath(cfg, ic); err != nil {
		return result, err
	}
	s.warnAlreadyImported(ctx, ic)

	code, err := s.Launcher.Launch(ctx, LaunchRequest{
		Python:     cfg.Python,
		Module:     ic.LaunchTarget(),
		Args:       opts.Args,
		PythonPath: s.SearchPath.Env(),
		Env:        contextEnv(ic.Module(), ic.Package(), ic.RootDir()),
		Exec:       opts.Exec,
	})
	result.Launched = true
	result.ExitCode = code
	if err != nil {
		return result, err
	}
	if code != 0 {
		return result, &ExitStatusError{Target: ic.LaunchTarget(), Code: code}
	}
	return result, nil
}
