package application

import (
	"context"

	"github.com/felixgeelhaar/rela/internal/domain"
)

// Redirect runs Target as the main module in place of the calling script.
// It returns nil when the caller is not the entry point. Otherwise, after
// the target finished successfully, it returns a domain.ControlSignal that
// the caller must treat as the end of its own startup.
func (s *Service) Redirect(ctx context.Context, opts RedirectOptions) error {
	cfg, err := s.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	ic, err := s.bootstrap(ctx, cfg, opts.Script, opts.Spec, opts.Mode)
	if err != nil {
		return err
	}
	if !ic.IsMain() {
		return nil
	}

	// LaunchTarget keeps "__init__" so a sibling reference from an
	// initializer resolves inside its own package.
	target, err := domain.ResolveModuleRef(ic.LaunchTarget(), opts.Target)
	if err != nil {
		return err
	}

	if err := s.installSearchPath(cfg, ic); err != nil {
		return err
	}
	s.logger().Warn("executing instead", "target", target, "from", ic.Module())

	code, err := s.Launcher.Launch(ctx, LaunchRequest{
		Python:     cfg.Python,
		Module:     target,
		Args:       opts.Args,
		PythonPath: s.SearchPath.Env(),
		Env:        contextEnv(target, parentPackage(target), ic.RootDir()),
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitStatusError{Target: target, Code: code}
	}
	return &domain.ControlSignal{Kind: domain.SignalMainRedirectDone, Detail: target}
}
