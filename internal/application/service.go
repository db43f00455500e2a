package application

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/felixgeelhaar/rela/internal/domain"
)

type Service struct {
	ConfigLoader ConfigLoader
	Autodetector Autodetector
	Resolver     PackageResolver
	SearchPath   SearchPath
	Detector     EntryDetector
	Launcher     Launcher
	TestRunner   TestRunner
	Scanner      SourceScanner
	Reporter     Reporter
	Logger       *log.Logger
	Out          io.Writer
}

// LoadConfig returns the effective configuration for configPath.
func (s *Service) LoadConfig(configPath string) (Config, error) {
	return loadOrDetectConfig(s.ConfigLoader, s.Autodetector, configPath)
}

// Resolve runs the bootstrap phase only: it computes the invocation context
// and the launch that Activate would perform, without touching the search
// path or starting anything.
func (s *Service) Resolve(ctx context.Context, opts ResolveOptions) (ResolveResult, error) {
	cfg, err := s.LoadConfig(opts.ConfigPath)
	if err != nil {
		return ResolveResult{}, err
	}
	ic, err := s.bootstrap(ctx, cfg, opts.Script, opts.Spec, opts.Mode)
	if err != nil {
		return ResolveResult{}, err
	}

	result := ResolveResult{
		Context:    ic,
		TopLevel:   ic.TopLevel(),
		SearchPath: s.previewSearchPath(cfg, ic),
		Env:        contextEnv(ic.Module(), ic.Package(), ic.RootDir()),
	}
	if opts.Command {
		result.Command = append([]string{cfg.Python, "-m", ic.LaunchTarget()}, opts.Args...)
	}

	if opts.Output != "" && s.Reporter != nil && s.Out != nil {
		if err := s.Reporter.WriteResolution(s.Out, result, opts.Output); err != nil {
			return result, err
		}
	}
	return result, nil
}

// bootstrap resolves script against spec and freezes the result with its
// entry mode. It has no side effects.
func (s *Service) bootstrap(ctx context.Context, cfg Config, script, spec string, mode domain.EntryMode) (domain.InvocationContext, error) {
	abs, err := scriptPath(script)
	if err != nil {
		return domain.InvocationContext{}, err
	}
	if spec == "" {
		spec = "."
	}
	ps, err := domain.ParsePackageSpec(spec)
	if err != nil {
		return domain.InvocationContext{}, err
	}

	res, err := s.Resolver.Resolve(ctx, abs, ps, ResolveConfig{
		Marker:            cfg.Marker,
		NamespacePackages: cfg.NamespacePackages,
	})
	if err != nil {
		return domain.InvocationContext{}, err
	}

	mode = s.entryMode(mode, res.Module())
	s.logger().Debug("resolved", "script", abs, "module", res.Module(), "root", res.RootDir, "mode", mode)
	return domain.NewInvocationContext(res, mode), nil
}

func (s *Service) entryMode(requested domain.EntryMode, module string) domain.EntryMode {
	if requested != domain.ModeAuto {
		return requested
	}
	if s.Detector == nil {
		return domain.ModeMain
	}
	return s.Detector.Detect(module)
}

// installSearchPath makes the package root importable without shadowing
// entries already on the path, followed by any configured extras.
func (s *Service) installSearchPath(cfg Config, ic domain.InvocationContext) error {
	if _, err := s.SearchPath.Ensure(ic.RootDir(), domain.PositionBack); err != nil {
		return err
	}
	for _, extra := range cfg.SearchPath {
		if !filepath.IsAbs(extra) {
			extra = filepath.Join(ic.RootDir(), extra)
		}
		if _, err := s.SearchPath.Ensure(extra, domain.PositionBack); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) previewSearchPath(cfg Config, ic domain.InvocationContext) []string {
	entries := s.SearchPath.Entries()
	added := make(map[string]bool)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if s.SearchPath.Contains(dir) || added[dir] {
			return
		}
		added[dir] = true
		entries = append(entries, dir)
	}
	add(ic.RootDir())
	for _, extra := range cfg.SearchPath {
		if !filepath.IsAbs(extra) {
			extra = filepath.Join(ic.RootDir(), extra)
		}
		add(extra)
	}
	return entries
}

// warnAlreadyImported flags scripts that the package initializer loads on
// its own, since launching them runs their top-level code a second time.
func (s *Service) warnAlreadyImported(ctx context.Context, ic domain.InvocationContext) {
	if ic.IsInitializer() {
		s.logger().Warn("package initializer launched directly; its code runs as part of the package import first", "module", ic.Package())
		return
	}
	top := ic.TopLevel()
	if s.Scanner == nil || top.InitFile == "" {
		return
	}
	imported, err := s.Scanner.ImportsModule(ctx, top.InitFile, ic.Module())
	if err != nil {
		s.logger().Debug("scan initializer", "file", top.InitFile, "err", err)
		return
	}
	if imported {
		s.logger().Warn("module already imported by its package initializer; top-level code will run twice", "module", ic.Module(), "init", top.InitFile)
	}
}

var discardLogger = log.New(io.Discard)

func (s *Service) logger() *log.Logger {
	if s.Logger == nil {
		return discardLogger
	}
	return s.Logger
}
