package application

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/rela/internal/domain"
	"github.com/felixgeelhaar/rela/internal/pathutil"
)

// loadOrDetectConfig loads config from path or auto-detects if not found.
func loadOrDetectConfig(loader ConfigLoader, detector Autodetector, configPath string) (Config, error) {
	var (
		cfg    Config
		exists bool
		err    error
	)
	if loader != nil {
		exists, err = loader.Exists(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}

	switch {
	case exists:
		cfg, err = loader.Load(configPath)
	case detector != nil:
		cfg, err = detector.Detect()
	default:
		cfg = DefaultConfig()
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return withDefaults(cfg), nil
}

// withDefaults fills zero fields from DefaultConfig.
func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Python == "" {
		cfg.Python = def.Python
	}
	if cfg.Marker == "" {
		cfg.Marker = def.Marker
	}
	if cfg.Test.Prefix == "" {
		cfg.Test.Prefix = def.Test.Prefix
	}
	if cfg.Test.Verbosity == 0 {
		cfg.Test.Verbosity = def.Test.Verbosity
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = def.Watch.Debounce
	}
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = def.Watch.Extensions
	}
	return cfg
}

// scriptPath validates and absolutizes a script argument. A missing path or
// "-" means the source has no file behind it.
func scriptPath(script string) (string, error) {
	if script == "" || script == "-" {
		return "", &domain.ActivationError{Reason: "no script file (stdin or interactive session)"}
	}
	abs, err := pathutil.Abs(script)
	if err != nil {
		return "", fmt.Errorf("absolute path for %s: %w", script, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", &domain.ActivationError{Reason: err.Error()}
	}
	if info.IsDir() {
		return "", &domain.ActivationError{Reason: abs + " is a directory"}
	}
	return abs, nil
}

// contextEnv is the environment a child launched under module needs.
func contextEnv(module, pkg, root string) map[string]string {
	return map[string]string{
		EnvModule:  module,
		EnvPackage: pkg,
		EnvRoot:    root,
	}
}

// parentPackage returns the package part of a dotted module name.
func parentPackage(module string) string {
	for i := len(module) - 1; i >= 0; i-- {
		if module[i] == '.' {
			return module[:i]
		}
	}
	return ""
}
