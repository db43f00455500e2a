package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// EntryMode tells whether a script is the process entry point or is being
// loaded from inside an already-launched module context.
type EntryMode int

const (
	// ModeAuto asks the caller's EntryDetector to decide.
	ModeAuto EntryMode = iota
	// ModeMain means the script was started directly.
	ModeMain
	// ModeImported means the script already runs under its qualified name.
	ModeImported
)

func (m EntryMode) String() string {
	switch m {
	case ModeMain:
		return "main"
	case ModeImported:
		return "imported"
	default:
		return "auto"
	}
}

// ParseEntryMode accepts "auto", "main" and "imported".
func ParseEntryMode(s string) (EntryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return ModeAuto, nil
	case "main":
		return ModeMain, nil
	case "imported":
		return ModeImported, nil
	default:
		return ModeAuto, fmt.Errorf("invalid entry mode %q (want auto, main or imported)", s)
	}
}

const initStem = "__init__"

// Resolution is what PackageResolver computes for a script.
type Resolution struct {
	// ScriptPath is the absolute script path.
	ScriptPath string
	// RootDir is the directory that must be on the search path: the parent
	// of the top-level package.
	RootDir string
	// TopDir is the top-level package directory. Empty for a script that is
	// not part of any package.
	TopDir string
	// Package is the dotted package name, root-most component first.
	Package string
	// Namespace is set when at least one package directory has no
	// initializer file.
	Namespace bool
	// InitFile is the top-level package initializer, if any.
	InitFile string
}

// Stem returns the script's file name without extension.
func (r Resolution) Stem() string {
	base := filepath.Base(r.ScriptPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Module returns the qualified module name of the script.
func (r Resolution) Module() string {
	stem := r.Stem()
	if r.Package == "" {
		return stem
	}
	if stem == initStem {
		return r.Package
	}
	return r.Package + "." + stem
}

// TopLevel returns the top-level package the script belongs to.
func (r Resolution) TopLevel() PackageInfo {
	if r.TopDir == "" {
		return PackageInfo{}
	}
	name := r.Package
	if idx := strings.IndexByte(name, '.'); idx >= 0 {
		name = name[:idx]
	}
	return PackageInfo{
		Name:      name,
		Dir:       r.TopDir,
		InitFile:  r.InitFile,
		Namespace: r.InitFile == "",
	}
}

// PackageInfo describes a top-level package.
type PackageInfo struct {
	Name      string `json:"name"`
	Dir       string `json:"dir"`
	InitFile  string `json:"init_file,omitempty"`
	Namespace bool   `json:"namespace"`
}

// InvocationContext is the identity a module launcher would have given a
// script. It is created once by activation and never modified.
type InvocationContext struct {
	res  Resolution
	mode EntryMode
}

// NewInvocationContext freezes a resolution together with its entry mode.
func NewInvocationContext(res Resolution, mode EntryMode) InvocationContext {
	return InvocationContext{res: res, mode: mode}
}

func (c InvocationContext) ScriptPath() string { return c.res.ScriptPath }
func (c InvocationContext) RootDir() string    { return c.res.RootDir }
func (c InvocationContext) TopDir() string     { return c.res.TopDir }
func (c InvocationContext) Package() string    { return c.res.Package }
func (c InvocationContext) Module() string     { return c.res.Module() }
func (c InvocationContext) Mode() EntryMode    { return c.mode }

// IsMain reports whether the script is the process entry point.
func (c InvocationContext) IsMain() bool {
	return c.mode == ModeMain
}

// TopLevel returns the top-level package info.
func (c InvocationContext) TopLevel() PackageInfo {
	return c.res.TopLevel()
}

// Resolution returns a copy of the underlying resolution.
func (c InvocationContext) Resolution() Resolution {
	return c.res
}

// LaunchTarget is the name to hand to a module launcher. A package
// initializer is launched under its own file name because the package
// itself would run __main__ instead.
func (c InvocationContext) LaunchTarget() string {
	if c.res.Package != "" && c.res.Stem() == initStem {
		return c.res.Package + "." + initStem
	}
	return c.res.Module()
}

// IsInitializer reports whether the script is a package initializer.
func (c InvocationContext) IsInitializer() bool {
	return c.res.Stem() == initStem
}
