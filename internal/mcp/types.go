// Package mcp exposes package resolution and test selection over the Model
// Context Protocol so editors and agents can ask how rela would launch a
// script without launching it.
package mcp

import (
	"context"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

// Service defines the application operations needed by MCP. None of them
// may start a process or change the search path.
type Service interface {
	Resolve(ctx context.Context, opts application.ResolveOptions) (application.ResolveResult, error)
	Test(ctx context.Context, opts application.TestOptions) (application.TestResult, error)
	LoadConfig(configPath string) (application.Config, error)
}

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string // Path to .rela.yaml (default: ".rela.yaml")
}

func DefaultConfig() Config {
	return Config{ConfigPath: ".rela.yaml"}
}

// ResolveInput defines the input parameters for the resolve tool.
type ResolveInput struct {
	Script     string   `json:"script" jsonschema:"Path to the Python script to resolve"`
	Spec       string   `json:"spec,omitempty" jsonschema:"Package spec: dots for depth or a dotted package name (default .)"`
	Args       []string `json:"args,omitempty" jsonschema:"Arguments the script would be launched with"`
	ConfigPath string   `json:"configPath,omitempty" jsonschema:"Path to .rela.yaml config file"`
}

// ResolveOutput describes how the script would be launched.
type ResolveOutput struct {
	Module     string             `json:"module,omitempty"`
	Package    string             `json:"package,omitempty"`
	Root       string             `json:"root,omitempty"`
	Target     string             `json:"target,omitempty"`
	TopLevel   domain.PackageInfo `json:"topLevel"`
	SearchPath []string           `json:"searchPath,omitempty"`
	Command    []string           `json:"command,omitempty"`
	Env        map[string]string  `json:"env,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// SelectTestsInput defines the input parameters for the select_tests tool.
type SelectTestsInput struct {
	File       string   `json:"file" jsonschema:"Path to the Python test file"`
	Class      string   `json:"class,omitempty" jsonschema:"Only consider this test class"`
	Keep       []string `json:"keep,omitempty" jsonschema:"Test methods to keep, optionally qualified as Class.method"`
	Spec       string   `json:"spec,omitempty" jsonschema:"Package spec used to name the test module"`
	ConfigPath string   `json:"configPath,omitempty" jsonschema:"Path to .rela.yaml config file"`
}

// SelectTestsOutput lists what a test run would load.
type SelectTestsOutput struct {
	Module     string             `json:"module,omitempty"`
	Selections []domain.Selection `json:"selections,omitempty"`
	Targets    []string           `json:"targets,omitempty"`
	Summary    string             `json:"summary,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// coalesce returns value if non-empty, otherwise fallback.
func coalesce(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
