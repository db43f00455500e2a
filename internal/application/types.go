package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/rela/internal/domain"
)

type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Environment variables a launched child receives. A rela invocation that
// finds RELA_MODULE equal to its own computed module treats the script as
// already running under its qualified name.
const (
	EnvModule  = "RELA_MODULE"
	EnvPackage = "RELA_PACKAGE"
	EnvRoot    = "RELA_ROOT"
)

const DefaultMarker = "__init__.py"

var (
	ErrConfigNotFound = errors.New("config not found")
	// ErrConfig wraps every failure to load or detect configuration.
	ErrConfig = errors.New("invalid configuration")
)

// Config represents validated, application-ready configuration.
type Config struct {
	Python            string   // Interpreter used for launches
	Marker            string   // Package initializer file name
	NamespacePackages bool     // Accept package directories without a marker
	SearchPath        []string // Extra entries appended after the package root
	Test              TestConfig
	Watch             WatchConfig
}

type TestConfig struct {
	Prefix    string
	Verbosity int
	Failfast  bool
	Args      []string
}

type WatchConfig struct {
	Debounce   time.Duration
	Extensions []string
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Python: "python3",
		Marker: DefaultMarker,
		Test: TestConfig{
			Prefix:    domain.DefaultTestPrefix,
			Verbosity: 2,
		},
		Watch: WatchConfig{
			Debounce:   500 * time.Millisecond,
			Extensions: []string{".py"},
		},
	}
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

type Autodetector interface {
	Detect() (Config, error)
}

// PackageResolver computes the package identity of a script.
type PackageResolver interface {
	Resolve(ctx context.Context, script string, spec domain.PackageSpec, opts ResolveConfig) (domain.Resolution, error)
}

// ResolveConfig carries the configuration a resolver needs.
type ResolveConfig struct {
	Marker            string
	NamespacePackages bool
}

// SearchPath is the module search path handed to launched interpreters.
// Implementations are not safe for concurrent mutation.
type SearchPath interface {
	Ensure(dir string, pos domain.Position) (*domain.PathLease, error)
	Contains(dir string) bool
	Entries() []string
	Env() string
}

// EntryDetector decides whether the script with the given module name is
// the process entry point.
type EntryDetector interface {
	Detect(module string) domain.EntryMode
}

// Launcher starts a child process. Module and Command are exclusive: Module
// runs the interpreter in module mode, Command runs an arbitrary program.
type Launcher interface {
	Launch(ctx context.Context, req LaunchRequest) (int, error)
}

type LaunchRequest struct {
	Python     string
	Module     string
	Command    []string
	Args       []string
	PythonPath string
	Env        map[string]string
	// Exec replaces the current process where the platform supports it.
	Exec bool
}

// TestRunner runs unittest targets.
type TestRunner interface {
	RunTests(ctx context.Context, req TestRunRequest) (int, error)
}

type TestRunRequest struct {
	Python     string
	Targets    []string
	Verbosity  int
	Failfast   bool
	Args       []string
	PythonPath string
	Env        map[string]string
}

// SourceScanner inspects Python sources.
type SourceScanner interface {
	// ScanTests returns the test classes declared in file.
	ScanTests(ctx context.Context, file string) ([]domain.TestClass, error)
	// ImportsModule reports whether file imports module, either by its
	// qualified name or relatively.
	ImportsModule(ctx context.Context, file, module string) (bool, error)
}

type Reporter interface {
	WriteResolution(w io.Writer, result ResolveResult, format OutputFormat) error
	WritePath(w io.Writer, result PathResult, format OutputFormat) error
	WriteSelection(w io.Writer, result TestResult, format OutputFormat) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchDir(root string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// WatchCallback is invoked after each watched run.
type WatchCallback func(run int, err error)

type ResolveOptions struct {
	ConfigPath string
	Script     string
	Spec       string
	Args       []string
	Mode       domain.EntryMode
	Output     OutputFormat
	Command    bool // Include the launch command in the report
}

type ResolveResult struct {
	Context    domain.InvocationContext `json:"-"`
	TopLevel   domain.PackageInfo       `json:"top_level"`
	SearchPath []string                 `json:"search_path"`
	Command    []string                 `json:"command,omitempty"`
	Env        map[string]string        `json:"env,omitempty"`
}

type ActivateOptions struct {
	ConfigPath string
	Script     string
	Spec       string
	Args       []string
	Mode       domain.EntryMode
	Exec       bool
}

type ActivateResult struct {
	Context  domain.InvocationContext
	TopLevel domain.PackageInfo
	Launched bool
	ExitCode int
}

type PathOptions struct {
	Dir      string
	Position domain.Position
	// From is the script relative directories are resolved against.
	From string
	// Command runs with the entry in place; the entry is released after.
	Command []string
	Output  OutputFormat
}

type PathResult struct {
	Path     string   `json:"path"`
	Inserted bool     `json:"inserted"`
	Released bool     `json:"released"`
	Entries  []string `json:"entries"`
	ExitCode int      `json:"exit_code"`
}

type RedirectOptions struct {
	ConfigPath string
	Script     string
	Spec       string
	Target     string
	Args       []string
	Mode       domain.EntryMode
}

type TestOptions struct {
	ConfigPath string
	File       string
	Class      string
	Keep       []string // Method names, optionally qualified as Class.method
	Spec       string
	Mode       domain.EntryMode
	List       bool
	Verbosity  int // Zero uses the configured verbosity
	Failfast   bool
	Args       []string
	Output     OutputFormat
}

type TestResult struct {
	Module     string             `json:"module"`
	Selections []domain.Selection `json:"selections"`
	Targets    []string           `json:"targets"`
	Ran        bool               `json:"ran"`
	ExitCode   int                `json:"exit_code"`
}

// ExitStatusError reports a child process that exited unsuccessfully.
type ExitStatusError struct {
	Target string
	Code   int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Target, e.Code)
}
