package python

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/felixgeelhaar/rela/internal/application"
)

// DefaultInterpreter is used when a request names no interpreter.
const DefaultInterpreter = "python3"

var errExecUnsupported = errors.New("process replacement not supported on this platform")

// Command is a fully built child process invocation.
type Command struct {
	Name string
	Args []string
	Env  []string
}

// Launcher implements application.Launcher.
type Launcher struct {
	// Exec overrides command execution (for testing). It returns the exit code.
	Exec func(ctx context.Context, cmd Command) (int, error)
	// Replace overrides process replacement (for testing).
	Replace func(cmd Command) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewLauncher creates a launcher wired to the process's standard streams.
func NewLauncher() *Launcher {
	return &Launcher{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Launch runs the request and returns the child's exit code. A non-zero
// exit is not an error; errors mean the child could not be started.
func (l *Launcher) Launch(ctx context.Context, req application.LaunchRequest) (int, error) {
	cmd, err := BuildCommand(req, os.Environ())
	if err != nil {
		return 0, err
	}

	if req.Exec {
		replace := l.Replace
		if replace == nil {
			replace = replaceProcess
		}
		err := replace(cmd)
		switch {
		case err == nil:
			return 0, nil
		case !errors.Is(err, errExecUnsupported):
			return 0, fmt.Errorf("exec %s: %w", cmd.Name, err)
		}
	}

	execFn := l.Exec
	if execFn == nil {
		execFn = l.run
	}
	return execFn(ctx, cmd)
}

// BuildCommand turns a request into a command line and environment. base is
// the environment to extend, usually os.Environ().
func BuildCommand(req application.LaunchRequest, base []string) (Command, error) {
	var cmd Command
	switch {
	case req.Module != "" && len(req.Command) > 0:
		return Command{}, errors.New("launch request names both a module and a command")
	case req.Module != "":
		cmd.Name = req.Python
		if cmd.Name == "" {
			cmd.Name = DefaultInterpreter
		}
		cmd.Args = append([]string{"-m", req.Module}, req.Args...)
	case len(req.Command) > 0:
		cmd.Name = req.Command[0]
		cmd.Args = append(append([]string(nil), req.Command[1:]...), req.Args...)
	default:
		return Command{}, errors.New("launch request names neither a module nor a command")
	}

	overrides := make(map[string]string, len(req.Env)+1)
	for k, v := range req.Env {
		overrides[k] = v
	}
	if req.PythonPath != "" {
		overrides["PYTHONPATH"] = req.PythonPath
	}
	cmd.Env = mergeEnv(base, overrides)
	return cmd, nil
}

// mergeEnv replaces or appends the overrides in base. Appended variables are
// sorted so the result is deterministic.
func mergeEnv(base []string, overrides map[string]string) []string {
	out := make([]string, 0, len(base)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := overrides[key]; ok {
			if !seen[key] {
				out = append(out, key+"="+v)
				seen[key] = true
			}
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

func (l *Launcher) run(ctx context.Context, c Command) (int, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = c.Env
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 0, fmt.Errorf("run %s: %w", c.Name, err)
}
