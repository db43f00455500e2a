package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/rela/internal/pathutil"
)

// EnsurePath puts a directory on the search path exactly once. With a
// command the insertion is scoped: the command runs with the entry present
// and the entry is removed afterwards if this call added it.
func (s *Service) EnsurePath(ctx context.Context, opts PathOptions) (PathResult, error) {
	dir, err := s.pathArgument(opts.Dir, opts.From)
	if err != nil {
		return PathResult{}, err
	}

	lease, err := s.SearchPath.Ensure(dir, opts.Position)
	if err != nil {
		return PathResult{}, err
	}
	result := PathResult{Path: lease.Path(), Inserted: lease.Inserted()}
	s.logger().Debug("search path", "path", lease.Path(), "inserted", lease.Inserted(), "position", opts.Position)

	result.Entries = s.SearchPath.Entries()
	if len(opts.Command) > 0 {
		code, err := s.Launcher.Launch(ctx, LaunchRequest{
			Command:    opts.Command,
			PythonPath: s.SearchPath.Env(),
		})
		result.Released = lease.Release()
		result.ExitCode = code
		if err != nil {
			return result, err
		}
		if code != 0 {
			return result, &ExitStatusError{Target: opts.Command[0], Code: code}
		}
	}

	if opts.Output != "" && s.Reporter != nil && s.Out != nil {
		if err := s.Reporter.WritePath(s.Out, result, opts.Output); err != nil {
			return result, err
		}
	}
	return result, nil
}

// pathArgument resolves dir relative to the directory of from, or to the
// working directory when no script is given.
func (s *Service) pathArgument(dir, from string) (string, error) {
	dir, err := pathutil.Clean(dir)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(dir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %s: %w", dir, err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}

	if filepath.IsAbs(dir) {
		if from != "" {
			s.logger().Warn("absolute path given; it is not resolved against the script", "path", dir, "script", from)
		}
		return filepath.Clean(dir), nil
	}

	base := ""
	if from != "" {
		abs, err := scriptPath(from)
		if err != nil {
			return "", err
		}
		base = filepath.Dir(abs)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	return filepath.Join(base, dir), nil
}
