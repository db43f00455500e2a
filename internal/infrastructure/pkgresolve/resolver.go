// Package pkgresolve finds the top-level package of a Python script by
// walking up its directory chain.
package pkgresolve

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
	"github.com/felixgeelhaar/rela/internal/pathutil"
)

// Resolver resolves package specs against the filesystem.
type Resolver struct{}

// Resolve walks upward from the directory containing script, collecting one
// directory per package level of spec. Every collected directory must
// contain the package marker unless namespace packages are enabled. For a
// dotted-name spec each directory name must equal the matching component,
// compared right to left and case-sensitively.
func (Resolver) Resolve(ctx context.Context, script string, spec domain.PackageSpec, opts application.ResolveConfig) (domain.Resolution, error) {
	if spec.IsZero() {
		return domain.Resolution{}, domain.ErrInvalidSpec
	}
	abs, err := pathutil.Abs(script)
	if err != nil {
		return domain.Resolution{}, err
	}
	marker := opts.Marker
	if marker == "" {
		marker = application.DefaultMarker
	}

	res := domain.Resolution{ScriptPath: abs}
	if stem := res.Stem(); !domain.IsIdentifier(stem) {
		return domain.Resolution{}, &domain.ResolutionError{
			Step: domain.StepNameMismatch, Script: abs, Dir: filepath.Dir(abs),
			Want: "a module identifier", Got: stem,
		}
	}

	want := spec.Components()
	depth := spec.Depth()
	dir := filepath.Dir(abs)
	if top, levels := ancestors(dir); depth > levels {
		return domain.Resolution{}, &domain.ResolutionError{
			Step: domain.StepDepthExceeded, Script: abs, Dir: top,
			Want: strconv.Itoa(depth),
		}
	}
	names := make([]string, 0, depth)

	for level := 0; level < depth; level++ {
		if err := ctx.Err(); err != nil {
			return domain.Resolution{}, err
		}
		parent := filepath.Dir(dir)

		name := filepath.Base(dir)
		if spec.Kind() == domain.SpecName {
			expected := want[len(want)-1-level]
			if name != expected {
				return domain.Resolution{}, &domain.ResolutionError{
					Step: domain.StepNameMismatch, Script: abs, Dir: dir,
					Want: expected, Got: name,
				}
			}
		} else if !domain.IsIdentifier(name) {
			return domain.Resolution{}, &domain.ResolutionError{
				Step: domain.StepNameMismatch, Script: abs, Dir: dir,
				Want: "a package identifier", Got: name,
			}
		}

		initFile := filepath.Join(dir, marker)
		if isFile(initFile) {
			if level == depth-1 {
				res.InitFile = initFile
			}
		} else if opts.NamespacePackages {
			res.Namespace = true
		} else {
			return domain.Resolution{}, &domain.ResolutionError{
				Step: domain.StepMissingMarker, Script: abs, Dir: dir, Want: marker,
			}
		}

		names = append(names, name)
		res.TopDir = dir
		dir = parent
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	res.Package = strings.Join(names, ".")
	res.RootDir = dir
	return res, nil
}

// ancestors counts the directories from dir up to, but excluding, the
// filesystem root and returns that root.
func ancestors(dir string) (string, int) {
	n := 0
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, n
		}
		n++
		dir = parent
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
