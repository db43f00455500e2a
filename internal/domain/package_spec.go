package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// SpecKind distinguishes the two PackageSpec forms.
type SpecKind int

const (
	// SpecDots is a run of leading dots: "." is the script's own package,
	// ".." its parent, and so on.
	SpecDots SpecKind = iota + 1
	// SpecName is a dotted package name such as "thing.sub".
	SpecName
)

// PackageSpec describes which package a directly-run script belongs to.
// It is a value object; the zero value is invalid.
type PackageSpec struct {
	kind       SpecKind
	depth      int
	components []string
}

// ParsePackageSpec parses either a dot run or a dotted package name.
func ParsePackageSpec(s string) (PackageSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PackageSpec{}, fmt.Errorf("%w: empty", ErrInvalidSpec)
	}
	if strings.Trim(s, ".") == "" {
		return PackageSpec{kind: SpecDots, depth: len(s)}, nil
	}
	components, err := splitDotted(s)
	if err != nil {
		return PackageSpec{}, err
	}
	return PackageSpec{kind: SpecName, depth: len(components), components: components}, nil
}

// MustPackageSpec parses s and panics when it is invalid.
// Use only for specs that are known at compile time.
func MustPackageSpec(s string) PackageSpec {
	spec, err := ParsePackageSpec(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Kind returns the spec form.
func (p PackageSpec) Kind() SpecKind {
	return p.kind
}

// Depth is the number of package levels the spec covers.
func (p PackageSpec) Depth() int {
	return p.depth
}

// Components returns the dotted-name components, root-most first.
// It is empty for dot specs.
func (p PackageSpec) Components() []string {
	return append([]string(nil), p.components...)
}

// IsZero reports whether p was never parsed.
func (p PackageSpec) IsZero() bool {
	return p.kind == 0
}

func (p PackageSpec) String() string {
	if p.kind == SpecDots {
		return strings.Repeat(".", p.depth)
	}
	return strings.Join(p.components, ".")
}

// ResolveModuleRef turns a module reference into an absolute dotted name.
// Leading dots are relative to the module named by from: one dot names a
// sibling, each further dot climbs one package. References without leading
// dots are returned as-is after validation.
func ResolveModuleRef(from, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty module reference", ErrInvalidSpec)
	}
	rest := strings.TrimLeft(ref, ".")
	dots := len(ref) - len(rest)
	if dots == 0 {
		if _, err := splitDotted(ref); err != nil {
			return "", err
		}
		return ref, nil
	}
	if from == "" {
		return "", fmt.Errorf("%w: relative reference %q without a current module", ErrInvalidSpec, ref)
	}
	parts := strings.Split(from, ".")
	if dots >= len(parts) {
		return "", fmt.Errorf("%w: %q climbs above the top-level package of %q", ErrInvalidSpec, ref, from)
	}
	parts = parts[:len(parts)-dots]
	if rest == "" {
		return strings.Join(parts, "."), nil
	}
	tail, err := splitDotted(rest)
	if err != nil {
		return "", err
	}
	return strings.Join(append(parts, tail...), "."), nil
}

func splitDotted(s string) ([]string, error) {
	components := strings.Split(s, ".")
	for _, c := range components {
		if !IsIdentifier(c) {
			return nil, fmt.Errorf("%w: %q is not a dotted name", ErrInvalidSpec, s)
		}
	}
	return components, nil
}

// IsIdentifier reports whether s is a valid Python identifier.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
