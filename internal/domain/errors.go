package domain

import (
	"errors"
	"fmt"
)

// Resolution and activation errors.
var (
	ErrResolution  = errors.New("package resolution failed")
	ErrActivation  = errors.New("activation failed")
	ErrInvalidSpec = errors.New("invalid package spec")
)

// ResolutionStep identifies which check failed while walking up from a script.
type ResolutionStep string

const (
	// StepDepthExceeded means the walk reached the filesystem root before
	// collecting the requested number of package levels.
	StepDepthExceeded ResolutionStep = "depth-exceeded"
	// StepMissingMarker means a directory in the package chain has no
	// initializer file.
	StepMissingMarker ResolutionStep = "missing-marker"
	// StepNameMismatch means a dotted-name component does not equal the
	// directory name at that depth.
	StepNameMismatch ResolutionStep = "name-mismatch"
)

// ResolutionError reports a package spec that cannot be satisfied against the
// directory layout around a script.
type ResolutionError struct {
	Step   ResolutionStep
	Script string
	Dir    string
	Want   string
	Got    string
}

func (e *ResolutionError) Error() string {
	switch e.Step {
	case StepDepthExceeded:
		return fmt.Sprintf("resolve %s: %s package levels requested but the walk reached %s", e.Script, e.Want, e.Dir)
	case StepMissingMarker:
		return fmt.Sprintf("resolve %s: %s is not a package (missing %s)", e.Script, e.Dir, e.Want)
	case StepNameMismatch:
		return fmt.Sprintf("resolve %s: package name mismatch at %s: want %q, found %q", e.Script, e.Dir, e.Want, e.Got)
	default:
		return fmt.Sprintf("resolve %s: %s", e.Script, e.Step)
	}
}

// Is lets callers match any resolution failure with errors.Is(err, ErrResolution).
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

// ActivationError reports that no file-backed script context exists, for
// example when the source is read from stdin.
type ActivationError struct {
	Reason string
}

func (e *ActivationError) Error() string {
	return "activate: " + e.Reason
}

func (e *ActivationError) Is(target error) bool {
	return target == ErrActivation
}
