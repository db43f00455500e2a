package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitChildFailure = 1
	ExitUsage        = 2
	ExitResolution   = 3
	ExitActivation   = 4
)

// ExitError signals a specific exit code without forcing os.Exit in RunE
// handlers.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func usageError(err error) error {
	return &ExitError{Code: ExitUsage, Err: err}
}

// exitCode maps an error returned by a command to the process exit code.
// Control signals are successful completions.
func exitCode(err error) int {
	if err == nil || domain.IsControlSignal(err) {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var status *application.ExitStatusError
	if errors.As(err, &status) {
		if status.Code > 0 {
			return status.Code
		}
		return ExitChildFailure
	}

	switch {
	case errors.Is(err, domain.ErrResolution):
		return ExitResolution
	case errors.Is(err, domain.ErrActivation):
		return ExitActivation
	case errors.Is(err, application.ErrConfig), errors.Is(err, domain.ErrInvalidSpec):
		return ExitUsage
	case isCobraUsage(err):
		return ExitUsage
	default:
		return ExitChildFailure
	}
}

// cobraUsagePrefixes start the messages of usage errors cobra builds itself
// and returns before any flag error hook runs.
var cobraUsagePrefixes = []string{
	"unknown command",
	"required flag",
	"if any flags in the group",
}

func isCobraUsage(err error) bool {
	msg := err.Error()
	for _, prefix := range cobraUsagePrefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
