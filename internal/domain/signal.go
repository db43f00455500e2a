package domain

import "errors"

// SignalKind names the helper that short-circuited the caller.
type SignalKind string

const (
	SignalMainRedirectDone SignalKind = "main redirect done"
	SignalTestRunDone      SignalKind = "test run done"
)

// ControlSignal travels on the error path but is not a failure. It tells the
// process entry routine that delegation succeeded and the remaining startup
// logic must be skipped. Generic error handling must check IsControlSignal
// before treating a returned error as a failure.
type ControlSignal struct {
	Kind   SignalKind
	Detail string
}

func (s *ControlSignal) Error() string {
	if s.Detail == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ": " + s.Detail
}

// IsControlSignal reports whether err is, or wraps, a ControlSignal.
func IsControlSignal(err error) bool {
	_, ok := SignalOf(err)
	return ok
}

// SignalOf extracts the ControlSignal carried by err.
func SignalOf(err error) (*ControlSignal, bool) {
	var sig *ControlSignal
	if errors.As(err, &sig) {
		return sig, true
	}
	return nil, false
}
