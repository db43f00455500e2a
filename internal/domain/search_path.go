package domain

import (
	"fmt"
	"strings"
)

// Position is the end of the search path an entry is inserted at.
type Position int

const (
	PositionFront Position = iota
	PositionBack
)

// ParsePosition accepts "front"/"top" and "back"/"bottom".
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "top", "":
		return PositionFront, nil
	case "back", "bottom":
		return PositionBack, nil
	default:
		return PositionFront, fmt.Errorf("invalid search path position %q (want front or back)", s)
	}
}

func (p Position) String() string {
	if p == PositionBack {
		return "back"
	}
	return "front"
}

// PathLease is the handle returned by a search path insertion. Release
// undoes the insertion only when this lease performed it.
type PathLease struct {
	path     string
	inserted bool
	release  func() bool
}

// NewPathLease builds a lease. release is called at most once.
func NewPathLease(path string, inserted bool, release func() bool) *PathLease {
	return &PathLease{path: path, inserted: inserted, release: release}
}

// Path returns the absolute directory.
func (l *PathLease) Path() string {
	return l.path
}

// Inserted reports whether this call added the entry, as opposed to finding
// it already present.
func (l *PathLease) Inserted() bool {
	return l.inserted
}

// Release removes the entry if this lease inserted it and it is still
// present. It reports whether anything was removed and is safe to call more
// than once.
func (l *PathLease) Release() bool {
	if l == nil || !l.inserted || l.release == nil {
		return false
	}
	fn := l.release
	l.release = nil
	return fn()
}
