// Package searchpath holds the ordered module search path that launched
// interpreters receive as PYTHONPATH.
package searchpath

import (
	"os"
	"strings"

	"github.com/felixgeelhaar/rela/internal/domain"
	"github.com/felixgeelhaar/rela/internal/pathutil"
)

// EnvVar is the variable the set is rendered into.
const EnvVar = "PYTHONPATH"

type entry struct {
	// path is the absolute directory used for comparisons.
	path string
	// raw is what gets rendered; seeded entries keep the caller's text.
	raw string
	// owner is the insertion token; zero for seeded entries.
	owner uint64
}

// Set is an ordered list of directories. Ensure never adds a directory that
// is already present.
// It is not safe for concurrent use.
type Set struct {
	entries []entry
	next    uint64
}

// New returns a set seeded with dirs. Seeded entries are kept verbatim, in
// order and with duplicates: an empty element stands for the working
// directory and a relative one is rendered as given.
func New(dirs ...string) *Set {
	s := &Set{}
	for _, d := range dirs {
		abs, err := seedAbs(d)
		if err != nil {
			abs = d
		}
		s.entries = append(s.entries, entry{path: abs, raw: d})
	}
	return s
}

// NewFromEnv seeds a set from the current PYTHONPATH.
func NewFromEnv() *Set {
	value := os.Getenv(EnvVar)
	if value == "" {
		return New()
	}
	return New(strings.Split(value, string(os.PathListSeparator))...)
}

func seedAbs(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	return pathutil.Abs(dir)
}

// Ensure puts dir on the path once. If an equal absolute path is already
// present the set is left untouched, whatever pos says, and the returned
// lease reports Inserted() == false. Releasing a lease removes the entry
// only if that lease inserted it and the entry has not been replaced since.
func (s *Set) Ensure(dir string, pos domain.Position) (*domain.PathLease, error) {
	abs, err := pathutil.Abs(dir)
	if err != nil {
		return nil, err
	}
	if s.index(abs) >= 0 {
		return domain.NewPathLease(abs, false, nil), nil
	}

	s.next++
	e := entry{path: abs, raw: abs, owner: s.next}
	if pos == domain.PositionBack {
		s.entries = append(s.entries, e)
	} else {
		s.entries = append([]entry{e}, s.entries...)
	}

	token := e.owner
	return domain.NewPathLease(abs, true, func() bool {
		for i, e := range s.entries {
			if e.owner == token {
				s.removeAt(i)
				return true
			}
		}
		return false
	}), nil
}

// Contains reports whether dir, made absolute, is on the path.
func (s *Set) Contains(dir string) bool {
	abs, err := pathutil.Abs(dir)
	if err != nil {
		return false
	}
	return s.index(abs) >= 0
}

// Entries returns a copy of the path in order, as it is rendered.
func (s *Set) Entries() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.raw
	}
	return out
}

func (s *Set) Len() int {
	return len(s.entries)
}

// Env renders the set as a PYTHONPATH value.
func (s *Set) Env() string {
	return strings.Join(s.Entries(), string(os.PathListSeparator))
}

func (s *Set) index(abs string) int {
	for i, e := range s.entries {
		if e.path == abs {
			return i
		}
	}
	return -1
}

func (s *Set) removeAt(i int) {
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}
