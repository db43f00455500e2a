package domain

import (
	"slices"
	"sort"
	"strings"
)

// DefaultTestPrefix is the method prefix that marks a test method.
const DefaultTestPrefix = "test_"

// TestMethod is a method found on a test class.
type TestMethod struct {
	Name string `json:"name"`
	Line int    `json:"line"`
	Keep bool   `json:"keep,omitempty"`
}

// TestClass is a test class as declared in a source file.
type TestClass struct {
	Name string `json:"name"`
	Line int    `json:"line"`
	// Case is set when the class carries the case() marker. Keep markers
	// written in the source only count on such classes.
	Case    bool         `json:"case,omitempty"`
	Methods []TestMethod `json:"methods"`
}

// KeepSet holds the method names marked "keep" for one class.
// The zero value is an empty set and filters nothing.
type KeepSet struct {
	names map[string]struct{}
}

// NewKeepSet returns a set holding names.
func NewKeepSet(names ...string) KeepSet {
	var ks KeepSet
	for _, n := range names {
		ks.Keep(n)
	}
	return ks
}

// KeepSetFromClass collects the methods flagged as kept in the source. It
// is empty unless the class is marked as a case.
func KeepSetFromClass(c TestClass) KeepSet {
	var ks KeepSet
	if !c.Case {
		return ks
	}
	for _, m := range c.Methods {
		if m.Keep {
			ks.Keep(m.Name)
		}
	}
	return ks
}

// Keep marks name. Marking the same name again has no effect.
func (k *KeepSet) Keep(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if k.names == nil {
		k.names = make(map[string]struct{})
	}
	k.names[name] = struct{}{}
}

func (k KeepSet) Has(name string) bool {
	_, ok := k.names[name]
	return ok
}

// Names returns the marked names in sorted order.
func (k KeepSet) Names() []string {
	out := make([]string, 0, len(k.names))
	for n := range k.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Selection is the outcome of filtering one class.
type Selection struct {
	Class   TestClass    `json:"class"`
	Kept    []TestMethod `json:"kept"`
	Removed []TestMethod `json:"removed"`
	// Filtered is false when no test method was marked and nothing was
	// touched.
	Filtered bool `json:"filtered"`
	// Missing lists keep names that match no method on the class.
	Missing []string `json:"missing,omitempty"`
}

// TestNames returns the names of the kept test methods.
func (s Selection) TestNames() []string {
	out := make([]string, 0, len(s.Kept))
	for _, m := range s.Kept {
		out = append(out, m.Name)
	}
	return out
}

// SelectCase builds the filtered test class. Filtering starts only when
// keep holds a name carrying the test prefix; otherwise the class is
// returned unchanged and every test method is kept. When filtering, each
// method carrying the prefix that is not in keep is removed. Methods
// without the prefix are helpers and always stay on the class.
func SelectCase(class TestClass, keep KeepSet, prefix string) Selection {
	if prefix == "" {
		prefix = DefaultTestPrefix
	}

	sel := Selection{Filtered: slices.ContainsFunc(keep.Names(), func(n string) bool {
		return strings.HasPrefix(n, prefix)
	})}
	methods := make([]TestMethod, 0, len(class.Methods))
	seen := make(map[string]struct{}, len(class.Methods))

	for _, m := range class.Methods {
		seen[m.Name] = struct{}{}
		if !strings.HasPrefix(m.Name, prefix) {
			methods = append(methods, m)
			continue
		}
		if sel.Filtered && !keep.Has(m.Name) {
			sel.Removed = append(sel.Removed, m)
			continue
		}
		methods = append(methods, m)
		sel.Kept = append(sel.Kept, m)
	}

	for _, n := range keep.Names() {
		if _, ok := seen[n]; !ok {
			sel.Missing = append(sel.Missing, n)
		}
	}

	sort.SliceStable(sel.Kept, func(i, j int) bool { return sel.Kept[i].Line < sel.Kept[j].Line })
	sort.Slice(sel.Removed, func(i, j int) bool { return sel.Removed[i].Name < sel.Removed[j].Name })

	sel.Class = TestClass{Name: class.Name, Line: class.Line, Methods: methods}
	return sel
}
