package domain

import (
	"errors"
	"testing"
)

func TestParsePackageSpec(t *testing.T) {
	cases := []struct {
		in    string
		kind  SpecKind
		depth int
		valid bool
	}{
		{".", SpecDots, 1, true},
		{"...", SpecDots, 3, true},
		{"thing", SpecName, 1, true},
		{"thing.sub", SpecName, 2, true},
		{"_priv.x9", SpecName, 2, true},
		{"", 0, 0, false},
		{"..pkg", 0, 0, false},
		{"pkg.", 0, 0, false},
		{"a..b", 0, 0, false},
		{"9lives", 0, 0, false},
		{"has-dash", 0, 0, false},
	}

	for _, tc := range cases {
		spec, err := ParsePackageSpec(tc.in)
		if !tc.valid {
			if !errors.Is(err, ErrInvalidSpec) {
				t.Errorf("ParsePackageSpec(%q) expected ErrInvalidSpec, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePackageSpec(%q) unexpected error: %v", tc.in, err)
			continue
		}
		if spec.Kind() != tc.kind || spec.Depth() != tc.depth {
			t.Errorf("ParsePackageSpec(%q) = kind %d depth %d, want kind %d depth %d", tc.in, spec.Kind(), spec.Depth(), tc.kind, tc.depth)
		}
		if spec.String() != tc.in {
			t.Errorf("String() = %q, want %q", spec.String(), tc.in)
		}
	}
}

func TestPackageSpecComponentsAreCopied(t *testing.T) {
	spec := MustPackageSpec("a.b")
	c := spec.Components()
	c[0] = "z"
	if spec.Components()[0] != "a" {
		t.Fatal("Components must not expose internal state")
	}
}

func TestMustPackageSpecPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustPackageSpec(\"\") should panic")
		}
	}()
	MustPackageSpec("")
}

func TestResolveModuleRef(t *testing.T) {
	cases := []struct {
		from, ref, want string
		ok              bool
	}{
		{"pkg.b", ".a", "pkg.a", true},
		{"pkg.sub.b", "..a", "pkg.a", true},
		{"pkg.sub.b", "..a.c", "pkg.a.c", true},
		{"pkg.b", ".", "pkg", true},
		{"pkg.b", "other.mod", "other.mod", true},
		{"", "other", "other", true},
		{"pkg.b", "..a", "", false},
		{"b", ".a", "", false},
		{"", ".a", "", false},
		{"pkg.b", "", "", false},
		{"pkg.b", ".a-b", "", false},
	}

	for _, tc := range cases {
		got, err := ResolveModuleRef(tc.from, tc.ref)
		if tc.ok && err != nil {
			t.Errorf("ResolveModuleRef(%q, %q) unexpected error: %v", tc.from, tc.ref, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("ResolveModuleRef(%q, %q) expected error, got %q", tc.from, tc.ref, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("ResolveModuleRef(%q, %q) = %q, want %q", tc.from, tc.ref, got, tc.want)
		}
	}
}

func TestResolutionErrorMatchesSentinel(t *testing.T) {
	err := error(&ResolutionError{Step: StepNameMismatch, Script: "/p/x.py", Dir: "/p", Want: "a", Got: "p"})
	if !errors.Is(err, ErrResolution) {
		t.Fatal("ResolutionError should match ErrResolution")
	}
	if errors.Is(err, ErrActivation) {
		t.Fatal("ResolutionError should not match ErrActivation")
	}
	var re *ResolutionError
	if !errors.As(err, &re) || re.Step != StepNameMismatch {
		t.Fatalf("expected name-mismatch step, got %v", err)
	}
}

func TestControlSignal(t *testing.T) {
	sig := &ControlSignal{Kind: SignalMainRedirectDone, Detail: "pkg.a"}
	wrapped := errors.Join(errors.New("context"), sig)

	if !IsControlSignal(sig) || !IsControlSignal(wrapped) {
		t.Fatal("expected control signal to be detected through wrapping")
	}
	if IsControlSignal(errors.New("boom")) || IsControlSignal(nil) {
		t.Fatal("plain errors are not control signals")
	}
	got, ok := SignalOf(wrapped)
	if !ok || got.Kind != SignalMainRedirectDone {
		t.Fatalf("SignalOf returned %v, %v", got, ok)
	}
	if sig.Error() != "main redirect done: pkg.a" {
		t.Errorf("unexpected message %q", sig.Error())
	}
}
