package domain

import (
	"path/filepath"
	"testing"
)

func TestResolutionModule(t *testing.T) {
	cases := []struct {
		name   string
		script string
		pkg    string
		module string
		target string
	}{
		{"sibling module", "/p/src/thing/other.py", "thing", "thing.other", "thing.other"},
		{"nested", "/p/src/thing/sub/mod.py", "thing.sub", "thing.sub.mod", "thing.sub.mod"},
		{"initializer", "/p/src/thing/__init__.py", "thing", "thing", "thing.__init__"},
		{"no package", "/p/script.py", "", "script", "script"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolution{ScriptPath: filepath.FromSlash(tc.script), Package: tc.pkg}
			if got := res.Module(); got != tc.module {
				t.Errorf("Module() = %q, want %q", got, tc.module)
			}
			ic := NewInvocationContext(res, ModeMain)
			if got := ic.LaunchTarget(); got != tc.target {
				t.Errorf("LaunchTarget() = %q, want %q", got, tc.target)
			}
		})
	}
}

func TestInvocationContextTopLevel(t *testing.T) {
	res := Resolution{
		ScriptPath: "/p/src/thing/sub/mod.py",
		RootDir:    "/p/src",
		TopDir:     "/p/src/thing",
		Package:    "thing.sub",
		InitFile:   "/p/src/thing/__init__.py",
	}
	ic := NewInvocationContext(res, ModeImported)

	if ic.IsMain() {
		t.Fatal("imported context should not be main")
	}
	top := ic.TopLevel()
	if top.Name != "thing" || top.Dir != "/p/src/thing" || top.Namespace {
		t.Fatalf("unexpected top level %+v", top)
	}

	res.InitFile = ""
	if !NewInvocationContext(res, ModeMain).TopLevel().Namespace {
		t.Fatal("package without initializer should report namespace")
	}
	if (Resolution{ScriptPath: "/p/x.py"}).TopLevel() != (PackageInfo{}) {
		t.Fatal("script outside a package has no top level")
	}
}

func TestEntryModeString(t *testing.T) {
	if ModeMain.String() != "main" || ModeImported.String() != "imported" || ModeAuto.String() != "auto" {
		t.Fatal("unexpected EntryMode names")
	}
}

func TestParseEntryMode(t *testing.T) {
	for _, m := range []EntryMode{ModeAuto, ModeMain, ModeImported} {
		got, err := ParseEntryMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseEntryMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseEntryMode("child"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestParsePosition(t *testing.T) {
	cases := map[string]Position{
		"top":    PositionFront,
		"front":  PositionFront,
		"":       PositionFront,
		"bottom": PositionBack,
		"BACK":   PositionBack,
	}
	for in, want := range cases {
		got, err := ParsePosition(in)
		if err != nil || got != want {
			t.Errorf("ParsePosition(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParsePosition("middle"); err == nil {
		t.Error("ParsePosition(middle) should fail")
	}
}

func TestPathLeaseRelease(t *testing.T) {
	calls := 0
	lease := NewPathLease("/x", true, func() bool { calls++; return true })
	if !lease.Release() {
		t.Fatal("first release should report removal")
	}
	if lease.Release() {
		t.Fatal("second release should be a no-op")
	}
	if calls != 1 {
		t.Fatalf("release func called %d times", calls)
	}

	noop := NewPathLease("/y", false, func() bool { t.Fatal("must not be called"); return true })
	if noop.Release() {
		t.Fatal("lease that did not insert must not release")
	}

	var nilLease *PathLease
	if nilLease.Release() {
		t.Fatal("nil lease release should be false")
	}
}
