package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newWatcher(t *testing.T, root string, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(append([]Option{WithDebounce(50 * time.Millisecond)}, opts...)...)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	if err := w.WatchDir(root); err != nil {
		t.Fatalf("watch dir: %v", err)
	}
	return w
}

func expectEvent(t *testing.T, events <-chan struct{}, ctx context.Context) {
	t.Helper()
	select {
	case <-events:
	case <-ctx.Done():
		t.Fatal("timeout waiting for change event")
	}
}

func expectQuiet(t *testing.T, events <-chan struct{}, ctx context.Context) {
	t.Helper()
	select {
	case <-events:
		t.Fatal("unexpected change event")
	case <-ctx.Done():
	}
}

func TestWatcherDetectsPythonChanges(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events := w.Events(ctx)

	if err := os.WriteFile(filepath.Join(root, "other.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	expectEvent(t, events, ctx)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	events := w.Events(ctx)

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	expectQuiet(t, events, ctx)
}

func TestWatcherWithCustomExtensions(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root, WithExtensions(".py", ".toml"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events := w.Events(ctx)

	if err := os.WriteFile(filepath.Join(root, "pyproject.toml"), []byte("[tool.rela]\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	expectEvent(t, events, ctx)
}

func TestWatcherSkipsCacheDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"__pycache__", ".venv"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	w := newWatcher(t, root)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	events := w.Events(ctx)

	if err := os.WriteFile(filepath.Join(root, "__pycache__", "x.py"), []byte(""), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".venv", "site.py"), []byte(""), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	expectQuiet(t, events, ctx)
}

func TestWatcherFollowsNewPackages(t *testing.T) {
	root := t.TempDir()
	w := newWatcher(t, root)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events := w.Events(ctx)

	pkg := filepath.Join(root, "thing")
	if err := os.Mkdir(pkg, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(pkg, "__init__.py"), []byte(""), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	expectEvent(t, events, ctx)
}

func TestWatcherDebounces(t *testing.T) {
	root := t.TempDir()
	w, err := New(WithDebounce(100 * time.Millisecond))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	if err := w.WatchDir(root); err != nil {
		t.Fatalf("watch dir: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	events := w.Events(ctx)

	script := filepath.Join(root, "other.py")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(script, []byte("x = "+string(rune('a'+i))), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	count := 0
	timeout := time.After(300 * time.Millisecond)
loop:
	for {
		select {
		case <-events:
			count++
		case <-timeout:
			break loop
		}
	}
	if count != 1 {
		t.Fatalf("expected 1 debounced event, got %d", count)
	}
}

func TestRelevantAndSkipped(t *testing.T) {
	w := &Watcher{extensions: []string{".py"}}
	if !w.relevant("pkg/mod.py") || w.relevant("pkg/mod.pyc") {
		t.Fatal("extension filter")
	}
	for name, want := range map[string]bool{
		"__pycache__":    true,
		".git":           true,
		"thing.egg-info": true,
		"thing":          false,
	} {
		if got := skipped(name); got != want {
			t.Errorf("skipped(%q) = %v, want %v", name, got, want)
		}
	}
}
