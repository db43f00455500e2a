package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// skipDirs are never watched: interpreter caches, virtualenvs and tool state.
var skipDirs = []string{"__pycache__", "venv", "node_modules", "build", "dist"}

// Watcher reports debounced changes to Python sources below a root.
type Watcher struct {
	fsw        *fsnotify.Watcher
	debounce   time.Duration
	extensions []string
	onError    func(error)
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets how long the tree must be quiet before a change is
// reported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExtensions sets the file extensions that count as changes.
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = exts
		}
	}
}

// WithErrorHandler receives errors from the underlying notifier.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:        fsw,
		debounce:   500 * time.Millisecond,
		extensions: []string{".py"},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WatchDir adds root and every package directory below it.
func (w *Watcher) WatchDir(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// Events emits once per burst of relevant changes. New directories are
// watched as they appear. The channel closes with ctx or the watcher.
func (w *Watcher) Events(ctx context.Context) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		var (
			timer   *time.Timer
			timerCh <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.fsw.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					w.watchNew(event.Name)
				}
				if !isChange(event) || !w.relevant(event.Name) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C

			case <-timerCh:
				timerCh = nil
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.fsw.Errors:
				if !ok {
					return
				}
				if w.onError != nil {
					w.onError(err)
				}
			}
		}
	}()

	return out
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) watchNew(path string) {
	if skipped(filepath.Base(path)) {
		return
	}
	// Not a directory, or already gone; either way nothing to add.
	_ = w.WatchDir(path)
}

// isChange covers editors that save by renaming a temporary file.
func isChange(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}

func (w *Watcher) relevant(path string) bool {
	return slices.Contains(w.extensions, filepath.Ext(path))
}

func skipped(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".egg-info") || slices.Contains(skipDirs, name)
}
