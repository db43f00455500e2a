package application

import (
	"context"
	"fmt"
)

// Watch calls run once and again after every change the watcher reports
// under root, until ctx is cancelled or the watcher closes.
func (s *Service) Watch(ctx context.Context, root string, watcher FileWatcher, run func(context.Context) error, callback WatchCallback) error {
	if err := watcher.WatchDir(root); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	runNumber := 1
	runErr := run(ctx)
	if callback != nil {
		callback(runNumber, runErr)
	}

	events := watcher.Events(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			runNumber++
			s.resetResolver()
			runErr := run(ctx)
			if callback != nil {
				callback(runNumber, runErr)
			}
		}
	}
}

// resetResolver drops cached resolutions, which go stale once the watched
// tree changes.
func (s *Service) resetResolver() {
	if r, ok := s.Resolver.(interface{ Reset() }); ok {
		r.Reset()
	}
}
