package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// WatchFunc receives the reloaded config, or the error encountered whilst loading it.
type WatchFunc func(cfg *Config, err error)

// Watch calls fn with a freshly loaded config each time the file at path is written, created or renamed into place.
// It blocks until ctx is done.
func Watch(ctx context.Context, path string, fn WatchFunc) error {
	l := log.WithPrefix("watch")

	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	defer func() {
		if err := watcher.Close(); err != nil {
			l.Errorf("failed to close watcher: %v", err)
		}
	}()

	// editors often replace a file rather than writing it in place, so we watch the parent directory
	if err = watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	l.Infof("watching %s for changes", path)

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}

			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Name != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			l.Debugf("change detected: %v", event)

			fn(Load(path))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			return fmt.Errorf("failed to read from watcher: %w", err)
		}
	}
}
