package compfile

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Event reports an external change to a watched comp file.
type Event struct {
	Path string
	Op   string
}

// Watch calls fn for every change to the comp file at path until ctx is
// cancelled. The parent directory is watched because saves replace the file.
func Watch(ctx context.Context, path string, fn func(Event)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve comp path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			op := describeOp(event.Op)
			if op == "" {
				continue
			}
			fn(Event{Path: abs, Op: op})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch comp: %w", err)
		}
	}
}

func describeOp(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "created"
	case op&fsnotify.Write != 0:
		return "modified"
	case op&fsnotify.Rename != 0:
		return "renamed"
	case op&fsnotify.Remove != 0:
		return "removed"
	default:
		return ""
	}
}
