package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cdaps/hidef/pkg/logging"
)

// ChangeEvent signals that the watched edge-list file settled after one or
// more writes.
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// FileWatcher watches a single edge-list file for rewrites. The parent
// directory is watched rather than the file itself so editors that replace
// the file (write temp + rename) are still observed.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// New creates a watcher for the given input file.
func New(path string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	return &FileWatcher{
		watcher: w,
		path:    abs,
		events:  make(chan ChangeEvent, 16),
	}, nil
}

// Start begins watching. Events are delivered on Events() until ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(fw.path), err)
	}
	logging.Info("watching input", "path", fw.path)
	go fw.processEvents(ctx)
	return nil
}

// Events returns the change event channel.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer fw.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			close(fw.events)
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logging.Debug("input changed", "op", event.Op.String())
			select {
			case fw.events <- ChangeEvent{Path: fw.path, Timestamp: time.Now()}:
			default:
				// Channel is full; a change is already pending.
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				close(fw.events)
				return
			}
			logging.Warn("watcher error", "error", err.Error())
		}
	}
}
