package loader

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a spec file when it changes on disk. Editors write spec
// files in bursts (truncate + write, or rename-over), so events are
// debounced before the callback fires.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc

	lastEvent time.Time
	debounce  time.Duration
}

// NewWatcher creates a watcher for the given spec file.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: 200 * time.Millisecond,
	}, nil
}

// Start begins watching. onChange runs on the watcher goroutine after each
// debounced change to the spec file.
func (w *Watcher) Start(onChange func()) error {
	// Watch the directory, not the file: rename-over saves replace the
	// inode and a file-level watch would go dead after the first save.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch spec directory: %w", err)
	}
	go w.watchLoop(onChange)
	return nil
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.cancel()
	w.watcher.Close()
}

func (w *Watcher) watchLoop(onChange func()) {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			now := time.Now()
			if now.Sub(w.lastEvent) < w.debounce {
				continue
			}
			w.lastEvent = now
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("warning: spec watcher error: %v", err)
		}
	}
}
