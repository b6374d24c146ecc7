package assets

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Purger drops derived state when the asset tree changes.
type Purger interface {
	Purge()
}

// Watcher purges the content cache whenever anything under the asset root
// changes, e.g. when the front end is rebuilt in place.
type Watcher struct {
	fsw    *fsnotify.Watcher
	dir    string
	target Purger
	logger *slog.Logger

	started atomic.Bool
	done    chan struct{}
}

func NewWatcher(dir string, target Purger, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:    fsw,
		dir:    dir,
		target: target,
		logger: logger,
		done:   make(chan struct{}),
	}

	if err := w.addTree(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return w, nil
}

// Start processes events in the background until ctx is done or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("asset watcher error", "error", err)
		}
	}
}

// Close stops the underlying watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	if w.started.Load() {
		<-w.done
	}
	return err
}

func (w *Watcher) handle(event fsnotify.Event) {
	// Permission flips do not change served bytes.
	if event.Op == fsnotify.Chmod {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("failed to watch new asset directory", "dir", event.Name, "error", err)
			}
		}
	}

	w.target.Purge()
	w.logger.Debug("asset tree changed, cache purged", "path", event.Name, "op", event.Op.String())
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
