package fixtures

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"wafdeck/internal/logging"
)

// Watcher hot-reloads a catalog file when it changes on disk. Results keep
// reconciling correctly across a reload because match status is computed at
// read time, never stored.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	onReload func(*Catalog)
	lastEvt  time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// Editors save with a burst of writes; wait for them to settle.
const reloadDebounce = 250 * time.Millisecond

// NewWatcher creates a watcher for the catalog file at path. onReload is
// called with the freshly parsed catalog after every settled change.
func NewWatcher(path string, onReload func(*Catalog)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		path:     path,
		onReload: onReload,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine
// until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: editors that rename-replace would
	// otherwise drop the watch on the first save.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	logging.Boot("fixture watcher: watching %s", w.path)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
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
			w.mu.Lock()
			w.lastEvt = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Error("fixture watcher: %v", err)
		case <-ticker.C:
			w.maybeReload()
		}
	}
}

func (w *Watcher) maybeReload() {
	w.mu.Lock()
	pending := !w.lastEvt.IsZero() && time.Since(w.lastEvt) >= reloadDebounce
	if pending {
		w.lastEvt = time.Time{}
	}
	w.mu.Unlock()
	if !pending {
		return
	}

	catalog, err := LoadFile(w.path)
	if err != nil {
		// Keep the previous catalog; a half-saved file is not a reason to
		// lose the fixture set.
		logging.Get(logging.CategoryBoot).Error("fixture watcher: reload failed: %v", err)
		return
	}
	logging.Boot("fixture watcher: reloaded %s (%d cases)", w.path, catalog.Len())
	w.onReload(catalog)
}
