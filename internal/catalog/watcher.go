package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"maestro/internal/logging"
)

// Watcher hot-reloads a catalog file when it changes on disk. Rapid saves
// are debounced so editors that write in bursts trigger one reload.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	catalog     *Catalog
	path        string
	log         *logging.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher that reloads cat from path on change.
func NewWatcher(path string, cat *Catalog, log *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		catalog:     cat,
		path:        path,
		log:         log.WithComponent("catalog"),
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.path); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

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
	w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

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
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch_error", map[string]interface{}{"error": err.Error()})
		case <-debounceTicker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var settled bool
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			delete(w.debounceMap, path)
			settled = true
		}
	}
	w.mu.Unlock()

	if !settled {
		return
	}
	if err := w.catalog.Reload(w.path); err != nil {
		w.log.Warn("catalog_reload_failed", map[string]interface{}{
			"path":  w.path,
			"error": err.Error(),
		})
		return
	}
	w.log.CatalogReloaded(w.path, w.catalog.Len())
}
