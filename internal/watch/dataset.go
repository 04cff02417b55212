// Package watch invalidates derived markers when the reference dataset changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Clearer drops every cached entry
type Clearer interface {
	Clear()
}

// Stats counts what the watcher has seen
type Stats struct {
	Events        int
	Invalidations int
	Errors        int
	LastEvent     time.Time
}

// DatasetWatcher clears the marker cache after the dataset file is written,
// created, renamed or removed. Bursts of events within the debounce window
// collapse into one invalidation.
type DatasetWatcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	cache    Clearer
	logger   *zap.Logger
	debounce time.Duration
	pending  bool
	lastSeen time.Time
	stats    Stats
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewDatasetWatcher creates a watcher for the dataset at path
func NewDatasetWatcher(path string, cache Clearer, logger *zap.Logger) (*DatasetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatasetWatcher{
		watcher:  w,
		path:     filepath.Clean(path),
		cache:    cache,
		logger:   logger,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the dataset's directory until ctx is done or Stop is called.
// The directory is watched rather than the file so that atomic replacements are seen.
func (dw *DatasetWatcher) Start(ctx context.Context) error {
	dw.mu.Lock()
	if dw.running {
		dw.mu.Unlock()
		return nil
	}
	dw.running = true
	dw.mu.Unlock()

	dir := filepath.Dir(dw.path)
	if err := dw.watcher.Add(dir); err != nil {
		dw.watcher.Close()
		close(dw.doneCh)
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	dw.logger.Info("watching dataset", zap.String("path", dw.path))

	go dw.run(ctx)
	return nil
}

// Stop ends the watch and waits for the event loop to exit
func (dw *DatasetWatcher) Stop() {
	dw.mu.Lock()
	if !dw.running {
		dw.mu.Unlock()
		return
	}
	dw.running = false
	dw.mu.Unlock()

	close(dw.stopCh)
	<-dw.doneCh
}

// Stats returns a copy of the event counters
func (dw *DatasetWatcher) Stats() Stats {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.stats
}

func (dw *DatasetWatcher) run(ctx context.Context) {
	defer close(dw.doneCh)
	defer dw.watcher.Close()

	ticker := time.NewTicker(dw.debounce / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dw.stopCh:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.handleEvent(event)
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Warn("dataset watcher error", zap.Error(err))
			dw.mu.Lock()
			dw.stats.Errors++
			dw.mu.Unlock()
		case now := <-ticker.C:
			dw.flush(now)
		}
	}
}

func (dw *DatasetWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != dw.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.stats.Events++
	dw.stats.LastEvent = time.Now()
	dw.lastSeen = dw.stats.LastEvent
	dw.pending = true
	dw.logger.Debug("dataset event", zap.String("op", event.Op.String()))
}

// flush clears the cache once no event has arrived for the debounce window
func (dw *DatasetWatcher) flush(now time.Time) {
	dw.mu.Lock()
	if !dw.pending || now.Sub(dw.lastSeen) < dw.debounce {
		dw.mu.Unlock()
		return
	}
	dw.pending = false
	dw.stats.Invalidations++
	dw.mu.Unlock()

	dw.cache.Clear()
	dw.logger.Info("dataset changed, marker cache cleared", zap.String("path", dw.path))
}
