// Package watch monitors the inbox directory for dropped transcript files and
// feeds them through the capture pipeline. Drop a .txt/.md/.json transcript
// into .chatnerd/inbox/ and it is captured once its writes settle.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"chatnerd/internal/capture"
	"chatnerd/internal/logging"
	"chatnerd/internal/reconcile"

	"github.com/fsnotify/fsnotify"
)

// InboxWatcher watches an inbox directory and captures settled transcript
// files. It watches one directory only; subdirectories are ignored.
type InboxWatcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	pipeline    *capture.Pipeline
	inboxDir    string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	removeAfter bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats InboxWatcherStats
}

// InboxWatcherStats tracks watcher activity for debugging.
type InboxWatcherStats struct {
	FilesSeen     int
	Captures      int
	Skips         int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// NewInboxWatcher creates a watcher over inboxDir feeding the given pipeline.
func NewInboxWatcher(inboxDir string, pipeline *capture.Pipeline, debounce time.Duration, removeAfter bool) (*InboxWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &InboxWatcher{
		watcher:     watcher,
		pipeline:    pipeline,
		inboxDir:    inboxDir,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		removeAfter: removeAfter,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching the inbox directory. Non-blocking; the event loop
// runs in a goroutine until Stop or context cancellation.
func (w *InboxWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.inboxDir, 0755); err != nil {
		logging.Get(logging.CategoryWatch).Warn("failed to create inbox dir %s: %v (continuing anyway)", w.inboxDir, err)
	}

	if err := w.watcher.Add(w.inboxDir); err != nil {
		logging.Get(logging.CategoryWatch).Warn("initial watch failed (dir may not exist): %v", err)
	} else {
		logging.Watch("watching inbox: %s", w.inboxDir)
	}

	// Pick up files that were already sitting in the inbox
	w.scanExisting()

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for cleanup.
func (w *InboxWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("inbox watcher stopped")
}

// IsWatching returns true if the watcher is currently running.
func (w *InboxWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns the current watcher statistics.
func (w *InboxWatcher) GetStats() InboxWatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// scanExisting queues transcripts that predate the watcher.
func (w *InboxWatcher) scanExisting() {
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, entry := range entries {
		if entry.IsDir() || !isTranscript(entry.Name()) {
			continue
		}
		w.debounceMap[filepath.Join(w.inboxDir, entry.Name())] = time.Now()
		w.stats.FilesSeen++
	}
}

// run is the main event loop for the watcher.
func (w *InboxWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
			return

		case <-w.stopCh:
			logging.WatchDebug("stop signal received")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				logging.Watch("event channel closed")
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				logging.Watch("error channel closed")
				return
			}
			logging.Get(logging.CategoryWatch).Error("watcher error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processSettled()
		}
	}
}

// handleEvent records a create/write event for debouncing.
func (w *InboxWatcher) handleEvent(event fsnotify.Event) {
	if !isTranscript(event.Name) {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return // Ignore remove, rename, chmod
	}

	logging.WatchDebug("inbox event: %s %s", event.Op, event.Name)

	w.mu.Lock()
	if _, seen := w.debounceMap[event.Name]; !seen {
		w.stats.FilesSeen++
	}
	w.debounceMap[event.Name] = time.Now()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.mu.Unlock()
}

// processSettled captures files whose last event is past the debounce window.
func (w *InboxWatcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.captureFile(path)
	}
}

// captureFile pushes one settled inbox file through the pipeline.
func (w *InboxWatcher) captureFile(path string) {
	result, err := w.pipeline.CaptureFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.WatchDebug("inbox file vanished before capture: %s", path)
			return
		}
		logging.Get(logging.CategoryWatch).Error("capture failed for %s: %v", path, err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	if result.Action == reconcile.ActionSkip {
		w.stats.Skips++
	} else {
		w.stats.Captures++
	}
	w.mu.Unlock()

	logging.Watch("captured %s: %s", filepath.Base(path), result.Action)

	if w.removeAfter {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logging.Get(logging.CategoryWatch).Warn("failed to remove inbox file %s: %v", path, err)
		}
	}
}

// isTranscript reports whether a file name looks like a droppable transcript.
func isTranscript(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".json":
		return true
	}
	return false
}
