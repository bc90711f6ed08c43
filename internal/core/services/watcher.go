package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ledger-labs/salescope/internal/core/ports/driven"
	"github.com/ledger-labs/salescope/internal/core/ports/driving"
	"github.com/ledger-labs/salescope/internal/logger"
)

// debounceDelay coalesces bursts of filesystem events for one file into
// a single re-index. Editors commonly emit several writes per save.
const debounceDelay = 500 * time.Millisecond

// Watcher re-indexes documents as they change on disk.
type Watcher struct {
	indexer   driving.Indexer
	extractor driven.TextExtractor

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher driving the given indexer.
func NewWatcher(indexer driving.Indexer, extractor driven.TextExtractor) *Watcher {
	return &Watcher{
		indexer:   indexer,
		extractor: extractor,
		pending:   make(map[string]*time.Timer),
	}
}

// Watch blocks watching dir until ctx is cancelled. Created and modified
// supported files are re-indexed; removed and renamed files are dropped
// from the index.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching %s for changes", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !w.extractor.Supports(event.Name) {
		return
	}

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		source := filepath.Base(event.Name)
		logger.Debug("removed: %s", source)
		if err := w.indexer.DeleteDocument(ctx, source); err != nil {
			logger.Warn("delete %s: %v", source, err)
		}

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		w.scheduleIndex(ctx, event.Name)
	}
}

// scheduleIndex debounces re-indexing of path.
func (w *Watcher) scheduleIndex(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if _, err := w.indexer.IndexDocument(ctx, path); err != nil {
			logger.Warn("re-index %s: %v", filepath.Base(path), err)
		}
	})
}
