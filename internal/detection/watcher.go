package detection

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stanley1208/ADK/internal/eventbus"
)

// DebounceInterval is the delay after an fsnotify event before a file is
// reported, letting write-then-rename uploads settle.
const DebounceInterval = 200 * time.Millisecond

// Watcher publishes a file-detected event whenever a sensor file
// matching the pattern appears or changes in the data directory.
type Watcher struct {
	dataDir string
	pattern string
	bus     *eventbus.Bus

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewWatcher(dataDir, pattern string, bus *eventbus.Bus) *Watcher {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return &Watcher{
		dataDir: dataDir,
		pattern: pattern,
		bus:     bus,
		timers:  make(map[string]*time.Timer),
	}
}

// Start watches the data directory until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dataDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dataDir, err)
	}
	slog.Info("watching data directory", "dir", w.dataDir, "pattern", w.pattern)

	for {
		select {
		case <-ctx.Done():
			slog.Info("data directory watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if matched, err := filepath.Match(w.pattern, name); err != nil || !matched {
				continue
			}
			w.debounce(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", "error", err)
		}
	}
}

// debounce resets the per-file timer; the event fires once writes settle.
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(DebounceInterval, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		slog.Info("sensor file detected", "file", path)
		w.bus.PublishNew(eventbus.EventTypeFileDetected, path, "", map[string]string{
			"file_name": filepath.Base(path),
		})
	})
}
