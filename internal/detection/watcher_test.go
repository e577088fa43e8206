package detection

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley1208/ADK/internal/eventbus"
)

func TestWatcherPublishesDebouncedEvent(t *testing.T) {
	dir := t.TempDir()
	bus := eventbus.New()
	_, ch := bus.Subscribe(16)

	w := NewWatcher(dir, "*.json", bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "fire.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))
	// A quick follow-up write lands in the same debounce window.
	require.NoError(t, os.WriteFile(path, []byte(`[ ]`), 0644))

	select {
	case ev := <-ch:
		assert.Equal(t, eventbus.EventTypeFileDetected, ev.Type)
		assert.Equal(t, path, ev.ResourceID)
		assert.Equal(t, "fire.json", ev.Metadata["file_name"])
	case <-time.After(3 * time.Second):
		t.Fatal("no file_detected event received")
	}

	// Both writes collapse into a single event.
	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event for %s", ev.ResourceID)
	case <-time.After(3 * DebounceInterval):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherIgnoresNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	bus := eventbus.New()
	_, ch := bus.Subscribe(16)

	w := NewWatcher(dir, "*.json", bus)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event for non-matching file %s", ev.ResourceID)
	case <-time.After(3 * DebounceInterval):
	}
}
