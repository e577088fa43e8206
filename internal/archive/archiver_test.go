package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley1208/ADK/internal/eventbus"
	"github.com/stanley1208/ADK/pkg/storage"
)

func TestArchiveMovesFile(t *testing.T) {
	dataDir := t.TempDir()
	src := filepath.Join(dataDir, "fire.json")
	require.NoError(t, os.WriteFile(src, []byte(`[]`), 0644))

	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	a := NewArchiver(eventbus.New(), store)

	ctx := context.Background()
	require.NoError(t, a.Archive(ctx, src))

	// Original is gone, archived copy exists under today's date.
	_, statErr := os.Stat(src)
	assert.True(t, os.IsNotExist(statErr))

	key := "processed/" + time.Now().Format("2006-01-02") + "/fire.json"
	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), data)
}

func TestArchiveMissingFile(t *testing.T) {
	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	a := NewArchiver(eventbus.New(), store)

	assert.Error(t, a.Archive(context.Background(), filepath.Join(t.TempDir(), "nope.json")))
}
