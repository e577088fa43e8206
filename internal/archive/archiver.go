// Package archive moves processed sensor files out of the data directory
// so the same file is not picked up by the next detection pass.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/stanley1208/ADK/internal/eventbus"
	"github.com/stanley1208/ADK/pkg/storage"
)

const processedPrefix = "processed"

type Archiver struct {
	eventBus *eventbus.Bus
	storage  storage.Storage
}

func NewArchiver(eventBus *eventbus.Bus, s storage.Storage) *Archiver {
	return &Archiver{
		eventBus: eventBus,
		storage:  s,
	}
}

// Start archives the source file of every completed run until ctx is
// cancelled.
func (a *Archiver) Start(ctx context.Context) {
	subID, ch := a.eventBus.Subscribe(256)
	defer a.eventBus.Unsubscribe(subID)

	slog.Info("archiver started")
	for {
		select {
		case <-ctx.Done():
			slog.Info("archiver stopped")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Type != eventbus.EventTypeRunCompleted {
				continue
			}
			filePath := event.Metadata["file_path"]
			if filePath == "" {
				continue
			}
			if err := a.Archive(ctx, filePath); err != nil {
				slog.Error("failed to archive sensor file", "file", filePath, "error", err)
			}
		}
	}
}

// Archive copies the file into processed/<date>/<name> and removes the
// original.
func (a *Archiver) Archive(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	key := fmt.Sprintf("%s/%s/%s",
		processedPrefix, time.Now().Format("2006-01-02"), filepath.Base(filePath))
	if err := a.storage.Write(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to remove %s: %w", filePath, err)
	}
	slog.Info("archived sensor file", "file", filePath, "key", key)
	return nil
}
