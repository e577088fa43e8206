package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/stanley1208/ADK/internal/run"
	"github.com/stanley1208/ADK/pkg/cerr"
	"github.com/stanley1208/ADK/pkg/storage"
)

const runsPrefix = "runs"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", runsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, rn *run.Run) error {
	exists, err := r.storage.Exists(ctx, path(rn.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("run", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "run already exists", nil)
	}
	data, err := yaml.Marshal(rn)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal run: %w", err))
	}
	if err := r.storage.Write(ctx, path(rn.ID), data); err != nil {
		return cerr.WrapStorageWriteError("run", err)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*run.Run, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("run", err)
	}
	var rn run.Run
	if err := yaml.Unmarshal(data, &rn); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal run: %w", err))
	}
	return &rn, nil
}

func (r *YAMLRepository) List(ctx context.Context, sessionID string, limit, offset int) ([]*run.Run, int, error) {
	paths, err := r.storage.List(ctx, runsPrefix)
	if err != nil {
		return nil, 0, cerr.WrapStorageReadError("runs", err)
	}

	var all []*run.Run
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var rn run.Run
		if err := yaml.Unmarshal(data, &rn); err != nil {
			continue
		}
		if sessionID != "" && rn.SessionID != sessionID {
			continue
		}
		all = append(all, &rn)
	}

	// Newest first. ULID ids sort chronologically.
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID > all[j].ID
	})

	total := len(all)
	if offset > 0 {
		if offset >= len(all) {
			return nil, total, nil
		}
		all = all[offset:]
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *YAMLRepository) Update(ctx context.Context, rn *run.Run) error {
	exists, err := r.storage.Exists(ctx, path(rn.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("run", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "run not found", nil)
	}
	data, err := yaml.Marshal(rn)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal run: %w", err))
	}
	if err := r.storage.Write(ctx, path(rn.ID), data); err != nil {
		return cerr.WrapStorageWriteError("run", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("run", err)
	}
	return nil
}
