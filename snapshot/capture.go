package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/petal-labs/ppal/model"
)

// ProjectReader reads the current project. *ppal.Client satisfies it.
type ProjectReader interface {
	GetProjectInfo(ctx context.Context) (model.ProjectInfo, error)
}

// Capture reads the project once and saves it.
func Capture(ctx context.Context, reader ProjectReader, store Store, baseURL string) (Snapshot, error) {
	if reader == nil {
		return Snapshot{}, errors.New("snapshot: project reader is nil")
	}
	if store == nil {
		return Snapshot{}, errors.New("snapshot: store is nil")
	}

	project, err := reader.GetProjectInfo(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: read project: %w", err)
	}
	return store.Save(ctx, baseURL, project)
}
