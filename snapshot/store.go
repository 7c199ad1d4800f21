// Package snapshot persists ProjectInfo readings so project state can be
// compared over time, and captures them on a cron schedule.
package snapshot

import (
	"context"
	"time"

	"github.com/petal-labs/ppal/model"
)

// Snapshot is one stored ProjectInfo reading.
type Snapshot struct {
	ID      string            `json:"id"`
	BaseURL string            `json:"base_url"`
	TakenAt time.Time         `json:"taken_at"`
	Project model.ProjectInfo `json:"project"`
}

// Store persists snapshots. Implementations must be safe for concurrent use.
type Store interface {
	// Save assigns an id and timestamp and stores project.
	Save(ctx context.Context, baseURL string, project model.ProjectInfo) (Snapshot, error)
	// Get returns the snapshot with id; found is false when there is none.
	Get(ctx context.Context, id string) (Snapshot, bool, error)
	// List returns up to limit snapshots, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Snapshot, error)
	// Prune deletes all but the newest keep snapshots and reports how many
	// were removed.
	Prune(ctx context.Context, keep int) (int, error)
	Close() error
}
