package snapshot

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/petal-labs/ppal/model"
)

type steppingClock struct {
	next time.Time
}

func (c *steppingClock) Now() time.Time {
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}

func newSQLiteSnapshotStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "snapshots.db")
	clock := &steppingClock{next: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewSQLiteStore(SQLiteStoreConfig{
		DSN: path,
		Now: clock.Now,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store, path
}

func sampleProject(tempo float64, trackNames ...string) model.ProjectInfo {
	project := model.ProjectInfo{Tempo: tempo}
	for i, name := range trackNames {
		project.Tracks = append(project.Tracks, model.Track{
			ID:   i,
			Name: name,
			Clips: []model.Clip{{
				ID:     0,
				Name:   name + " intro",
				Length: "1:0",
				Notes: []model.Note{{
					Pitch:       "C3",
					Start:       "1|1",
					Duration:    "0:1",
					Velocity:    model.DefaultVelocity,
					Probability: model.DefaultProbability,
				}},
			}},
		})
	}
	return project
}

func TestSQLiteStoreSaveGetRoundTrip(t *testing.T) {
	store, _ := newSQLiteSnapshotStore(t)
	ctx := context.Background()

	project := sampleProject(120, "Drums", "Bass")
	saved, err := store.Save(ctx, "http://localhost:3350", project)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == "" {
		t.Fatal("Save() returned empty id")
	}
	if !saved.TakenAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("TakenAt = %s", saved.TakenAt)
	}

	got, ok, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() found = false")
	}
	if got.BaseURL != "http://localhost:3350" || !got.TakenAt.Equal(saved.TakenAt) {
		t.Fatalf("Get() = %+v", got)
	}
	if !reflect.DeepEqual(got.Project, project) {
		t.Fatalf("project = %+v, want %+v", got.Project, project)
	}

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
}

func TestSQLiteStoreRejectsInvalidProject(t *testing.T) {
	store, _ := newSQLiteSnapshotStore(t)

	_, err := store.Save(context.Background(), "http://localhost:3350", model.ProjectInfo{Tempo: 0})
	if err == nil || !strings.Contains(err.Error(), "tempo") {
		t.Fatalf("Save() error = %v, want tempo validation error", err)
	}
}

func TestSQLiteStoreRejectsIDsOutsideWireRange(t *testing.T) {
	store, _ := newSQLiteSnapshotStore(t)
	ctx := context.Background()

	tooBig := int64(math.MaxInt32) + 1
	project := sampleProject(120, "Drums")
	project.Tracks[0].ID = int(tooBig)
	if _, err := store.Save(ctx, "http://localhost:3350", project); err == nil {
		t.Fatal("Save() error = nil, want rejection of out-of-range track id")
	}

	if _, err := store.Save(ctx, "http://localhost:3350", sampleProject(90, "Keys")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	snaps, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("len(List()) = %d, want 1", len(snaps))
	}
}

func TestSQLiteStoreSaveReturnsStoredForm(t *testing.T) {
	store, _ := newSQLiteSnapshotStore(t)
	ctx := context.Background()

	project := model.ProjectInfo{
		Tempo:  128,
		Tracks: []model.Track{{ID: 0, Name: "Empty", Clips: []model.Clip{{ID: 0, Name: "Blank", Notes: []model.Note{}, Length: "1:0"}}}},
	}
	saved, err := store.Save(ctx, "http://localhost:3350", project)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, found, err := store.Get(ctx, saved.ID)
	if err != nil || !found {
		t.Fatalf("Get() = found %v, error %v", found, err)
	}
	if !reflect.DeepEqual(loaded.Project, saved.Project) {
		t.Fatalf("Get().Project = %+v, want %+v", loaded.Project, saved.Project)
	}
}

func TestSQLiteStoreListNewestFirstAndPrune(t *testing.T) {
	store, _ := newSQLiteSnapshotStore(t)
	ctx := context.Background()

	var ids []string
	for _, tempo := range []float64{90, 100, 110, 120} {
		snap, err := store.Save(ctx, "http://localhost:3350", sampleProject(tempo, "Keys"))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, snap.ID)
	}

	snaps, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != ids[3] || snaps[1].ID != ids[2] {
		t.Fatalf("List(2) ids = %v, want [%s %s]", snapshotIDs(snaps), ids[3], ids[2])
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List(0) error = %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("List(0) len = %d, want 4", len(all))
	}

	removed, err := store.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 3 {
		t.Fatalf("Prune() removed = %d, want 3", removed)
	}
	remaining, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(remaining) != 1 || remaining[0].Project.Tempo != 120 {
		t.Fatalf("remaining = %+v", remaining)
	}

	if _, err := store.Prune(ctx, -1); err == nil {
		t.Fatal("Prune(-1) error = nil")
	}
}

func TestSQLiteStoreGetRejectsCorruptPayload(t *testing.T) {
	store, path := newSQLiteSnapshotStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, "http://localhost:3350", sampleProject(120, "Drums"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`UPDATE project_snapshots SET payload = ? WHERE id = ?`, []byte(`{"tempo":-1,"tracks":[]}`), saved.ID); err != nil {
		t.Fatalf("corrupt payload: %v", err)
	}

	if _, _, err := store.Get(ctx, saved.ID); err == nil {
		t.Fatal("Get() error = nil for corrupt payload")
	}
}

func TestNewSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(SQLiteStoreConfig{DSN: "  "}); err == nil {
		t.Fatal("NewSQLiteStore() error = nil")
	}
}

func snapshotIDs(snaps []Snapshot) []string {
	ids := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		ids = append(ids, snap.ID)
	}
	return ids
}
