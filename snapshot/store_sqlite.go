package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/petal-labs/ppal/model"
)

const sqliteStoreSchema = `
CREATE TABLE IF NOT EXISTS project_snapshots (
	id TEXT PRIMARY KEY,
	base_url TEXT NOT NULL,
	tempo REAL NOT NULL,
	track_count INTEGER NOT NULL,
	payload BLOB NOT NULL,
	taken_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS project_snapshots_taken_at ON project_snapshots (taken_at);`

const (
	defaultSQLiteStoreDir = ".ppal"
	defaultSQLiteStoreDB  = "snapshots.db"

	// takenAtLayout is fixed width so taken_at sorts lexically.
	takenAtLayout = "2006-01-02T15:04:05.000000000Z"
)

// SQLiteStoreConfig configures the SQLite-backed snapshot store.
type SQLiteStoreConfig struct {
	DSN string
	// Now stamps saved snapshots; defaults to time.Now in UTC.
	Now func() time.Time
}

// SQLiteStore persists snapshots in SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultSQLitePath returns ~/.ppal/snapshots.db.
func DefaultSQLitePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("snapshot: resolve user home: %w", err)
	}
	return filepath.Join(home, defaultSQLiteStoreDir, defaultSQLiteStoreDB), nil
}

// NewSQLiteStore opens (or creates) a SQLite-backed snapshot store.
func NewSQLiteStore(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("snapshot: sqlite store dsn is required")
	}
	if isFilePath(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("snapshot: sqlite store create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("snapshot: sqlite store open: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: sqlite store set WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteStoreSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: sqlite store create schema: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SQLiteStore{db: db, now: now}, nil
}

func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// Save stores project under a new id.
func (s *SQLiteStore) Save(ctx context.Context, baseURL string, project model.ProjectInfo) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if s == nil || s.db == nil {
		return Snapshot{}, errors.New("snapshot: sqlite store is nil")
	}
	if err := project.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: refuse to save invalid project: %w", err)
	}

	payload, err := json.Marshal(project)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: encode project: %w", err)
	}
	// Store only what Get can read back, in the form Get returns it.
	project, err = model.ParseProject(payload)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: refuse to save invalid project: %w", err)
	}

	snap := Snapshot{
		ID:      uuid.NewString(),
		BaseURL: baseURL,
		TakenAt: s.now().UTC(),
		Project: project,
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO project_snapshots (id, base_url, tempo, track_count, payload, taken_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID,
		snap.BaseURL,
		project.Tempo,
		len(project.Tracks),
		payload,
		snap.TakenAt.Format(takenAtLayout),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: sqlite insert: %w", err)
	}
	return snap, nil
}

// Get returns a snapshot by id. The stored payload is validated again.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, false, err
	}
	if s == nil || s.db == nil {
		return Snapshot{}, false, errors.New("snapshot: sqlite store is nil")
	}

	row := s.db.QueryRowContext(ctx, `
SELECT id, base_url, payload, taken_at
FROM project_snapshots
WHERE id = ?`, id)

	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// List returns up to limit snapshots, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, errors.New("snapshot: sqlite store is nil")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, base_url, payload, taken_at
FROM project_snapshots
ORDER BY taken_at DESC, rowid DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("snapshot: sqlite list: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: sqlite rows: %w", err)
	}
	return snaps, nil
}

// Prune keeps the newest keep snapshots and deletes the rest.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.db == nil {
		return 0, errors.New("snapshot: sqlite store is nil")
	}
	if keep < 0 {
		return 0, fmt.Errorf("snapshot: keep must not be negative, got %d", keep)
	}

	result, err := s.db.ExecContext(ctx, `
DELETE FROM project_snapshots
WHERE id NOT IN (
	SELECT id FROM project_snapshots
	ORDER BY taken_at DESC, rowid DESC
	LIMIT ?
)`, keep)
	if err != nil {
		return 0, fmt.Errorf("snapshot: sqlite prune: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("snapshot: sqlite prune rows: %w", err)
	}
	return int(removed), nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var (
		snap    Snapshot
		payload []byte
		takenAt string
	)
	if err := row.Scan(&snap.ID, &snap.BaseURL, &payload, &takenAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, err
		}
		return Snapshot{}, fmt.Errorf("snapshot: sqlite scan: %w", err)
	}

	project, err := model.ParseProject(payload)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: decode %s: %w", snap.ID, err)
	}
	snap.Project = project

	snap.TakenAt, err = time.Parse(takenAtLayout, takenAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: parse taken_at of %s: %w", snap.ID, err)
	}
	return snap, nil
}

var _ Store = (*SQLiteStore)(nil)
