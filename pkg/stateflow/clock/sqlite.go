package clock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists snapshots to SQLite, one row per clock.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS clock_snapshots (
			clock_id INTEGER PRIMARY KEY,
			time INTEGER NOT NULL,
			rate INTEGER NOT NULL,
			running INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO clock_snapshots (clock_id, time, rate, running, saved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(clock_id) DO UPDATE SET
			time = excluded.time,
			rate = excluded.rate,
			running = excluded.running,
			saved_at = excluded.saved_at
	`, int64(snap.ClockID), snap.Time, int64(snap.Rate), snap.Running,
		snap.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ClockID, err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, id event.ID) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Snapshot{}, ErrStoreClosed
	}

	var (
		snap    = Snapshot{ClockID: id}
		rate    int64
		savedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT time, rate, running, saved_at FROM clock_snapshots
		WHERE clock_id = ?
	`, int64(id)).Scan(&snap.Time, &rate, &snap.Running, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	snap.Rate = Rate(rate)
	snap.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	return snap, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]event.ID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT clock_id FROM clock_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var ids []event.ID
	for rows.Next() {
		var raw int64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan snapshot id: %w", err)
		}
		ids = append(ids, event.ID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	// Stored as signed integers, so ORDER BY would misplace IDs with the
	// top bit set.
	sortIDs(ids)
	return ids, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id event.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM clock_snapshots WHERE clock_id = ?`, int64(id)); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

// Close implements Store. It is safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
