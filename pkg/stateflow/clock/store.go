package clock

import (
	"context"
	"errors"

	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

// Store persists clock snapshots so a node can restore its clocks after a
// restart. Implementations must be safe for concurrent use.
type Store interface {
	// Save stores s, replacing any snapshot with the same ClockID.
	Save(ctx context.Context, s Snapshot) error

	// Load returns the snapshot for id.
	// Returns ErrNotFound if none was saved.
	Load(ctx context.Context, id event.ID) (Snapshot, error)

	// List returns the IDs of all saved clocks in ascending order.
	List(ctx context.Context) ([]event.ID, error)

	// Delete removes the snapshot for id. Returns nil if none exists.
	Delete(ctx context.Context, id event.ID) error

	// Close releases resources. Further calls return ErrStoreClosed.
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates no snapshot exists for the clock.
	ErrNotFound = errors.New("clock snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("clock store closed")
)
