package clock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
	"github.com/randalmurphal/stateflow/pkg/stateflow/observability"
)

// Snapshot is the persistent state of a clock.
type Snapshot struct {
	ClockID event.ID  `json:"clock_id"`
	Time    int64     `json:"time"`
	Rate    Rate      `json:"rate"`
	Running bool      `json:"running"`
	SavedAt time.Time `json:"saved_at"`
}

// Snapshot captures the clock's current state. SavedAt is taken from the
// wall clock.
func (c *Clock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.anchorTime
	if c.running {
		t = c.nowLocked()
	}
	return Snapshot{
		ClockID: c.id,
		Time:    t,
		Rate:    c.rate,
		Running: c.running,
		SavedAt: c.wall.Now().UTC(),
	}
}

// Restore resets the clock to s and notifies subscribers. A running
// snapshot resumes from s.Time as of now; the gap since SavedAt is not
// replayed.
func (c *Clock) Restore(s Snapshot) {
	c.update(func() {
		c.anchorTime = s.Time
		c.anchorWall = c.wall.Now()
		c.rate = s.Rate
		c.running = s.Running
	})
}

// SaveTo writes the current snapshot to store.
func (c *Clock) SaveTo(ctx context.Context, store Store) error {
	if err := store.Save(ctx, c.Snapshot()); err != nil {
		return fmt.Errorf("save clock %s: %w", c.id, err)
	}
	return nil
}

// RestoreFrom loads the clock's snapshot from store and applies it.
// It reports false, without error, when the store has no snapshot.
func (c *Clock) RestoreFrom(ctx context.Context, store Store) (bool, error) {
	s, err := store.Load(ctx, c.id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restore clock %s: %w", c.id, err)
	}
	c.Restore(s)
	return true, nil
}

// PersistOnChange saves a snapshot to store after every change of the
// clock. Save errors are logged, not returned. The returned function stops
// persisting.
func (c *Clock) PersistOnChange(ctx context.Context, store Store, logger *slog.Logger) (cancel func()) {
	return c.Subscribe(func() {
		if err := store.Save(ctx, c.Snapshot()); err != nil {
			observability.LogStoreError(logger, c.name, "save", err)
		}
	})
}
