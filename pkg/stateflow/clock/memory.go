package clock

import (
	"context"
	"slices"
	"sync"

	"github.com/randalmurphal/stateflow/pkg/stateflow/event"
)

// MemoryStore keeps snapshots in memory. Data is lost when the process
// exits.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[event.ID]Snapshot
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[event.ID]Snapshot)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.data[s.ClockID] = s
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id event.ID) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Snapshot{}, ErrStoreClosed
	}
	s, ok := m.data[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return s, nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]event.ID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	ids := make([]event.ID, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id event.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}

func sortIDs(ids []event.ID) {
	slices.Sort(ids)
}
