// Package memstore provides an in-memory implementation of the store
// interfaces. This implementation is designed for fast unit testing and
// does not persist data.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/copysaver/copysaver/internal/store"
)

// MemoryStore is an in-memory implementation of store.Store. It uses a
// map guarded by a mutex and enforces the same revision semantics as the
// SQLite-backed store. Data exists only for the lifetime of the process.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]store.Entry
}

// New creates a new in-memory store for testing.
func New() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]store.Entry),
	}
}

// Get returns a snapshot of the requested keys. Unwritten keys come back
// with Revision 0 and a nil Value.
func (m *MemoryStore) Get(ctx context.Context, keys ...string) (store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := make(store.Snapshot, len(keys))
	for _, key := range keys {
		entry, ok := m.entries[key]
		if !ok {
			snap[key] = store.Entry{}
			continue
		}
		// Copy the value so callers cannot alias stored bytes.
		value := append([]byte(nil), entry.Value...)
		snap[key] = store.Entry{Value: value, Revision: entry.Revision}
	}
	return snap, nil
}

// Set commits the snapshot's entries, checking each key's revision.
func (m *MemoryStore) Set(ctx context.Context, snap store.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Check every revision before writing anything; the memory store
	// can afford all-or-nothing even though the contract does not
	// promise it.
	for key, entry := range snap {
		current := m.entries[key].Revision
		if current != entry.Revision {
			return fmt.Errorf("key %q at revision %d, snapshot has %d: %w",
				key, current, entry.Revision, store.ErrConflict)
		}
	}

	for key, entry := range snap {
		m.entries[key] = store.Entry{
			Value:    append([]byte(nil), entry.Value...),
			Revision: entry.Revision + 1,
		}
	}
	return nil
}

// Close releases resources (no-op for memory store).
func (m *MemoryStore) Close() error {
	return nil
}
