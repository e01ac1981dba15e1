package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/copysaver/copysaver/internal/store"
)

// TestGet_UnwrittenKey tests that unwritten keys come back with
// revision 0 and no value instead of an error.
func TestGet_UnwrittenKey(t *testing.T) {
	s := New()
	defer s.Close()

	snap, err := s.Get(context.Background(), store.KeyHistory)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	entry := snap[store.KeyHistory]
	if entry.Revision != 0 {
		t.Errorf("Revision = %d, want 0", entry.Revision)
	}
	if entry.Value != nil {
		t.Errorf("Value = %s, want nil", entry.Value)
	}
}

// TestSet_FirstWrite tests the initial write at revision 0.
func TestSet_FirstWrite(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`[]`), Revision: 0},
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	snap, err := s.Get(ctx, store.KeyHistory)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if snap[store.KeyHistory].Revision != 1 {
		t.Errorf("Revision = %d, want 1", snap[store.KeyHistory].Revision)
	}
	if string(snap[store.KeyHistory].Value) != `[]` {
		t.Errorf("Value = %s, want []", snap[store.KeyHistory].Value)
	}
}

// TestSet_StaleRevisionConflicts tests that a writer holding an old
// snapshot is rejected with ErrConflict.
func TestSet_StaleRevisionConflicts(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`["a"]`), Revision: 0},
	}); err != nil {
		t.Fatalf("initial Set() error: %v", err)
	}

	// Writer B commits on top.
	if err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`["a","b"]`), Revision: 1},
	}); err != nil {
		t.Fatalf("second Set() error: %v", err)
	}

	// Writer A still holds revision 1 and must be rejected.
	err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`["a","c"]`), Revision: 1},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("Set() error = %v, want ErrConflict", err)
	}

	// B's write survived.
	snap, err := s.Get(ctx, store.KeyHistory)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(snap[store.KeyHistory].Value) != `["a","b"]` {
		t.Errorf("Value = %s, want [\"a\",\"b\"]", snap[store.KeyHistory].Value)
	}
}

// TestSet_ConflictOnConcurrentCreate tests the revision-0 vs revision-0
// race: the second creator conflicts.
func TestSet_ConflictOnConcurrentCreate(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, store.Snapshot{
		store.KeyCategories: {Value: json.RawMessage(`[]`), Revision: 0},
	}); err != nil {
		t.Fatalf("first create error: %v", err)
	}

	err := s.Set(ctx, store.Snapshot{
		store.KeyCategories: {Value: json.RawMessage(`[{"id":"x"}]`), Revision: 0},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second create error = %v, want ErrConflict", err)
	}
}

// TestGet_ValueIsolation tests that mutating a snapshot value does not
// corrupt stored data.
func TestGet_ValueIsolation(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`[1,2]`), Revision: 0},
	}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	snap, _ := s.Get(ctx, store.KeyHistory)
	snap[store.KeyHistory].Value[1] = 'X'

	again, _ := s.Get(ctx, store.KeyHistory)
	if string(again[store.KeyHistory].Value) != `[1,2]` {
		t.Errorf("stored value mutated through snapshot: %s", again[store.KeyHistory].Value)
	}
}

// TestSet_MultiKey tests that a snapshot covering both collections
// commits atomically in the memory store.
func TestSet_MultiKey(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	err := s.Set(ctx, store.Snapshot{
		store.KeyHistory:    {Value: json.RawMessage(`[]`), Revision: 0},
		store.KeyCategories: {Value: json.RawMessage(`[]`), Revision: 0},
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	snap, err := s.Get(ctx, store.KeyHistory, store.KeyCategories)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	for _, key := range []string{store.KeyHistory, store.KeyCategories} {
		if snap[key].Revision != 1 {
			t.Errorf("%s Revision = %d, want 1", key, snap[key].Revision)
		}
	}
}

// TestSet_ConcurrentWriters tests that exactly one of N racing writers
// wins each revision; the rest observe conflicts rather than silently
// losing data.
func TestSet_ConcurrentWriters(t *testing.T) {
	s := New()
	defer s.Close()
	ctx := context.Background()

	if err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`[]`), Revision: 0},
	}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Set(ctx, store.Snapshot{
				store.KeyHistory: {Value: json.RawMessage(`[0]`), Revision: 1},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if errors.Is(err, store.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want exactly 1", wins)
	}
	if conflicts != writers-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, writers-1)
	}
}

// TestCanceledContext tests that a cancelled context aborts both reads
// and writes.
func TestCanceledContext(t *testing.T) {
	s := New()
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Get(ctx, store.KeyHistory); err == nil {
		t.Error("Get() with cancelled context succeeded")
	}
	if err := s.Set(ctx, store.Snapshot{}); err == nil {
		t.Error("Set() with cancelled context succeeded")
	}
}
