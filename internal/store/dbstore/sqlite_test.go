package dbstore

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/copysaver/copysaver/internal/store"
)

// newTestStore creates a store backed by a temp database.
func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

// TestNew_InitializesSchema tests database creation and version stamp.
func TestNew_InitializesSchema(t *testing.T) {
	s, _ := newTestStore(t)

	version, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error: %v", err)
	}
	if version != store.SchemaVersion {
		t.Errorf("SchemaVersion() = %d, want %d", version, store.SchemaVersion)
	}
}

// TestSetGet_RoundTrip tests writing and reading both collections.
func TestSetGet_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	err := s.Set(ctx, store.Snapshot{
		store.KeyHistory:    {Value: json.RawMessage(`[{"id":"a"}]`), Revision: 0},
		store.KeyCategories: {Value: json.RawMessage(`[]`), Revision: 0},
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	snap, err := s.Get(ctx, store.KeyHistory, store.KeyCategories)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(snap[store.KeyHistory].Value) != `[{"id":"a"}]` {
		t.Errorf("history Value = %s", snap[store.KeyHistory].Value)
	}
	if snap[store.KeyHistory].Revision != 1 {
		t.Errorf("history Revision = %d, want 1", snap[store.KeyHistory].Revision)
	}
	if snap[store.KeyCategories].Revision != 1 {
		t.Errorf("categories Revision = %d, want 1", snap[store.KeyCategories].Revision)
	}
}

// TestGet_UnwrittenKey tests that a missing row reads as revision 0.
func TestGet_UnwrittenKey(t *testing.T) {
	s, _ := newTestStore(t)

	snap, err := s.Get(context.Background(), store.KeyHistory)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if snap[store.KeyHistory].Revision != 0 {
		t.Errorf("Revision = %d, want 0", snap[store.KeyHistory].Revision)
	}
	if snap[store.KeyHistory].Value != nil {
		t.Errorf("Value = %s, want nil", snap[store.KeyHistory].Value)
	}
}

// TestSet_StaleRevisionConflicts tests the CAS guard on updates.
func TestSet_StaleRevisionConflicts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`["a"]`), Revision: 0},
	}); err != nil {
		t.Fatalf("first Set() error: %v", err)
	}
	if err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`["a","b"]`), Revision: 1},
	}); err != nil {
		t.Fatalf("second Set() error: %v", err)
	}

	err := s.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`["a","c"]`), Revision: 1},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale Set() error = %v, want ErrConflict", err)
	}
}

// TestSet_ConcurrentCreateConflicts tests the CAS guard on first writes.
func TestSet_ConcurrentCreateConflicts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, store.Snapshot{
		store.KeyCategories: {Value: json.RawMessage(`[]`), Revision: 0},
	}); err != nil {
		t.Fatalf("first create error: %v", err)
	}

	err := s.Set(ctx, store.Snapshot{
		store.KeyCategories: {Value: json.RawMessage(`[]`), Revision: 0},
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second create error = %v, want ErrConflict", err)
	}
}

// TestSet_ConflictRollsBackAllKeys tests that a multi-key commit is
// all-or-nothing: when any key's revision is stale, no key is written.
// Several rounds cover both possible write orders over the two keys.
func TestSet_ConflictRollsBackAllKeys(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, store.Snapshot{
		store.KeyHistory:    {Value: json.RawMessage(`["h1"]`), Revision: 0},
		store.KeyCategories: {Value: json.RawMessage(`["c1"]`), Revision: 0},
	}); err != nil {
		t.Fatalf("seed Set() error: %v", err)
	}

	for round := 0; round < 8; round++ {
		snap, err := s.Get(ctx, store.KeyHistory, store.KeyCategories)
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}

		// Another writer advances categories behind the snapshot's back.
		if err := s.Set(ctx, store.Snapshot{
			store.KeyCategories: {
				Value:    json.RawMessage(`["c-advanced"]`),
				Revision: snap[store.KeyCategories].Revision,
			},
		}); err != nil {
			t.Fatalf("interleaved Set() error: %v", err)
		}

		err = s.Set(ctx, store.Snapshot{
			store.KeyHistory: {
				Value:    json.RawMessage(`["h2"]`),
				Revision: snap[store.KeyHistory].Revision,
			},
			store.KeyCategories: {
				Value:    json.RawMessage(`["c2"]`),
				Revision: snap[store.KeyCategories].Revision,
			},
		})
		if !errors.Is(err, store.ErrConflict) {
			t.Fatalf("stale Set() error = %v, want ErrConflict", err)
		}

		after, err := s.Get(ctx, store.KeyHistory, store.KeyCategories)
		if err != nil {
			t.Fatalf("Get() after conflict error: %v", err)
		}
		if string(after[store.KeyHistory].Value) != `["h1"]` {
			t.Fatalf("round %d: history = %s after conflicted Set, want [\"h1\"]",
				round, after[store.KeyHistory].Value)
		}
		if after[store.KeyHistory].Revision != snap[store.KeyHistory].Revision {
			t.Fatalf("round %d: history Revision = %d, want %d",
				round, after[store.KeyHistory].Revision, snap[store.KeyHistory].Revision)
		}
		if string(after[store.KeyCategories].Value) != `["c-advanced"]` {
			t.Fatalf("round %d: categories = %s, want the interleaved write kept",
				round, after[store.KeyCategories].Value)
		}
	}
}

// TestPersistence_AcrossReopen tests that collections and revisions
// survive closing and reopening the database.
func TestPersistence_AcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s1, err := New(dbPath)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := s1.Set(ctx, store.Snapshot{
		store.KeyHistory: {Value: json.RawMessage(`["persisted"]`), Revision: 0},
	}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	s2, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen New() error: %v", err)
	}
	defer s2.Close()

	snap, err := s2.Get(ctx, store.KeyHistory)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(snap[store.KeyHistory].Value) != `["persisted"]` {
		t.Errorf("Value = %s, want [\"persisted\"]", snap[store.KeyHistory].Value)
	}
	if snap[store.KeyHistory].Revision != 1 {
		t.Errorf("Revision = %d, want 1", snap[store.KeyHistory].Revision)
	}
}
