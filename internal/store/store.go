// Package store defines the storage contract for copysaver's persistence
// layer. History and categories live in a key-value store as two named
// collections; callers read whole collections, transform them in memory,
// and write them back. Each key carries a revision counter so concurrent
// writers are detected instead of silently overwriting each other.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection keys. These match the on-disk layout: the whole record list
// lives under KeyHistory and the category list under KeyCategories.
const (
	KeyHistory    = "clipboardHistory"
	KeyCategories = "categories"
)

// ErrConflict is returned by Set when a key's revision has moved since the
// snapshot was read. The caller should re-read and retry.
var ErrConflict = errors.New("store: revision conflict")

// Entry is one versioned collection value.
type Entry struct {
	// Value is the raw JSON-encoded collection. Nil for keys that have
	// never been written.
	Value json.RawMessage

	// Revision counts committed writes to this key, starting at 1 for
	// the first write. Revision 0 asserts the key has never been
	// written.
	Revision int64
}

// Snapshot is a partial view of the store: the requested keys with the
// revisions they had at read time. Writing a snapshot back commits each
// entry only if its revision still matches.
type Snapshot map[string]Entry

// Store is an asynchronous key-value store with per-key optimistic
// versioning. There are no multi-key transactions; a caller that reads a
// collection, transforms it, and writes it back must do so against a
// fresh snapshot and retry on conflict.
type Store interface {
	// Get returns a snapshot of the requested keys. Keys that have
	// never been written come back with Revision 0 and a nil Value
	// rather than an error, so first writes can be checked against
	// "absent" like any other revision.
	Get(ctx context.Context, keys ...string) (Snapshot, error)

	// Set commits the snapshot's entries. For each entry the stored
	// revision must equal the snapshot's revision; on success the
	// stored revision is incremented. Returns ErrConflict if any key
	// has moved since the snapshot was taken.
	Set(ctx context.Context, snap Snapshot) error

	// Close releases any resources (DB connections etc.).
	Close() error
}
