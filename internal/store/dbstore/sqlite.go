// Package dbstore implements store.Store on SQLite. Each collection is
// one row holding the JSON blob and a revision counter; commits are
// guarded updates on the revision, which gives the compare-and-swap the
// store contract requires without table locks.
package dbstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/copysaver/copysaver/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteStore is a SQLite-backed implementation of store.Store
type SQLiteStore struct {
	db     *gorm.DB
	dbPath string
}

// New creates a new SQLite-backed store at the specified path. It
// initializes the database schema and records the schema version.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := db.AutoMigrate(&CollectionModel{}, &MetaModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initMeta(); err != nil {
		return nil, fmt.Errorf("failed to init metadata: %w", err)
	}

	return s, nil
}

// initMeta records the schema version on first open. An existing older
// version is left in place; values are migrated lazily on decode.
func (s *SQLiteStore) initMeta() error {
	var meta MetaModel
	err := s.db.First(&meta, "key = ?", "schema_version").Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(&MetaModel{
		Key:   "schema_version",
		Value: strconv.Itoa(store.SchemaVersion),
	}).Error
}

// Get returns a snapshot of the requested collection keys. Keys with no
// row yet come back with Revision 0 and a nil Value.
func (s *SQLiteStore) Get(ctx context.Context, keys ...string) (store.Snapshot, error) {
	var models []CollectionModel
	err := s.db.WithContext(ctx).
		Where("key IN ?", keys).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read collections: %w", err)
	}

	snap := make(store.Snapshot, len(keys))
	for _, key := range keys {
		snap[key] = store.Entry{}
	}
	for _, m := range models {
		snap[m.Key] = store.Entry{
			Value:    append([]byte(nil), m.Value...),
			Revision: m.Revision,
		}
	}
	return snap, nil
}

// Set commits the snapshot's entries in one transaction. First writes
// (Revision 0) insert; later writes update guarded on the stored
// revision. A key whose revision moved reports store.ErrConflict and
// rolls back every entry, so a conflicted snapshot never lands
// partially.
func (s *SQLiteStore) Set(ctx context.Context, snap store.Snapshot) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, entry := range snap {
			if entry.Revision == 0 {
				model := &CollectionModel{
					Key:      key,
					Value:    append([]byte(nil), entry.Value...),
					Revision: 1,
				}
				if err := tx.Create(model).Error; err != nil {
					// A duplicate key means another writer created
					// the row after our snapshot was taken.
					if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
						return fmt.Errorf("key %q was created concurrently: %w",
							key, store.ErrConflict)
					}
					return fmt.Errorf("failed to create collection %q: %w", key, err)
				}
				continue
			}

			result := tx.Model(&CollectionModel{}).
				Where("key = ? AND revision = ?", key, entry.Revision).
				Updates(map[string]any{
					"value":    append([]byte(nil), entry.Value...),
					"revision": entry.Revision + 1,
				})
			if result.Error != nil {
				return fmt.Errorf("failed to update collection %q: %w", key, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("key %q moved past revision %d: %w",
					key, entry.Revision, store.ErrConflict)
			}
		}
		return nil
	})
}

// isUniqueViolation recognizes SQLite's unique-constraint error text,
// which the sqlite driver does not always translate to
// gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var meta MetaModel
	if err := s.db.First(&meta, "key = ?", "schema_version").Error; err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	version, err := strconv.Atoi(meta.Value)
	if err != nil {
		return 0, fmt.Errorf("invalid schema version %q: %w", meta.Value, err)
	}
	return version, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
