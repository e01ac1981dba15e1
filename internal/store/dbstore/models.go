package dbstore

import (
	"time"
)

// CollectionModel represents one named collection in the database. The
// collection value is stored as a single JSON blob alongside its
// revision counter; the revision is what Set compares against.
type CollectionModel struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     []byte    `gorm:"type:blob;not null"`
	Revision  int64     `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for CollectionModel
func (CollectionModel) TableName() string {
	return "collections"
}

// MetaModel represents a metadata key-value pair, currently only the
// schema version.
type MetaModel struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for MetaModel
func (MetaModel) TableName() string {
	return "meta"
}
