package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the current on-disk record schema. Version 1 stored
// the capture context under a "website" key and carried a per-record
// "expirationDate"; see MigrateHistory.
const SchemaVersion = 2

// Record is a single captured clipboard entry.
type Record struct {
	// ID is an opaque unique identifier assigned at capture time.
	ID string `json:"id"`

	// Text is the captured string. Never edited after capture.
	Text string `json:"text"`

	// Label is the user-editable display string. Defaults to Text.
	Label string `json:"label"`

	// Timestamp is the capture time, used for ordering and grouping.
	Timestamp time.Time `json:"timestamp"`

	// Pinned marks the record for prioritized display. Set directly by
	// the user or implied by saving to a category.
	Pinned bool `json:"pinned"`

	// Trashed soft-deletes the record: it is excluded from default
	// views but stays in the store until restored or deleted.
	Trashed bool `json:"isTrashed"`

	// Category is a denormalized copy of the category the record was
	// saved under, or nil for uncategorized.
	Category *Category `json:"category"`

	// Source is the capture context of the originating page.
	Source Source `json:"source"`
}

// Category is a user-defined named bucket records can be saved under.
// Name uniqueness is case-insensitive on the trimmed form.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Source is the denormalized page context captured alongside the text.
type Source struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	URL      string `json:"url"`
	Favicon  string `json:"favicon"`
}

// EncodeRecords marshals a record list for storage under KeyHistory.
func EncodeRecords(records []Record) (json.RawMessage, error) {
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return raw, nil
}

// DecodeRecords unmarshals the KeyHistory collection, applying the
// schema migration. A nil value decodes to an empty list.
func DecodeRecords(raw json.RawMessage) ([]Record, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	migrated, err := MigrateHistory(raw)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(migrated, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, nil
}

// EncodeCategories marshals a category list for storage under
// KeyCategories.
func EncodeCategories(categories []Category) (json.RawMessage, error) {
	raw, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("failed to encode categories: %w", err)
	}
	return raw, nil
}

// DecodeCategories unmarshals the KeyCategories collection. A nil value
// decodes to an empty list.
func DecodeCategories(raw json.RawMessage) ([]Category, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var categories []Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	return categories, nil
}

// MigrateHistory rewrites a stored history collection to the current
// schema. Version 1 records named the source block "website" and carried
// an "expirationDate" TTL that no longer exists; labels were sometimes
// absent. The migration is idempotent: current-schema input passes
// through unchanged.
func MigrateHistory(raw json.RawMessage) (json.RawMessage, error) {
	var generic []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to decode stored history: %w", err)
	}

	changed := false
	for _, rec := range generic {
		if website, ok := rec["website"]; ok {
			if _, hasSource := rec["source"]; !hasSource {
				rec["source"] = website
			}
			delete(rec, "website")
			changed = true
		}
		if _, ok := rec["expirationDate"]; ok {
			delete(rec, "expirationDate")
			changed = true
		}
		if label, ok := rec["label"]; !ok || string(label) == `""` || string(label) == "null" {
			if text, hasText := rec["text"]; hasText {
				rec["label"] = text
				changed = true
			}
		}
	}

	if !changed {
		return raw, nil
	}

	migrated, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode migrated history: %w", err)
	}
	return migrated, nil
}
