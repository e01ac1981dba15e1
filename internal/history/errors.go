package history

import "errors"

var (
	// ErrEmptyCapture is returned when a copy event carries no text
	// after trimming. It is a rejection, not a failure: no record is
	// created and nothing else changes.
	ErrEmptyCapture = errors.New("history: empty capture")

	// ErrAtCapacity is returned when a capture would push the history
	// past the configured ceiling. The record is not persisted and a
	// notification event is emitted for the attempt.
	ErrAtCapacity = errors.New("history: at capacity")

	// ErrDuplicateCategory is returned when a category creation
	// collides with an existing name (trimmed, case-insensitive).
	// The wrapping message carries the conflicting name.
	ErrDuplicateCategory = errors.New("history: duplicate category")

	// ErrEmptyLabel is returned by AssignLabel for a blank label.
	ErrEmptyLabel = errors.New("history: empty label")

	// ErrEmptyCategoryName is returned when a category operation is
	// given a blank name.
	ErrEmptyCategoryName = errors.New("history: empty category name")
)
