// Package clipboard abstracts system clipboard access so the history
// service and its surfaces can be tested without a display server.
package clipboard

import "context"

// Clipboard provides read/write access to a text clipboard and a watch
// channel for observing changes.
type Clipboard interface {
	// Read returns the current clipboard text.
	Read() (string, error)

	// Write replaces the clipboard text.
	Write(text string) error

	// Watch emits the clipboard text each time it changes, until the
	// context is cancelled. The channel is closed on cancellation.
	Watch(ctx context.Context) <-chan string

	// IsSupported reports whether clipboard access works on this
	// system.
	IsSupported() bool
}
