// Package mockboard provides a mock clipboard implementation for testing.
package mockboard

import (
	"context"
	"sync"
)

// MockClipboard implements clipboard.Clipboard for testing. Writes and
// emitted changes are recorded in memory.
type MockClipboard struct {
	mu       sync.Mutex
	text     string
	watchers []chan string
}

// New creates a new MockClipboard instance.
func New() *MockClipboard {
	return &MockClipboard{}
}

// Read returns the current mock clipboard text.
func (m *MockClipboard) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// Write sets the mock clipboard text without notifying watchers, like a
// programmatic write the watcher should not re-capture.
func (m *MockClipboard) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

// Watch returns a channel fed by Emit. The channel closes when the
// context is cancelled.
func (m *MockClipboard) Watch(ctx context.Context) <-chan string {
	ch := make(chan string, 16)

	m.mu.Lock()
	m.watchers = append(m.watchers, ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, w := range m.watchers {
			if w == ch {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				close(ch)
				break
			}
		}
	}()
	return ch
}

// Emit simulates an external copy: it updates the text and notifies all
// watchers.
func (m *MockClipboard) Emit(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	for _, w := range m.watchers {
		select {
		case w <- text:
		default:
		}
	}
}

// IsSupported always returns true for the mock clipboard.
func (m *MockClipboard) IsSupported() bool {
	return true
}
