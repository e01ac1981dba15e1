// Package sysboard implements clipboard access on the system clipboard
// via golang.design/x/clipboard, which talks to the platform clipboard
// directly and supports change notification.
package sysboard

import (
	"context"
	"sync"

	xclipboard "golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// SystemClipboard implements clipboard.Clipboard on the real system
// clipboard.
type SystemClipboard struct{}

// New creates a new SystemClipboard instance.
func New() *SystemClipboard {
	return &SystemClipboard{}
}

// ensureInit initializes the underlying clipboard library once per
// process.
func ensureInit() error {
	initOnce.Do(func() {
		initErr = xclipboard.Init()
	})
	return initErr
}

// IsSupported reports whether the system clipboard is reachable.
func (s *SystemClipboard) IsSupported() bool {
	return ensureInit() == nil
}

// Read returns the current clipboard text.
func (s *SystemClipboard) Read() (string, error) {
	if err := ensureInit(); err != nil {
		return "", err
	}
	return string(xclipboard.Read(xclipboard.FmtText)), nil
}

// Write replaces the clipboard text.
func (s *SystemClipboard) Write(text string) error {
	if err := ensureInit(); err != nil {
		return err
	}
	xclipboard.Write(xclipboard.FmtText, []byte(text))
	return nil
}

// Watch emits the clipboard text on every change until ctx is
// cancelled.
func (s *SystemClipboard) Watch(ctx context.Context) <-chan string {
	out := make(chan string)
	if err := ensureInit(); err != nil {
		close(out)
		return out
	}

	changes := xclipboard.Watch(ctx, xclipboard.FmtText)
	go func() {
		defer close(out)
		for data := range changes {
			select {
			case out <- string(data):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
