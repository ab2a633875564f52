//go:build !windows
// +build !windows

package hotkey

import "fmt"

// OSBackend refuses every binding; global hotkeys are only reserved on
// Windows.
type OSBackend struct {
	events chan int
}

// NewOSBackend returns the stub backend.
func NewOSBackend() *OSBackend {
	return &OSBackend{events: make(chan int)}
}

// Events never delivers.
func (b *OSBackend) Events() <-chan int {
	return b.events
}

func (b *OSBackend) Register(_ int, bind Binding) error {
	return fmt.Errorf("%s: %w", bind, ErrUnsupported)
}

func (b *OSBackend) Unregister(int) error {
	return nil
}
