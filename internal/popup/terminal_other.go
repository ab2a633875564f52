//go:build !windows
// +build !windows

package popup

// attachTerminal is a no-op; the finder opens the controlling terminal.
func attachTerminal() (func(), error) {
	return func() {}, nil
}
