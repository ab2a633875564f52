// Package autostart starts the application at logon through the per-user
// Run key.
package autostart

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/example/quickcliq/internal/pathutil"
)

const valueName = "QuickCliq"

// ErrUnsupported is returned where no logon startup mechanism exists.
var ErrUnsupported = errors.New("autostart: not supported on this platform")

// runKey is the storage of logon commands by name.
type runKey interface {
	Get(name string) (string, bool, error)
	Set(name, value string) error
	Delete(name string) error
}

// Manager toggles the logon entry of one executable.
type Manager struct {
	key  runKey
	name string
	exe  string
}

// New returns a Manager for the running executable.
func New() (*Manager, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("autostart: resolve executable: %w", err)
	}
	return &Manager{key: platformKey(), name: valueName, exe: exe}, nil
}

// Command is the value stored for the executable.
func (m *Manager) Command() string {
	return pathutil.Quote(m.exe)
}

// Enabled reports whether the entry points at this executable.
func (m *Manager) Enabled() (bool, error) {
	v, ok, err := m.key.Get(m.name)
	if err != nil {
		return false, err
	}
	return ok && v == m.Command(), nil
}

// Enable stores the entry.
func (m *Manager) Enable() error {
	if err := m.key.Set(m.name, m.Command()); err != nil {
		return fmt.Errorf("autostart: enable: %w", err)
	}
	log.Printf("autostart: enabled %s", m.Command())
	return nil
}

// Disable removes the entry. A missing entry is not an error.
func (m *Manager) Disable() error {
	if err := m.key.Delete(m.name); err != nil {
		return fmt.Errorf("autostart: disable: %w", err)
	}
	log.Printf("autostart: disabled")
	return nil
}

// Sync makes the entry match want, touching the key only on a difference.
func (m *Manager) Sync(want bool) error {
	have, err := m.Enabled()
	if err != nil {
		return err
	}
	switch {
	case want && !have:
		return m.Enable()
	case !want && have:
		return m.Disable()
	}
	return nil
}
