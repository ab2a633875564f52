package hotkey

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/example/quickcliq/internal/logging"
)

// DefaultMain is the main menu hotkey used when none is configured.
const DefaultMain = "^!Z"

var (
	ErrNotRegistered = errors.New("hotkey: not registered")
	// ErrUnsupported is returned by backends that cannot reserve a binding.
	ErrUnsupported = errors.New("hotkey: not supported")
)

// Backend reserves bindings with the operating system. Key presses are
// delivered by the backend as registration ids, which the host passes to
// Manager.Dispatch on its own loop.
type Backend interface {
	Register(id int, b Binding) error
	Unregister(id int) error
}

// Registration is a snapshot of one registered hotkey.
type Registration struct {
	ID      int
	Hotkey  string
	Binding Binding
	Enabled bool
	// Active reports whether the OS reservation is currently held.
	Active bool
}

type entry struct {
	Registration
	callback func()
}

// Manager is the sole owner of the process's hotkey reservations.
type Manager struct {
	mu         sync.Mutex
	backend    Backend
	nextID     int
	byHotkey   map[string]*entry
	byID       map[int]*entry
	allEnabled bool
}

// NewManager returns a Manager reserving bindings through backend.
func NewManager(backend Backend) *Manager {
	return &Manager{
		backend:    backend,
		byHotkey:   make(map[string]*entry),
		byID:       make(map[int]*entry),
		allEnabled: true,
	}
}

// Register binds hotkey to callback. An existing registration of the same
// binding is released first. A refusal by the OS is returned and not retried.
func (m *Manager) Register(hotkey string, callback func()) (int, error) {
	b, err := Parse(hotkey)
	if err != nil {
		return 0, err
	}
	key := b.String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byHotkey[key]; ok {
		if err := m.release(existing); err != nil {
			log.Printf("hotkey: release %s before re-register: %v", key, err)
		}
		delete(m.byHotkey, key)
		delete(m.byID, existing.ID)
	}

	m.nextID++
	e := &entry{
		Registration: Registration{ID: m.nextID, Hotkey: key, Binding: b, Enabled: true},
		callback:     callback,
	}
	if m.allEnabled {
		if err := m.backend.Register(e.ID, b); err != nil {
			return 0, fmt.Errorf("hotkey: register %s: %w", key, err)
		}
		e.Active = true
	}
	m.byHotkey[key] = e
	m.byID[e.ID] = e
	logging.Debugf("hotkey: registered %s as id %d", key, e.ID)
	return e.ID, nil
}

// Unregister releases hotkey and forgets its callback.
func (m *Manager) Unregister(hotkey string) error {
	key, err := canonical(hotkey)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byHotkey[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	delete(m.byHotkey, key)
	delete(m.byID, e.ID)
	return m.release(e)
}

// SetEnabled toggles a single registration while keeping its callback.
func (m *Manager) SetEnabled(hotkey string, enabled bool) error {
	key, err := canonical(hotkey)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.byHotkey[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	e.Enabled = enabled
	return m.sync(e)
}

// SetAllEnabled releases or restores every reservation without losing the
// registered callbacks.
func (m *Manager) SetAllEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allEnabled = enabled
	var errs error
	for _, e := range m.sorted() {
		errs = multierr.Append(errs, m.sync(e))
	}
	logging.Debugf("hotkey: all hotkeys enabled=%t", enabled)
	return errs
}

// Enabled reports the global enabled flag.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allEnabled
}

// Dispatch runs the callback registered under id on the calling goroutine.
// It reports whether a callback ran.
func (m *Manager) Dispatch(id int) bool {
	m.mu.Lock()
	e, ok := m.byID[id]
	fire := ok && m.allEnabled && e.Enabled && e.callback != nil
	var cb func()
	if fire {
		cb = e.callback
	}
	m.mu.Unlock()

	if !fire {
		logging.Debugf("hotkey: ignoring notification for id %d", id)
		return false
	}
	cb()
	return true
}

// Registrations returns the current registrations ordered by id.
func (m *Manager) Registrations() []Registration {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Registration, 0, len(m.byID))
	for _, e := range m.sorted() {
		out = append(out, e.Registration)
	}
	return out
}

// Close releases every reservation.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	for _, e := range m.sorted() {
		errs = multierr.Append(errs, m.release(e))
	}
	m.byHotkey = make(map[string]*entry)
	m.byID = make(map[int]*entry)
	return errs
}

// sync makes the OS reservation of e match its enabled flags.
func (m *Manager) sync(e *entry) error {
	want := m.allEnabled && e.Enabled
	switch {
	case want && !e.Active:
		if err := m.backend.Register(e.ID, e.Binding); err != nil {
			return fmt.Errorf("hotkey: register %s: %w", e.Hotkey, err)
		}
		e.Active = true
	case !want && e.Active:
		return m.release(e)
	}
	return nil
}

func (m *Manager) release(e *entry) error {
	if !e.Active {
		return nil
	}
	e.Active = false
	if err := m.backend.Unregister(e.ID); err != nil {
		return fmt.Errorf("hotkey: unregister %s: %w", e.Hotkey, err)
	}
	return nil
}

func (m *Manager) sorted() []*entry {
	out := make([]*entry, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func canonical(hotkey string) (string, error) {
	b, err := Parse(hotkey)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
