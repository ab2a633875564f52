//go:build windows
// +build windows

package hotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	"github.com/example/quickcliq/internal/logging"
)

var modifierMap = []struct {
	mod Modifier
	os  hotkey.Modifier
}{
	{ModCtrl, hotkey.ModCtrl},
	{ModShift, hotkey.ModShift},
	{ModAlt, hotkey.ModAlt},
	{ModWin, hotkey.ModWin},
}

type reservation struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
}

// OSBackend reserves bindings through RegisterHotKey.
type OSBackend struct {
	mu     sync.Mutex
	active map[int]reservation
	events chan int
}

// NewOSBackend returns the Windows backend.
func NewOSBackend() *OSBackend {
	return &OSBackend{
		active: make(map[int]reservation),
		events: make(chan int, 8),
	}
}

// Events delivers the id of every pressed hotkey.
func (b *OSBackend) Events() <-chan int {
	return b.events
}

func (b *OSBackend) Register(id int, bind Binding) error {
	if bind.IsMouse() {
		return fmt.Errorf("%s: mouse buttons: %w", bind, ErrUnsupported)
	}

	var mods []hotkey.Modifier
	for _, m := range modifierMap {
		if bind.Modifiers()&m.mod != 0 {
			mods = append(mods, m.os)
		}
	}
	hk := hotkey.New(mods, hotkey.Key(bind.Key()))
	if err := hk.Register(); err != nil {
		return err
	}

	r := reservation{hk: hk, stop: make(chan struct{})}
	b.mu.Lock()
	b.active[id] = r
	b.mu.Unlock()

	go b.forward(id, r)
	return nil
}

func (b *OSBackend) forward(id int, r reservation) {
	for {
		select {
		case <-r.stop:
			return
		case _, ok := <-r.hk.Keydown():
			if !ok {
				return
			}
			logging.Debugf("hotkey: key down for id %d", id)
			select {
			case b.events <- id:
			case <-r.stop:
				return
			}
		}
	}
}

func (b *OSBackend) Unregister(id int) error {
	b.mu.Lock()
	r, ok := b.active[id]
	delete(b.active, id)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	close(r.stop)
	return r.hk.Unregister()
}
