// Package tray shows the notification area icon with the application
// actions and a mirror of the main menu.
package tray

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/example/quickcliq/internal/executor"
	"github.com/example/quickcliq/internal/logging"
	"github.com/example/quickcliq/internal/menu"
)

const defaultTooltip = "QuickCliq"

// ErrUnavailable is returned by Run on builds without a tray implementation.
var ErrUnavailable = errors.New("tray: system tray is unavailable without cgo support")

// Host is the running instance as seen from the tray.
type Host interface {
	ShowMainMenu()
	ToggleSuspend()
	OpenEditor()
	Reload()
	RunItem(id int, mods executor.Modifiers)
}

// entry is one rendered line of the menu mirror.
type entry struct {
	Label    string
	Tooltip  string
	ItemID   int
	Sep      bool
	Disabled bool
	Children []entry
}

func (e entry) isSubmenu() bool { return e.Children != nil }

// state is what the tray renders.
type state struct {
	Entries   []entry
	Suspended bool
}

type controller interface {
	Run(ctx context.Context, updates <-chan state) error
}

// Tray drives the notification area icon.
type Tray struct {
	host      Host
	icon      []byte
	tooltip   string
	modifiers func() executor.Modifiers
	onExit    func()

	mu      sync.RWMutex
	last    state
	updates chan state

	ctrl controller
}

// Option customises a Tray.
type Option func(*Tray)

// WithModifiers sets the keyboard state reader used for mirror clicks.
func WithModifiers(fn func() executor.Modifiers) Option {
	return func(t *Tray) { t.modifiers = fn }
}

// WithExit sets the callback of the Exit action.
func WithExit(fn func()) Option {
	return func(t *Tray) { t.onExit = fn }
}

// WithTooltip overrides the icon tooltip.
func WithTooltip(s string) Option {
	return func(t *Tray) { t.tooltip = s }
}

// New returns a Tray for host. A nil icon selects the stock icon.
func New(host Host, icon []byte, opts ...Option) *Tray {
	t := &Tray{
		host:    host,
		icon:    icon,
		tooltip: defaultTooltip,
		updates: make(chan state, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	if len(t.icon) == 0 {
		t.icon = normalizedIcon(nil)
	}
	if t.modifiers == nil {
		t.modifiers = func() executor.Modifiers { return executor.Modifiers{} }
	}
	if t.onExit == nil {
		t.onExit = func() {}
	}
	t.ctrl = newController(t)
	return t
}

// Run shows the icon and blocks until ctx is done or the user exits.
func (t *Tray) Run(ctx context.Context) error {
	return t.ctrl.Run(ctx, t.updates)
}

// Publish replaces the mirrored menu. Only the newest pending tree is kept.
func (t *Tray) Publish(tree *menu.Tree) {
	if tree == nil {
		return
	}
	st := state{Entries: mirror(tree.Root), Suspended: tree.Suspended}

	t.mu.Lock()
	t.last = st
	t.mu.Unlock()

	select {
	case t.updates <- st:
	default:
		select {
		case <-t.updates:
		default:
		}
		select {
		case t.updates <- st:
		default:
		}
	}
	logging.Debugf("tray: published %d top-level entries", len(st.Entries))
}

func (t *Tray) latest() state {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// click runs the configured item behind a mirror entry.
func (t *Tray) click(e entry) {
	if e.ItemID <= 0 || e.Disabled {
		return
	}
	t.host.RunItem(e.ItemID, t.modifiers())
}

// mirror converts a built submenu into tray entries. System entries are
// left out because the tray has its own actions for them.
func mirror(sub *menu.Submenu) []entry {
	if sub == nil {
		return nil
	}
	out := make([]entry, 0, len(sub.Items))
	for _, item := range sub.Items {
		switch {
		case item.Uid == menu.EditorUID || item.Uid == menu.SuspendUID:
			continue
		case item.Separator:
			out = append(out, entry{Sep: true})
		case item.Submenu != nil:
			children := mirror(item.Submenu)
			if children == nil {
				children = []entry{}
			}
			out = append(out, entry{Label: item.Name, Children: children})
		default:
			e := entry{Label: item.Name, Disabled: item.Disabled}
			if src := item.Source(); src != nil {
				e.ItemID = src.ID
			}
			if item.Hotkey != "" {
				e.Tooltip = item.Hotkey
			}
			out = append(out, e)
		}
	}
	// A trailing separator is left by the skipped system entries.
	for len(out) > 0 && out[len(out)-1].Sep {
		out = out[:len(out)-1]
	}
	return out
}

func (e entry) String() string {
	if e.Sep {
		return "-"
	}
	if e.ItemID > 0 {
		return e.Label + "#" + strconv.Itoa(e.ItemID)
	}
	return e.Label
}
