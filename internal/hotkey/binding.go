// Package hotkey parses hotkey strings and owns the process-wide table of
// global hotkey reservations.
//
// A hotkey string is any combination of the modifier prefixes # (Win),
// ^ (Ctrl), ! (Alt) and + (Shift) followed by a key token: a single letter or
// digit, a named key such as SPACE or PGUP, F1-F12, or a mouse button name.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// Modifier is a Win32 hotkey modifier bitmask.
type Modifier uint32

const (
	ModAlt   Modifier = 0x1
	ModCtrl  Modifier = 0x2
	ModShift Modifier = 0x4
	ModWin   Modifier = 0x8
)

// VKey is a Win32 virtual-key code.
type VKey uint32

const (
	vkLButton  VKey = 0x01
	vkRButton  VKey = 0x02
	vkMButton  VKey = 0x04
	vkXButton1 VKey = 0x05
	vkXButton2 VKey = 0x06
)

var (
	ErrEmpty      = errors.New("hotkey: empty hotkey string")
	ErrUnknownKey = errors.New("hotkey: unknown key")
)

// modifierOrder is the canonical prefix order used by String.
var modifierOrder = []struct {
	symbol byte
	mod    Modifier
	label  string
}{
	{'#', ModWin, "Win"},
	{'^', ModCtrl, "Ctrl"},
	{'!', ModAlt, "Alt"},
	{'+', ModShift, "Shift"},
}

// keyNames maps every accepted key token to its code. The first name listed
// for a code in canonicalNames is the one String emits.
var keyNames = map[string]VKey{
	"SPACE":     0x20,
	"ENTER":     0x0D,
	"RETURN":    0x0D,
	"ESC":       0x1B,
	"ESCAPE":    0x1B,
	"TAB":       0x09,
	"BACKSPACE": 0x08,
	"BACK":      0x08,
	"BS":        0x08,
	"DEL":       0x2E,
	"DELETE":    0x2E,
	"INS":       0x2D,
	"INSERT":    0x2D,
	"HOME":      0x24,
	"END":       0x23,
	"PGUP":      0x21,
	"PAGEUP":    0x21,
	"PGDN":      0x22,
	"PAGEDOWN":  0x22,
	"UP":        0x26,
	"DOWN":      0x28,
	"LEFT":      0x25,
	"RIGHT":     0x27,
	"LBUTTON":   vkLButton,
	"RBUTTON":   vkRButton,
	"MBUTTON":   vkMButton,
	"XBUTTON1":  vkXButton1,
	"XBUTTON2":  vkXButton2,
}

var canonicalNames = map[VKey]string{
	0x20:       "SPACE",
	0x0D:       "ENTER",
	0x1B:       "ESC",
	0x09:       "TAB",
	0x08:       "BACKSPACE",
	0x2E:       "DEL",
	0x2D:       "INS",
	0x24:       "HOME",
	0x23:       "END",
	0x21:       "PGUP",
	0x22:       "PGDN",
	0x26:       "UP",
	0x28:       "DOWN",
	0x25:       "LEFT",
	0x27:       "RIGHT",
	vkLButton:  "LBUTTON",
	vkRButton:  "RBUTTON",
	vkMButton:  "MBUTTON",
	vkXButton1: "XBUTTON1",
	vkXButton2: "XBUTTON2",
}

func init() {
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("F%d", i)
		code := VKey(0x70 + i - 1)
		keyNames[name] = code
		canonicalNames[code] = name
	}
}

// Binding is a parsed hotkey. Construct it with Parse.
type Binding struct {
	mods Modifier
	key  VKey
}

// Parse decodes a hotkey string. Modifier prefixes may appear in any order
// and repeated prefixes are ignored.
func Parse(s string) (Binding, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Binding{}, ErrEmpty
	}

	var mods Modifier
	i := 0
prefixes:
	for ; i < len(s); i++ {
		for _, m := range modifierOrder {
			if s[i] == m.symbol {
				mods |= m.mod
				continue prefixes
			}
		}
		break
	}

	token := strings.ToUpper(strings.TrimSpace(s[i:]))
	key, ok := lookupKey(token)
	if !ok {
		return Binding{}, fmt.Errorf("%w %q in %q", ErrUnknownKey, token, s)
	}
	return Binding{mods: mods, key: key}, nil
}

// MustParse is Parse for hotkeys known at compile time.
func MustParse(s string) Binding {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

func lookupKey(token string) (VKey, bool) {
	if len(token) == 1 {
		c := token[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return VKey(c), true
		}
		return 0, false
	}
	key, ok := keyNames[token]
	return key, ok
}

// Modifiers returns the modifier bitmask.
func (b Binding) Modifiers() Modifier { return b.mods }

// Key returns the virtual-key code.
func (b Binding) Key() VKey { return b.key }

// IsMouse reports whether the key is a mouse button.
func (b Binding) IsMouse() bool {
	switch b.key {
	case vkLButton, vkRButton, vkMButton, vkXButton1, vkXButton2:
		return true
	}
	return false
}

// String returns the canonical encoding: modifiers in #^!+ order followed by
// the key name.
func (b Binding) String() string {
	var sb strings.Builder
	for _, m := range modifierOrder {
		if b.mods&m.mod != 0 {
			sb.WriteByte(m.symbol)
		}
	}
	sb.WriteString(b.keyName())
	return sb.String()
}

// Display renders the binding for people, e.g. "Ctrl+Alt+Z".
func (b Binding) Display() string {
	parts := make([]string, 0, 5)
	for _, m := range modifierOrder {
		if b.mods&m.mod != 0 {
			parts = append(parts, m.label)
		}
	}
	return strings.Join(append(parts, b.keyName()), "+")
}

func (b Binding) keyName() string {
	if name, ok := canonicalNames[b.key]; ok {
		return name
	}
	return string(rune(b.key))
}
