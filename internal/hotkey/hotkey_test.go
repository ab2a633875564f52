package hotkey

import (
	"errors"
	"sync"
	"testing"
)

func TestParseKnownHotkeys(t *testing.T) {
	cases := []struct {
		in   string
		mods Modifier
		key  VKey
		want string
	}{
		{"^!Z", ModCtrl | ModAlt, 'Z', "^!Z"},
		{"#z", ModWin, 'Z', "#Z"},
		{"+F12", ModShift, 0x7B, "+F12"},
		{"!^+#space", ModWin | ModCtrl | ModAlt | ModShift, 0x20, "#^!+SPACE"},
		{"^^Return", ModCtrl, 0x0D, "^ENTER"},
		{"PageDown", 0, 0x22, "PGDN"},
		{"#MButton", ModWin, 0x04, "#MBUTTON"},
		{"^7", ModCtrl, '7', "^7"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			b, err := Parse(tc.in)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if b.Modifiers() != tc.mods || b.Key() != tc.key || b.String() != tc.want {
				t.Fatalf("Parse(%q) = mods %#x key %#x %q", tc.in, b.Modifiers(), b.Key(), b.String())
			}
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := Parse("   "); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	for _, in := range []string{"^!", "^F13", "#Hyper", "^?"} {
		if _, err := Parse(in); !errors.Is(err, ErrUnknownKey) {
			t.Fatalf("Parse(%q) expected ErrUnknownKey, got %v", in, err)
		}
	}
}

func permutations(s string) []string {
	if len(s) <= 1 {
		return []string{s}
	}
	var out []string
	for i := range s {
		rest := s[:i] + s[i+1:]
		for _, p := range permutations(rest) {
			out = append(out, string(s[i])+p)
		}
	}
	return out
}

func TestModifierPermutationsRoundTrip(t *testing.T) {
	keys := []string{"A", "9", "SPACE", "ENTER", "ESC", "TAB", "BACKSPACE", "UP", "PGDN", "F1", "F12", "LBUTTON", "RBUTTON"}
	subsets := []string{"", "#", "^!", "+#", "^!+", "#^!+"}
	for _, key := range keys {
		for _, subset := range subsets {
			var want Binding
			for i, perm := range permutations(subset) {
				b, err := Parse(perm + key)
				if err != nil {
					t.Fatalf("Parse(%q): %v", perm+key, err)
				}
				again, err := Parse(b.String())
				if err != nil {
					t.Fatalf("Parse(%q): %v", b.String(), err)
				}
				if again != b {
					t.Fatalf("round trip of %q changed binding: %v vs %v", perm+key, b, again)
				}
				if i == 0 {
					want = b
				} else if b != want {
					t.Fatalf("modifier order changed binding for %q", perm+key)
				}
			}
		}
	}
}

func TestDisplay(t *testing.T) {
	if got := MustParse("+^#Z").Display(); got != "Win+Ctrl+Shift+Z" {
		t.Fatalf("Display = %q", got)
	}
}

type fakeBackend struct {
	mu      sync.Mutex
	active  map[int]Binding
	refuse  map[string]bool
	history []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{active: make(map[int]Binding), refuse: make(map[string]bool)}
}

func (f *fakeBackend) Register(id int, b Binding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse[b.String()] {
		return errors.New("already registered by another application")
	}
	f.active[id] = b
	f.history = append(f.history, "+"+b.String())
	return nil
}

func (f *fakeBackend) Unregister(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.active[id]; ok {
		f.history = append(f.history, "-"+b.String())
	}
	delete(f.active, id)
	return nil
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func TestReRegisterReplacesCallback(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	var first, second int
	id1, err := m.Register("^!Z", func() { first++ })
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id2, err := m.Register("!^z", func() { second++ })
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id2 <= id1 {
		t.Fatalf("ids must increase: %d then %d", id1, id2)
	}
	if backend.count() != 1 {
		t.Fatalf("expected one OS reservation, got %d", backend.count())
	}

	if m.Dispatch(id1) {
		t.Fatalf("stale id dispatched")
	}
	if !m.Dispatch(id2) {
		t.Fatalf("current id not dispatched")
	}
	if first != 0 || second != 1 {
		t.Fatalf("callbacks fired first=%d second=%d", first, second)
	}
}

func TestRegisterReportsConflict(t *testing.T) {
	backend := newFakeBackend()
	backend.refuse["#E"] = true
	m := NewManager(backend)

	if _, err := m.Register("#e", func() {}); err == nil {
		t.Fatalf("expected conflict error")
	}
	if len(m.Registrations()) != 0 {
		t.Fatalf("refused hotkey kept in table")
	}
	if _, err := m.Register("#F", func() {}); err != nil {
		t.Fatalf("Register after conflict: %v", err)
	}
}

func TestSetAllEnabledRestoresCallbacks(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	fired := 0
	id, err := m.Register("^!Z", func() { fired++ })
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Register("^!X", func() {}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := m.SetAllEnabled(false); err != nil {
		t.Fatalf("SetAllEnabled(false): %v", err)
	}
	if backend.count() != 0 {
		t.Fatalf("reservations kept while disabled")
	}
	if m.Dispatch(id) {
		t.Fatalf("dispatched while disabled")
	}

	if err := m.SetAllEnabled(true); err != nil {
		t.Fatalf("SetAllEnabled(true): %v", err)
	}
	if backend.count() != 2 {
		t.Fatalf("expected both reservations restored, got %d", backend.count())
	}
	if !m.Dispatch(id) || fired != 1 {
		t.Fatalf("callback not restored")
	}
}

func TestSetEnabledSingle(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	id, _ := m.Register("F9", func() {})
	if err := m.SetEnabled("f9", false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if m.Dispatch(id) || backend.count() != 0 {
		t.Fatalf("disabled hotkey still active")
	}
	if err := m.SetAllEnabled(true); err != nil {
		t.Fatalf("SetAllEnabled: %v", err)
	}
	if backend.count() != 0 {
		t.Fatalf("global enable re-activated an individually disabled hotkey")
	}
	if err := m.SetEnabled("F9", true); err != nil || !m.Dispatch(id) {
		t.Fatalf("re-enabled hotkey not dispatched: %v", err)
	}
}

func TestUnregisterAndClose(t *testing.T) {
	backend := newFakeBackend()
	m := NewManager(backend)

	if err := m.Unregister("^Q"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	id, _ := m.Register("^Q", func() {})
	if err := m.Unregister("^q"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if m.Dispatch(id) || backend.count() != 0 {
		t.Fatalf("unregistered hotkey still live")
	}

	m.Register("^A", func() {})
	m.Register("^B", func() {})
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if backend.count() != 0 || len(m.Registrations()) != 0 {
		t.Fatalf("Close left reservations behind")
	}
	next, _ := m.Register("^C", func() {})
	if next <= id {
		t.Fatalf("ids reused after close: %d", next)
	}
}
