package tray

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/example/quickcliq/internal/config"
	"github.com/example/quickcliq/internal/executor"
	"github.com/example/quickcliq/internal/menu"
)

type fakeHost struct {
	mu   sync.Mutex
	runs []int
	mods []executor.Modifiers
}

func (h *fakeHost) ShowMainMenu()  {}
func (h *fakeHost) ToggleSuspend() {}
func (h *fakeHost) OpenEditor()    {}
func (h *fakeHost) Reload()        {}

func (h *fakeHost) RunItem(id int, mods executor.Modifiers) {
	h.mu.Lock()
	h.runs = append(h.runs, id)
	h.mods = append(h.mods, mods)
	h.mu.Unlock()
}

func sampleTree(suspended bool) *menu.Tree {
	cfg := &config.MenuConfig{
		TextColor: config.Inherit,
		BgColor:   config.Inherit,
		Items: []*config.MenuItem{
			{ID: 1, Name: "Notepad", Hotkey: "^!N", Commands: []string{"notepad.exe"}, TextColor: -1, BgColor: -1},
			{ID: 2, IsSeparator: true},
			{ID: 3, Name: "Tools", IsMenu: true, TextColor: -1, BgColor: -1, Children: []*config.MenuItem{
				{ID: 4, Name: "Calc", Commands: []string{"calc.exe"}, TextColor: -1, BgColor: -1},
				{ID: 5, Name: "Empty", TextColor: -1, BgColor: -1},
			}},
			{ID: 6, Name: "Nothing", IsMenu: true, TextColor: -1, BgColor: -1},
		},
	}
	b := menu.NewBuilder(menu.Params{Base: menu.DefaultAppearance(), EditorItem: true, SuspendItem: true, Suspended: suspended})
	return b.Get(menu.MainKey, cfg)
}

func labels(entries []entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		s := e.String()
		if e.isSubmenu() {
			s += "[" + labels(e.Children) + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func TestMirrorSkipsSystemEntries(t *testing.T) {
	got := labels(mirror(sampleTree(false).Root))
	want := "Notepad#1 - Tools[Calc#4 Empty#5] Nothing[]"
	if got != want {
		t.Fatalf("mirror = %q, want %q", got, want)
	}

	entries := mirror(sampleTree(false).Root)
	if entries[0].Tooltip != "^!N" {
		t.Fatalf("hotkey tooltip = %q", entries[0].Tooltip)
	}
	if !entries[2].Children[1].Disabled {
		t.Fatalf("item without commands should be disabled")
	}
}

func TestPublishKeepsNewestState(t *testing.T) {
	tr := New(&fakeHost{}, nil)
	tr.Publish(sampleTree(false))
	tr.Publish(sampleTree(true))
	tr.Publish(nil)

	if len(tr.updates) != 1 {
		t.Fatalf("pending updates = %d", len(tr.updates))
	}
	st := <-tr.updates
	if !st.Suspended || !tr.latest().Suspended {
		t.Fatalf("newest state not kept")
	}
}

func TestClickRunsItemWithModifiers(t *testing.T) {
	host := &fakeHost{}
	tr := New(host, nil, WithModifiers(func() executor.Modifiers { return executor.Modifiers{Ctrl: true} }))
	entries := mirror(sampleTree(false).Root)

	tr.click(entries[0])
	tr.click(entries[1])
	tr.click(entries[2].Children[1])

	if len(host.runs) != 1 || host.runs[0] != 1 || !host.mods[0].Ctrl {
		t.Fatalf("runs = %v mods = %+v", host.runs, host.mods)
	}
}

func TestLoadIcon(t *testing.T) {
	stock, err := LoadIcon("")
	if err != nil || len(stock) == 0 {
		t.Fatalf("stock icon: %d bytes, %v", len(stock), err)
	}

	if _, err := png.Decode(bytes.NewReader(defaultIcon())); err != nil {
		t.Fatalf("default icon is not a png: %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	icon, err := LoadIcon(bad)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if len(icon) == 0 {
		t.Fatalf("fallback icon missing")
	}

	good := filepath.Join(t.TempDir(), "good.png")
	if err := os.WriteFile(good, defaultIcon(), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if icon, err := LoadIcon(good); err != nil || len(icon) == 0 {
		t.Fatalf("LoadIcon(good) = %d bytes, %v", len(icon), err)
	}
}
