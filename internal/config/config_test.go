package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "qc_conf.json"), 2)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store
}

func TestDecodeMissingColorsInherit(t *testing.T) {
	raw := `{
  "lastId": 3,
  "menu": {
    "items": [
      {"id": 1, "name": "Editors", "isMenu": true, "bgColor": 0, "children": [
        {"id": 2, "name": "Notepad", "commands": ["notepad.exe"]}
      ]},
      {"id": 3, "name": "Black", "textColor": 0}
    ]
  }
}`
	cfg, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Menu.TextColor != Inherit || cfg.Menu.BgColor != Inherit || cfg.Menu.Name != DefaultMenuName {
		t.Fatalf("root menu defaults not applied: %+v", cfg.Menu)
	}
	editors := cfg.Menu.Items[0]
	if editors.TextColor != Inherit || editors.BgColor != 0 {
		t.Fatalf("explicit black lost or missing color not inherited: %+v", editors)
	}
	if child := editors.Children[0]; child.TextColor != Inherit || child.BgColor != Inherit {
		t.Fatalf("nested item colors = %d/%d", child.TextColor, child.BgColor)
	}
	if black := cfg.Menu.Items[1]; black.TextColor != 0 || black.BgColor != Inherit {
		t.Fatalf("explicit zero treated as default: %+v", black)
	}
	if cfg.Settings == nil || cfg.HiddenWindows == nil {
		t.Fatalf("nil collections after decode")
	}
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	store := openTemp(t)
	cfg := store.Config()
	if cfg.Version != Version || cfg.LastID != 0 || len(cfg.Menu.Items) != 0 {
		t.Fatalf("unexpected fresh document: %+v", cfg)
	}
}

func TestOpenCorruptFileIsMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qc_conf.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	store, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open must not fail on corrupt config: %v", err)
	}
	if len(store.Menu().Items) != 0 {
		t.Fatalf("expected fresh document")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "qc_conf.json.corrupt.") {
			found = true
		}
	}
	if !found {
		t.Fatalf("corrupt file not preserved, dir has %v", entries)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("corrupt file still at original path")
	}
}

func TestSaveRotatesBackups(t *testing.T) {
	store := openTemp(t)

	for i := 1; i <= 4; i++ {
		store.SetOpt("generation", i)
		if err := store.Save(); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	generation := func(path string) float64 {
		raw, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		cfg, err := Decode(raw)
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		n, _ := cfg.Settings["generation"].(float64)
		return n
	}

	if got := generation(store.Path()); got != 4 {
		t.Fatalf("current generation = %v", got)
	}
	if got := generation(store.BackupPath(1)); got != 3 {
		t.Fatalf(".bak generation = %v", got)
	}
	if got := generation(store.BackupPath(2)); got != 2 {
		t.Fatalf(".bak2 generation = %v", got)
	}
	if _, err := os.Stat(store.BackupPath(3)); !os.IsNotExist(err) {
		t.Fatalf("more generations kept than configured")
	}
	if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestNextIDIsMonotonicAcrossSaves(t *testing.T) {
	store := openTemp(t)
	first := store.NextID()
	second := store.NextID()
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d", first, second)
	}
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := Open(store.Path(), 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id := reopened.NextID(); id != 3 {
		t.Fatalf("id after reopen = %d", id)
	}
}

func TestNextIDSkipsPastExistingItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qc_conf.json")
	doc := `{"lastId": 1, "menu": {"items": [{"id": 1, "name": "a"}, {"id": 9, "name": "b"}]}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if id := store.NextID(); id != 10 {
		t.Fatalf("NextID = %d, want 10", id)
	}
	if got := store.Menu().MaxID(); got != 9 {
		t.Fatalf("MaxID = %d", got)
	}
}

func TestItemCreateFindDelete(t *testing.T) {
	store := openTemp(t)

	tools := store.CreateItem(nil, nil)
	tools.Name = "Tools"
	tools.IsMenu = true
	last := store.CreateItem(tools, nil)
	first := store.CreateItem(tools, last)
	tail := store.CreateItem(nil, nil)

	if len(tools.Children) != 2 || tools.Children[0] != first || tools.Children[1] != last {
		t.Fatalf("insert before sibling failed: %+v", tools.Children)
	}
	if got := store.Item(last.ID); got != last {
		t.Fatalf("Item(%d) = %+v", last.ID, got)
	}
	if last.TextColor != Inherit || last.BgColor != Inherit || last.Name != "New Item" {
		t.Fatalf("unexpected new item %+v", last)
	}

	if !store.DeleteItem(first.ID) {
		t.Fatalf("DeleteItem of nested item failed")
	}
	if store.Item(first.ID) != nil || len(tools.Children) != 1 {
		t.Fatalf("nested item not removed")
	}
	if !store.DeleteItem(tools.ID) {
		t.Fatalf("DeleteItem of submenu failed")
	}
	if store.Item(last.ID) != nil {
		t.Fatalf("children of deleted submenu still reachable")
	}
	if store.DeleteItem(999) {
		t.Fatalf("DeleteItem of unknown id reported success")
	}
	if items := store.Menu().Items; len(items) != 1 || items[0] != tail {
		t.Fatalf("root items = %+v", items)
	}
}

func TestOptionsAreCaseInsensitive(t *testing.T) {
	store := openTemp(t)
	store.SetOpt("Main_Hotkey", "^!Q")
	if v, ok := store.GetOpt("main_hotkey"); !ok || v != "^!Q" {
		t.Fatalf("GetOpt = %v, %t", v, ok)
	}
	store.DelOpt("MAIN_HOTKEY")
	if _, ok := store.GetOpt("main_hotkey"); ok {
		t.Fatalf("DelOpt left value behind")
	}
}

func TestLoadFromAndReload(t *testing.T) {
	store := openTemp(t)
	store.CreateItem(nil, nil)
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	other := filepath.Join(t.TempDir(), "other.json")
	if err := os.WriteFile(other, []byte(`{"lastId": 7, "menu": {"name": "alt", "items": []}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.LoadFrom(other); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if store.Menu().Name != "alt" || store.NextID() != 8 {
		t.Fatalf("LoadFrom did not replace document")
	}

	if err := store.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if len(store.Menu().Items) != 1 {
		t.Fatalf("Reload did not restore saved document")
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.LastID = 2
	cfg.Menu.Items = []*MenuItem{
		{ID: 1, Name: "ok", Commands: []string{"a.exe"}, Hotkey: "^!N"},
		{ID: 2, Name: "sep", IsSeparator: true, Commands: []string{"x"}},
		{ID: 2, Name: "dup", IsMenu: true, Commands: []string{"y"}},
		{ID: 5, Name: "bad key", Hotkey: "^Hyper"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	msg := err.Error()
	for _, want := range []string{"separator with content", "duplicate id", "submenu with commands", "unknown key", "lastId 2"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("validation message %q missing %q", msg, want)
		}
	}

	if err := New().Validate(); err != nil {
		t.Fatalf("empty document invalid: %v", err)
	}
}

func TestCommandString(t *testing.T) {
	item := &MenuItem{}
	item.SetCommandString("a.exe {N}  {N} b.exe", "{N}")
	if len(item.Commands) != 2 || item.CommandString("{N}") != "a.exe{N}b.exe" {
		t.Fatalf("commands = %q, joined %q", item.Commands, item.CommandString("{N}"))
	}
}

func TestPathHonoursEnvironment(t *testing.T) {
	custom := filepath.Join(t.TempDir(), "nested", "qc.json")
	t.Setenv("QUICKCLIQ_CONFIG_PATH", custom)
	got, err := Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if got != custom {
		t.Fatalf("Path = %q", got)
	}
	if _, err := os.Stat(filepath.Dir(custom)); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}
