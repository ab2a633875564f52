package autostart

import (
	"errors"
	"testing"
)

type mapKey struct {
	values map[string]string
	writes int
	fail   error
}

func (m *mapKey) Get(name string) (string, bool, error) {
	if m.fail != nil {
		return "", false, m.fail
	}
	v, ok := m.values[name]
	return v, ok, nil
}

func (m *mapKey) Set(name, value string) error {
	m.writes++
	m.values[name] = value
	return nil
}

func (m *mapKey) Delete(name string) error {
	m.writes++
	delete(m.values, name)
	return nil
}

func TestSyncTouchesKeyOnlyOnChange(t *testing.T) {
	key := &mapKey{values: map[string]string{}}
	m := &Manager{key: key, name: valueName, exe: `C:\Program Files\QuickCliq\quickcliq.exe`}

	if err := m.Sync(true); err != nil {
		t.Fatalf("Sync(true): %v", err)
	}
	if got := key.values[valueName]; got != `"C:\Program Files\QuickCliq\quickcliq.exe"` {
		t.Fatalf("stored command = %q", got)
	}
	if err := m.Sync(true); err != nil || key.writes != 1 {
		t.Fatalf("second Sync wrote again: writes=%d err=%v", key.writes, err)
	}

	if err := m.Sync(false); err != nil {
		t.Fatalf("Sync(false): %v", err)
	}
	if on, _ := m.Enabled(); on {
		t.Fatalf("still enabled after disable")
	}
}

func TestEnabledRequiresMatchingExecutable(t *testing.T) {
	key := &mapKey{values: map[string]string{valueName: `"D:\old\quickcliq.exe"`}}
	m := &Manager{key: key, name: valueName, exe: `C:\qc\quickcliq.exe`}
	if on, err := m.Enabled(); err != nil || on {
		t.Fatalf("Enabled = %t, %v", on, err)
	}
	if err := m.Sync(true); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if key.values[valueName] != `C:\qc\quickcliq.exe` {
		t.Fatalf("entry not repointed: %q", key.values[valueName])
	}
}

func TestSyncPropagatesReadErrors(t *testing.T) {
	boom := errors.New("access denied")
	m := &Manager{key: &mapKey{values: map[string]string{}, fail: boom}, name: valueName, exe: "qc"}
	if err := m.Sync(true); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
