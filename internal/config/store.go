package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/example/quickcliq/internal/logging"
)

// DefaultBackups is the number of backup generations kept by Save.
const DefaultBackups = 3

// Store owns the loaded document. Mutations are expected to happen on the
// service loop; the lock only guards readers on other goroutines.
type Store struct {
	mu      sync.RWMutex
	path    string
	backups int
	cfg     *Config
	now     func() time.Time
}

// Open loads the document at path. A missing file yields a fresh document; a
// file that cannot be parsed is moved aside with a timestamp suffix and a
// fresh document is used instead.
func Open(path string, backups int) (*Store, error) {
	if backups < 1 {
		backups = DefaultBackups
	}
	s := &Store{path: path, backups: backups, now: time.Now}
	cfg, err := s.read(path)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// DataDir returns the directory holding the configuration and its companions.
func (s *Store) DataDir() string {
	return filepath.Dir(s.path)
}

// SetBackups changes how many backup generations later saves keep.
func (s *Store) SetBackups(n int) {
	if n < 1 {
		n = DefaultBackups
	}
	s.mu.Lock()
	s.backups = n
	s.mu.Unlock()
}

func (s *Store) read(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logging.Debugf("config: %s not found, starting empty", path)
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Decode(raw)
	if err == nil {
		return cfg, nil
	}

	corrupt := fmt.Sprintf("%s.corrupt.%s", path, s.now().Format("20060102150405"))
	log.Printf("config: %s is unreadable (%v), moved to %s", path, err, corrupt)
	if rerr := os.Rename(path, corrupt); rerr != nil {
		log.Printf("config: move aside %s: %v", path, rerr)
	}
	return New(), nil
}

// Reload re-reads the backing file, discarding unsaved changes.
func (s *Store) Reload() error {
	cfg, err := s.read(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// LoadFrom replaces the document with the one stored at path. The store
// keeps saving to its own path.
func (s *Store) LoadFrom(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(raw)
	if err != nil {
		return fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Save rotates the backups and writes the document atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.cfg, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := s.rotate(); err != nil {
		log.Printf("config: rotate backups: %v", err)
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return os.Rename(tempFile, s.path)
}

// BackupPath returns the name of backup generation n, starting at 1.
func (s *Store) BackupPath(n int) string {
	if n <= 1 {
		return s.path + ".bak"
	}
	return fmt.Sprintf("%s.bak%d", s.path, n)
}

func (s *Store) rotate() error {
	current, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.RLock()
	keep := s.backups
	s.mu.RUnlock()
	for n := keep; n > 1; n-- {
		older := s.BackupPath(n - 1)
		if _, err := os.Stat(older); err != nil {
			continue
		}
		if err := os.Rename(older, s.BackupPath(n)); err != nil {
			return err
		}
	}
	return os.WriteFile(s.BackupPath(1), current, 0o600)
}

// Config returns the live document.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Menu returns the root menu.
func (s *Store) Menu() *MenuConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &s.cfg.Menu
}

// SetMenu replaces the root menu.
func (s *Store) SetMenu(menu MenuConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Menu = menu
}

// NextID allocates a new item id. Ids are never reused.
func (s *Store) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if maxID := s.cfg.Menu.MaxID(); s.cfg.LastID < maxID {
		s.cfg.LastID = maxID
	}
	s.cfg.LastID++
	return s.cfg.LastID
}

// Item finds the item with id anywhere in the tree.
func (s *Store) Item(id int) *MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *MenuItem
	s.cfg.Menu.Walk(func(item *MenuItem) bool {
		if item.ID == id {
			found = item
			return false
		}
		return true
	})
	return found
}

// DeleteItem removes the item with id and its children. It reports whether
// the item was found.
func (s *Store) DeleteItem(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := remove(s.cfg.Menu.Items, id)
	s.cfg.Menu.Items = items
	return ok
}

func remove(items []*MenuItem, id int) ([]*MenuItem, bool) {
	for i, item := range items {
		if item == nil {
			continue
		}
		if item.ID == id {
			return append(items[:i], items[i+1:]...), true
		}
		if children, ok := remove(item.Children, id); ok {
			item.Children = children
			return items, true
		}
	}
	return items, false
}

// CreateItem adds a new item named "New Item" under parent, or the root when
// parent is nil. The item is inserted ahead of before when it is a sibling,
// appended otherwise.
func (s *Store) CreateItem(parent, before *MenuItem) *MenuItem {
	item := &MenuItem{
		ID:        s.NextID(),
		Name:      "New Item",
		TextColor: Inherit,
		BgColor:   Inherit,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	siblings := &s.cfg.Menu.Items
	if parent != nil {
		siblings = &parent.Children
	}
	for i, sib := range *siblings {
		if before != nil && sib == before {
			*siblings = append((*siblings)[:i], append([]*MenuItem{item}, (*siblings)[i:]...)...)
			return item
		}
	}
	*siblings = append(*siblings, item)
	return item
}

// GetOpt returns the raw stored value of a setting.
func (s *Store) GetOpt(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.cfg.Settings[optKey(name)]
	return v, ok
}

// SetOpt stores a setting.
func (s *Store) SetOpt(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Settings[optKey(name)] = value
}

// DelOpt removes a setting so its default applies again.
func (s *Store) DelOpt(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cfg.Settings, optKey(name))
}

func optKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
