package menu

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/example/quickcliq/internal/executor"
	"github.com/example/quickcliq/internal/logging"
)

// Session owns the uid space of one built tree. Renderers map their native
// ids to uids through it instead of sharing global tables.
type Session struct {
	id string

	mu    sync.RWMutex
	byUID map[string]*Item
}

// NewSession returns an empty session with a fresh id.
func NewSession() *Session {
	return &Session{id: uuid.NewString(), byUID: make(map[string]*Item)}
}

// ID identifies the session.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) add(item *Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byUID[item.Uid]; dup {
		logging.Debugf("menu: duplicate uid %s in session %s", item.Uid, s.id)
	}
	s.byUID[item.Uid] = item
}

// Resolve returns the entry built under uid.
func (s *Session) Resolve(uid string) (*Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.byUID[uid]
	return item, ok
}

// Len returns the number of addressable entries.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUID)
}

// Point is a screen position.
type Point struct {
	X, Y int
}

// Result is the outcome of a popup selection.
type Result struct {
	Uid       string
	Tag       any
	Submenu   bool
	Modifiers executor.Modifiers
}

// Popup shows a built tree and blocks until the user picks an entry or
// dismisses the menu. A dismissed menu yields a nil Result and nil error.
type Popup interface {
	Show(ctx context.Context, tree *Tree, at Point) (*Result, error)
}
