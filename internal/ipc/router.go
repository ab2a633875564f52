package ipc

import (
	"log"
	"sync"

	"github.com/example/quickcliq/internal/protocol"
)

// Router parses messages and fans them out to subscribers.
type Router struct {
	mu         sync.RWMutex
	add        []func(path string)
	standalone []func(path string, update bool)
	unknown    []func(raw string)
}

// NewRouter returns a router with no subscribers.
func NewRouter() *Router {
	return &Router{}
}

// OnAddShortcut subscribes to add-shortcut requests.
func (r *Router) OnAddShortcut(fn func(path string)) {
	r.mu.Lock()
	r.add = append(r.add, fn)
	r.mu.Unlock()
}

// OnStandaloneMenu subscribes to standalone menu requests.
func (r *Router) OnStandaloneMenu(fn func(path string, update bool)) {
	r.mu.Lock()
	r.standalone = append(r.standalone, fn)
	r.mu.Unlock()
}

// OnUnknown subscribes to messages that match no command.
func (r *Router) OnUnknown(fn func(raw string)) {
	r.mu.Lock()
	r.unknown = append(r.unknown, fn)
	r.mu.Unlock()
}

// Route parses msg and invokes the matching subscribers. Blank messages are
// dropped.
func (r *Router) Route(msg string) protocol.Request {
	req := protocol.Parse(msg)

	r.mu.RLock()
	defer r.mu.RUnlock()
	switch req.Kind {
	case protocol.KindEmpty:
	case protocol.KindAddShortcut:
		for _, fn := range r.add {
			fn(req.Path)
		}
	case protocol.KindStandaloneMenu:
		for _, fn := range r.standalone {
			fn(req.Path, req.Update)
		}
	default:
		if len(r.unknown) == 0 {
			log.Printf("ipc: unknown command %q", msg)
		}
		for _, fn := range r.unknown {
			fn(msg)
		}
	}
	return req
}

// Handler adapts the router for a Server.
func (r *Router) Handler() Handler {
	return func(msg string) { r.Route(msg) }
}
