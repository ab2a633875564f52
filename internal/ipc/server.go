// Package ipc carries command lines from a secondary instance to the running
// primary instance.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/example/quickcliq/internal/logging"
	"github.com/example/quickcliq/internal/protocol"
)

const ownerCheckTimeout = time.Second

// Handler receives one complete message. Serve waits for it to return
// before accepting the next connection.
type Handler func(msg string)

// Server accepts one message per connection on an endpoint.
type Server struct {
	endpoint Endpoint
	handler  Handler
	maxSize  int64

	mu       sync.Mutex
	listener net.Listener
	stopped  bool
}

// NewServer constructs a server for endpoint.
func NewServer(endpoint Endpoint, handler Handler) *Server {
	return &Server{endpoint: endpoint, handler: handler, maxSize: protocol.MaxMessageSize}
}

// Endpoint exposes the listening endpoint for logging and diagnostics.
func (s *Server) Endpoint() Endpoint {
	return s.endpoint
}

// Addr returns the bound address, or nil before TryStart succeeds.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// TryStart binds the endpoint. It reports false with a nil error when
// another instance already owns it.
func (s *Server) TryStart() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return true, nil
	}

	listener, err := s.endpoint.Listen()
	if err != nil {
		ctx, cancel := context.WithTimeout(context.Background(), ownerCheckTimeout)
		defer cancel()
		if conn, derr := s.endpoint.DialContext(ctx); derr == nil {
			// An empty message is ignored by the owner.
			_ = conn.Close()
			return false, nil
		}
		return false, fmt.Errorf("listen on %s: %w", s.endpoint, err)
	}
	s.listener = listener
	s.stopped = false
	log.Printf("ipc: listening on %s", s.endpoint)
	return true, nil
}

// Serve accepts connections until ctx is canceled or Stop is called.
// Messages are handled one at a time in arrival order.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return errors.New("ipc: server not started")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-done:
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isStopped() {
				return nil
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				log.Printf("ipc: temporary accept error: %v", err)
				time.Sleep(250 * time.Millisecond)
				continue
			}
			return fmt.Errorf("accept connection: %w", err)
		}
		s.handle(conn)
	}
}

// Stop closes the listener. Serve returns nil afterwards.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || s.stopped {
		return
	}
	s.stopped = true
	if err := s.listener.Close(); err != nil {
		logging.Debugf("ipc: close listener: %v", err)
	}
}

func (s *Server) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(SendTimeout))

	raw, err := io.ReadAll(io.LimitReader(conn, s.maxSize+1))
	if err != nil {
		log.Printf("ipc: read message: %v", err)
		return
	}
	if len(raw) == 0 {
		return
	}
	if int64(len(raw)) > s.maxSize {
		log.Printf("ipc: dropped message larger than %d bytes", s.maxSize)
		return
	}
	logging.Debugf("ipc: received %d bytes", len(raw))
	if s.handler != nil {
		s.handler(string(raw))
	}
}
