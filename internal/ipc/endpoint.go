package ipc

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/user"
	"runtime"
	"strings"
	"time"
)

const (
	defaultAddr = "127.0.0.1:47864"
	pipePrefix  = `\\.\pipe\QuickCliq-`

	// NetworkPipe selects a Windows named pipe.
	NetworkPipe = "pipe"
)

// Endpoint describes where the primary instance listens for forwarded
// command lines.
type Endpoint struct {
	Network string
	Address string
}

// DefaultEndpoint resolves the per-user endpoint using environment overrides.
func DefaultEndpoint() Endpoint {
	if addr := strings.TrimSpace(os.Getenv("QUICKCLIQ_IPC_ADDR")); addr != "" {
		return Endpoint{Network: "tcp", Address: addr}
	}

	if runtime.GOOS == "windows" {
		return Endpoint{Network: NetworkPipe, Address: pipePrefix + userTag()}
	}

	return Endpoint{Network: "tcp", Address: defaultAddr}
}

// userTag names the pipe after the current user so sessions do not collide.
func userTag() string {
	name := os.Getenv("USERNAME")
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	if name == "" {
		return "default"
	}
	return strings.NewReplacer(`\`, "-", "/", "-").Replace(name)
}

// Listen binds to the configured endpoint.
func (e Endpoint) Listen() (net.Listener, error) {
	if e.Network == NetworkPipe {
		return listenPipe(e.Address)
	}
	return net.Listen(e.Network, e.Address)
}

// DialContext establishes a client connection with sensible timeouts.
func (e Endpoint) DialContext(ctx context.Context) (net.Conn, error) {
	if e.Network == NetworkPipe {
		return dialPipe(ctx, e.Address)
	}
	d := &net.Dialer{Timeout: 5 * time.Second}
	return d.DialContext(ctx, e.Network, e.Address)
}

// String provides a readable representation for logs.
func (e Endpoint) String() string {
	return fmt.Sprintf("%s://%s", e.Network, e.Address)
}
