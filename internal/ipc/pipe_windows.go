//go:build windows
// +build windows

package ipc

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"

	"github.com/example/quickcliq/internal/protocol"
)

// listenPipe creates the first instance of the pipe. A second primary fails
// here because the pipe already exists.
func listenPipe(path string) (net.Listener, error) {
	return winio.ListenPipe(path, &winio.PipeConfig{
		MessageMode:      true,
		InputBufferSize:  protocol.MaxMessageSize,
		OutputBufferSize: protocol.MaxMessageSize,
	})
}

func dialPipe(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
