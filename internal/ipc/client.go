package ipc

import (
	"context"
	"fmt"
	"time"

	"github.com/example/quickcliq/internal/protocol"
)

// SendTimeout bounds one forwarded message end to end.
const SendTimeout = 5 * time.Second

// Send delivers msg to the instance listening on endpoint.
func Send(ctx context.Context, endpoint Endpoint, msg string) error {
	if len(msg) > protocol.MaxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit", len(msg))
	}
	ctx, cancel := context.WithTimeout(ctx, SendTimeout)
	defer cancel()

	conn, err := endpoint.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("connect %s: %w", endpoint, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write([]byte(msg)); err != nil {
		return fmt.Errorf("send to %s: %w", endpoint, err)
	}
	return nil
}
