package server

import (
	"context"
	"errors"
	"net"

	"github.com/plus3/mmoss/transport"
)

// Serve accepts connections from l and adds them as clients until ctx ends or
// the listener is closed
func (m *Manager) Serve(ctx context.Context, l transport.Listener) error {
	for {
		conn, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		m.AddClient(conn)
	}
}
