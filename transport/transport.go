// Package transport moves opaque replication frames between a server and its
// clients. Concrete transports live in the tcp, quic and websocket
// subpackages; Dial and Listen pick one from the address scheme.
package transport

import (
	"context"
	"net"

	"github.com/plus3/mmoss/transport/internal/frame"
)

// ErrFrameTooLarge is returned by stream transports for payloads that do not
// fit the u16 length prefix
var ErrFrameTooLarge = frame.ErrTooLarge

// Conn is a reliable, ordered frame connection
type Conn interface {
	Send(ctx context.Context, payload []byte) error
	// Receive blocks until a frame arrives, the context ends or the connection
	// fails. Frames received before a failure are delivered first.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
	RemoteAddr() net.Addr
}

// DatagramConn can additionally send frames that may be lost or reordered
type DatagramConn interface {
	Conn
	SendDatagram(payload []byte) error
}

type Listener interface {
	Accept(ctx context.Context) (Conn, error)
	Close() error
	Addr() net.Addr
}
