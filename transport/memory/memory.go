// Package memory connects two endpoints inside one process. It backs tests
// and embedded servers that share a process with their clients.
package memory

import (
	"context"
	"io"
	"net"
	"slices"
	"sync"

	"github.com/plus3/mmoss/transport"
	"github.com/plus3/mmoss/transport/internal/inbox"
)

type Addr string

func (a Addr) Network() string { return "memory" }
func (a Addr) String() string  { return string(a) }

type Conn struct {
	inbox  *inbox.Inbox
	peer   *Conn
	remote Addr
	close  sync.Once
	closed chan struct{}
}

// Pipe returns two connected endpoints, each buffering up to queueSize frames
func Pipe(queueSize int) (*Conn, *Conn) {
	a := &Conn{inbox: inbox.New(queueSize), remote: "b", closed: make(chan struct{})}
	b := &Conn{inbox: inbox.New(queueSize), remote: "a", closed: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

// Send copies payload into the peer's queue, blocking while it is full
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	if !c.peer.inbox.Push(slices.Clone(payload)) {
		return net.ErrClosed
	}
	return nil
}

// SendDatagram behaves like Send; frames are never lost in memory
func (c *Conn) SendDatagram(payload []byte) error {
	return c.Send(context.Background(), payload)
}

func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	return c.inbox.Receive(ctx)
}

// Close ends both directions. The peer sees io.EOF after draining its queue.
func (c *Conn) Close() error {
	err := net.ErrClosed
	c.close.Do(func() {
		close(c.closed)
		c.inbox.Fail(net.ErrClosed)
		c.peer.inbox.Fail(io.EOF)
		err = nil
	})
	return err
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}

// Listener hands out the server ends of pipes created by Dial
type Listener struct {
	addr      Addr
	queueSize int
	conns     chan *Conn
	done      chan struct{}
	close     sync.Once
}

func Listen(name string, queueSize int) *Listener {
	return &Listener{
		addr:      Addr(name),
		queueSize: queueSize,
		conns:     make(chan *Conn),
		done:      make(chan struct{}),
	}
}

// Dial creates a pipe and waits for the listener to accept its server end
func (l *Listener) Dial(ctx context.Context) (*Conn, error) {
	client, server := Pipe(l.queueSize)
	client.remote = l.addr
	select {
	case l.conns <- server:
		return client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, net.ErrClosed
	}
}

var _ transport.Listener = (*Listener)(nil)

func (l *Listener) Accept(ctx context.Context) (transport.Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *Listener) Close() error {
	err := net.ErrClosed
	l.close.Do(func() {
		close(l.done)
		err = nil
	})
	return err
}

func (l *Listener) Addr() net.Addr {
	return l.addr
}
