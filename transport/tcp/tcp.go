// Package tcp carries replication frames over a TCP stream using u16
// length-prefixed framing.
package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/plus3/mmoss/transport/internal/frame"
	"github.com/plus3/mmoss/transport/internal/inbox"
)

const DefaultQueueSize = 256

type Conn struct {
	conn    net.Conn
	inbox   *inbox.Inbox
	writeMu sync.Mutex
	close   sync.Once
}

func newConn(conn net.Conn, queueSize int) *Conn {
	c := &Conn{
		conn:  conn,
		inbox: inbox.New(queueSize),
	}
	go c.readPump()
	return c
}

// Dial connects to a TCP endpoint
func Dial(ctx context.Context, address string, queueSize int) (*Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return newConn(conn, queueSize), nil
}

func (c *Conn) readPump() {
	for {
		payload, err := frame.Read(c.conn)
		if err != nil {
			c.inbox.Fail(err)
			return
		}
		if !c.inbox.Push(payload) {
			return
		}
	}
}

// Send writes one frame. The context deadline, if any, bounds the write.
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return frame.Write(c.conn, payload)
}

func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	return c.inbox.Receive(ctx)
}

// Close closes the socket. Pending Receive calls return net.ErrClosed once
// queued frames are consumed.
func (c *Conn) Close() error {
	err := net.ErrClosed
	c.close.Do(func() {
		c.inbox.Fail(net.ErrClosed)
		err = c.conn.Close()
	})
	return err
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

type Listener struct {
	listener  net.Listener
	queueSize int
	conns     chan *Conn
	done      chan struct{}
	close     sync.Once
}

// Listen binds address and starts accepting connections
func Listen(ctx context.Context, address string, queueSize int) (*Listener, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		listener:  listener,
		queueSize: queueSize,
		conns:     make(chan *Conn, 16),
		done:      make(chan struct{}),
	}
	go l.acceptLoop()
	return l, nil
}

func (l *Listener) acceptLoop() {
	var backoff time.Duration
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			backoff = min(max(backoff*2, 5*time.Millisecond), time.Second)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		select {
		case l.conns <- newConn(conn, l.queueSize):
		case <-l.done:
			conn.Close()
			return
		}
	}
}

func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
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
		err = l.listener.Close()
	})
	return err
}

func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}
