// Package quic carries replication frames over QUIC: one bidirectional control
// stream with u16 length-prefixed frames, plus QUIC datagrams for frames that
// may be dropped.
package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/transport/internal/frame"
	"github.com/plus3/mmoss/transport/internal/inbox"
	"github.com/quic-go/quic-go"
)

const (
	DefaultQueueSize = 256
	ALPN             = "mmoss"

	handshakeTimeout = 5 * time.Second
)

var ErrBadHandshake = errors.New("quic: control stream did not open with an empty frame")

// DefaultConfig enables datagrams, which Conn.SendDatagram depends on
func DefaultConfig() *quic.Config {
	return &quic.Config{
		EnableDatagrams: true,
		MaxIdleTimeout:  30 * time.Second,
		KeepAlivePeriod: 10 * time.Second,
	}
}

type Conn struct {
	conn    quic.Connection
	control quic.Stream
	inbox   *inbox.Inbox
	writeMu sync.Mutex
	close   sync.Once
}

func newConn(conn quic.Connection, control quic.Stream, queueSize int) *Conn {
	c := &Conn{
		conn:    conn,
		control: control,
		inbox:   inbox.New(queueSize),
	}
	go c.readPump()
	if conn.ConnectionState().SupportsDatagrams {
		go c.datagramPump()
	}
	return c
}

// Dial connects to a QUIC endpoint and opens the control stream
func Dial(ctx context.Context, address string, tlsConf *tls.Config, config *quic.Config, queueSize int) (*Conn, error) {
	conn, err := quic.DialAddr(ctx, address, tlsConf, config)
	if err != nil {
		return nil, err
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "open control stream")
		return nil, fmt.Errorf("open control stream: %w", err)
	}

	// The peer only sees the stream once something is written to it.
	if err := frame.Write(stream, nil); err != nil {
		conn.CloseWithError(0, "handshake")
		return nil, fmt.Errorf("write handshake: %w", err)
	}

	return newConn(conn, stream, queueSize), nil
}

func (c *Conn) readPump() {
	for {
		payload, err := frame.Read(c.control)
		if err != nil {
			c.inbox.Fail(err)
			return
		}
		if !c.inbox.Push(payload) {
			return
		}
	}
}

func (c *Conn) datagramPump() {
	for {
		payload, err := c.conn.ReceiveDatagram(c.conn.Context())
		if err != nil {
			// The control stream keeps working when only datagrams fail.
			if c.conn.Context().Err() != nil {
				c.inbox.Fail(context.Cause(c.conn.Context()))
			}
			return
		}
		if !c.inbox.Push(payload) {
			return
		}
	}
}

// Send writes one frame on the control stream
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.control.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return frame.Write(c.control, payload)
}

// SendDatagram sends payload unreliably. Payloads larger than the path MTU
// allows fail with *quic.DatagramTooLargeError.
func (c *Conn) SendDatagram(payload []byte) error {
	return c.conn.SendDatagram(payload)
}

func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	return c.inbox.Receive(ctx)
}

func (c *Conn) Close() error {
	err := net.ErrClosed
	c.close.Do(func() {
		c.inbox.Fail(net.ErrClosed)
		err = c.conn.CloseWithError(0, "closed")
	})
	return err
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Listener accepts QUIC connections and completes each control stream
// handshake in its own goroutine. Peers that fail the handshake are dropped.
type Listener struct {
	listener  *quic.Listener
	queueSize int
	conns     chan *Conn
	ctx       context.Context
	cancel    context.CancelFunc
	close     sync.Once
}

func Listen(address string, tlsConf *tls.Config, config *quic.Config, queueSize int) (*Listener, error) {
	listener, err := quic.ListenAddr(address, tlsConf, config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		listener:  listener,
		queueSize: queueSize,
		conns:     make(chan *Conn, 16),
		ctx:       ctx,
		cancel:    cancel,
	}
	go l.acceptLoop()
	return l, nil
}

func (l *Listener) acceptLoop() {
	for {
		conn, err := l.listener.Accept(l.ctx)
		if err != nil {
			return
		}
		go l.handshake(conn)
	}
}

func (l *Listener) handshake(conn quic.Connection) {
	c, err := openControl(l.ctx, conn, l.queueSize)
	if err != nil {
		logging.Default().Debug("dropping quic peer", "remote", conn.RemoteAddr(), "error", err)
		return
	}

	select {
	case l.conns <- c:
	case <-l.ctx.Done():
		c.Close()
	}
}

// openControl waits for the peer's control stream and its empty hello frame
func openControl(ctx context.Context, conn quic.Connection, queueSize int) (*Conn, error) {
	streamCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	stream, err := conn.AcceptStream(streamCtx)
	if err != nil {
		conn.CloseWithError(0, "no control stream")
		return nil, fmt.Errorf("accept control stream: %w", err)
	}

	if err := stream.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		conn.CloseWithError(0, "handshake")
		return nil, err
	}
	hello, err := frame.Read(stream)
	if err != nil || len(hello) != 0 {
		conn.CloseWithError(0, "bad handshake")
		return nil, ErrBadHandshake
	}
	if err := stream.SetReadDeadline(time.Time{}); err != nil {
		conn.CloseWithError(0, "handshake")
		return nil, err
	}

	return newConn(conn, stream, queueSize), nil
}

// Accept returns the next connection whose handshake succeeded
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	select {
	case conn := <-l.conns:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *Listener) Close() error {
	err := net.ErrClosed
	l.close.Do(func() {
		l.cancel()
		err = l.listener.Close()
	})
	return err
}

func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}
