// Package websocket carries replication frames as binary WebSocket messages,
// one message per frame.
package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/plus3/mmoss/transport/internal/frame"
	"github.com/plus3/mmoss/transport/internal/inbox"
)

const (
	DefaultQueueSize = 256
	DefaultPath      = "/mmoss"

	closeTimeout = time.Second
)

// DefaultUpgrader accepts any origin; replication clients are not browsers
// sharing cookies with the server.
func DefaultUpgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

type Conn struct {
	conn    *websocket.Conn
	inbox   *inbox.Inbox
	writeMu sync.Mutex
	close   sync.Once
}

func newConn(conn *websocket.Conn, queueSize int) *Conn {
	conn.SetReadLimit(frame.MaxPayload)
	c := &Conn{
		conn:  conn,
		inbox: inbox.New(queueSize),
	}
	go c.readPump()
	return c
}

// Dial opens a WebSocket connection to url (ws:// or wss://)
func Dial(ctx context.Context, url string, dialer *websocket.Dialer, queueSize int) (*Conn, error) {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return newConn(conn, queueSize), nil
}

func (c *Conn) readPump() {
	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.inbox.Fail(err)
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		if !c.inbox.Push(payload) {
			return
		}
	}
}

func (c *Conn) Send(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(payload) > frame.MaxPayload {
		return frame.ErrTooLarge
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, payload)
}

func (c *Conn) Receive(ctx context.Context) ([]byte, error) {
	return c.inbox.Receive(ctx)
}

// Close sends a normal close frame and closes the socket
func (c *Conn) Close() error {
	err := net.ErrClosed
	c.close.Do(func() {
		c.inbox.Fail(net.ErrClosed)

		c.writeMu.Lock()
		var lastErr error
		if err := c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeTimeout),
		); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			lastErr = err
		}
		c.writeMu.Unlock()

		if err := c.conn.Close(); err != nil {
			lastErr = err
		}
		err = lastErr
	})
	return err
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Listener serves WebSocket upgrades on a single path
type Listener struct {
	listener  net.Listener
	server    *http.Server
	upgrader  *websocket.Upgrader
	queueSize int
	conns     chan *Conn
	done      chan struct{}
	close     sync.Once
}

func Listen(ctx context.Context, address string, path string, upgrader *websocket.Upgrader, queueSize int) (*Listener, error) {
	if upgrader == nil {
		upgrader = DefaultUpgrader()
	}
	if path == "" {
		path = DefaultPath
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	l := &Listener{
		listener:  listener,
		upgrader:  upgrader,
		queueSize: queueSize,
		conns:     make(chan *Conn, 16),
		done:      make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, l.handleUpgrade)
	l.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go l.server.Serve(listener)
	return l, nil
}

func (l *Listener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newConn(conn, l.queueSize)
	select {
	case l.conns <- c:
	case <-l.done:
		c.Close()
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
		err = l.server.Close()
	})
	return err
}

func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}
