package transport

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	mquic "github.com/plus3/mmoss/transport/quic"
	"github.com/plus3/mmoss/transport/tcp"
	mws "github.com/plus3/mmoss/transport/websocket"
)

// ErrUnsupportedScheme is returned for address schemes with no transport
type ErrUnsupportedScheme struct {
	Scheme string
}

func (e ErrUnsupportedScheme) Error() string {
	return fmt.Sprintf("transport: unsupported scheme %q", e.Scheme)
}

type endpoint struct {
	scheme string
	host   string
	path   string
	raw    string
}

// parseAddress accepts host:port (TCP) or scheme://host:port[/path]
func parseAddress(address string) (endpoint, error) {
	if !strings.Contains(address, "://") {
		return endpoint{scheme: "tcp", host: address, raw: address}, nil
	}

	u, err := url.Parse(address)
	if err != nil {
		return endpoint{}, fmt.Errorf("transport: parse address: %w", err)
	}
	if u.Host == "" {
		return endpoint{}, fmt.Errorf("transport: address %q has no host", address)
	}
	return endpoint{scheme: u.Scheme, host: u.Host, path: u.Path, raw: address}, nil
}

// Dial connects to address. Supported forms are host:port and tcp://host:port
// for TCP, quic://host:port for QUIC, and ws:// or wss:// URLs for WebSocket.
func Dial(ctx context.Context, address string, cfg Config) (Conn, error) {
	ep, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	switch ep.scheme {
	case "tcp":
		return asConn(tcp.Dial(ctx, ep.host, cfg.queueSize()))
	case "quic":
		return asConn(mquic.Dial(ctx, ep.host, cfg.clientTLS(), cfg.quicConfig(), cfg.queueSize()))
	case "ws", "wss":
		return asConn(mws.Dial(ctx, ep.raw, cfg.webSocketDialer(), cfg.queueSize()))
	default:
		return nil, ErrUnsupportedScheme{Scheme: ep.scheme}
	}
}

// asConn keeps a failed dial from producing a non-nil interface holding a nil
// pointer
func asConn[C Conn](conn C, err error) (Conn, error) {
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Listen binds address using the same forms as Dial. QUIC listeners need
// cfg.TLS; wss:// is not served directly and should sit behind a TLS proxy.
func Listen(ctx context.Context, address string, cfg Config) (Listener, error) {
	ep, err := parseAddress(address)
	if err != nil {
		return nil, err
	}

	switch ep.scheme {
	case "tcp":
		l, err := tcp.Listen(ctx, ep.host, cfg.queueSize())
		if err != nil {
			return nil, err
		}
		return listener[*tcp.Conn]{l}, nil
	case "quic":
		if cfg.TLS == nil {
			return nil, fmt.Errorf("transport: quic listener requires a TLS config")
		}
		l, err := mquic.Listen(ep.host, cfg.TLS, cfg.quicConfig(), cfg.queueSize())
		if err != nil {
			return nil, err
		}
		return listener[*mquic.Conn]{l}, nil
	case "ws":
		l, err := mws.Listen(ctx, ep.host, ep.path, cfg.webSocketUpgrader(), cfg.queueSize())
		if err != nil {
			return nil, err
		}
		return listener[*mws.Conn]{l}, nil
	default:
		return nil, ErrUnsupportedScheme{Scheme: ep.scheme}
	}
}

// listener adapts a concrete listener's Accept to return the Conn interface
type listener[C Conn] struct {
	concrete interface {
		Accept(ctx context.Context) (C, error)
		Close() error
		Addr() net.Addr
	}
}

func (l listener[C]) Accept(ctx context.Context) (Conn, error) {
	return asConn(l.concrete.Accept(ctx))
}

func (l listener[C]) Close() error {
	return l.concrete.Close()
}

func (l listener[C]) Addr() net.Addr {
	return l.concrete.Addr()
}
