package transport

import (
	"crypto/tls"

	"github.com/gorilla/websocket"
	mquic "github.com/plus3/mmoss/transport/quic"
	mws "github.com/plus3/mmoss/transport/websocket"
	"github.com/quic-go/quic-go"
)

// Config carries per-transport settings. Fields left nil fall back to the
// transport defaults.
type Config struct {
	// TLS is used by QUIC (required when listening) and wss://
	TLS  *tls.Config
	QUIC *quic.Config

	WebSocketDialer   *websocket.Dialer
	WebSocketUpgrader *websocket.Upgrader

	// QueueSize bounds the frames buffered between a connection's read pump and
	// Receive
	QueueSize int
}

func DefaultConfig() Config {
	return Config{
		QUIC:      mquic.DefaultConfig(),
		QueueSize: 256,
	}
}

func (c Config) queueSize() int {
	if c.QueueSize <= 0 {
		return DefaultConfig().QueueSize
	}
	return c.QueueSize
}

func (c Config) quicConfig() *quic.Config {
	if c.QUIC == nil {
		return mquic.DefaultConfig()
	}
	return c.QUIC
}

// clientTLS verifies the server certificate unless the caller supplied a
// config saying otherwise
func (c Config) clientTLS() *tls.Config {
	if c.TLS == nil {
		return &tls.Config{NextProtos: []string{mquic.ALPN}}
	}
	return c.TLS
}

func (c Config) webSocketDialer() *websocket.Dialer {
	if c.WebSocketDialer != nil {
		return c.WebSocketDialer
	}
	dialer := *websocket.DefaultDialer
	if c.TLS != nil {
		// wss:// servers negotiate http/1.1, not the QUIC protocol name
		dialer.TLSClientConfig = c.TLS.Clone()
		dialer.TLSClientConfig.NextProtos = nil
	}
	return &dialer
}

func (c Config) webSocketUpgrader() *websocket.Upgrader {
	if c.WebSocketUpgrader != nil {
		return c.WebSocketUpgrader
	}
	return mws.DefaultUpgrader()
}
