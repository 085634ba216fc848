package websocket_test

import (
	"context"
	"net"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/plus3/mmoss/transport"
	"github.com/plus3/mmoss/transport/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopback(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, err := websocket.Listen(ctx, "127.0.0.1:0", "", nil, 8)
	require.NoError(t, err)
	defer listener.Close()

	url := "ws://" + listener.Addr().String() + websocket.DefaultPath
	client, err := websocket.Dial(ctx, url, nil, 8)
	require.NoError(t, err)
	defer client.Close()

	server, err := listener.Accept(ctx)
	require.NoError(t, err)
	defer server.Close()

	require.NoError(t, client.Send(ctx, []byte{0, 5, 1}))
	got, err := server.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 5, 1}, got)

	require.NoError(t, server.Send(ctx, []byte("pong")))
	got, err = client.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), got)

	require.NoError(t, client.Close())
	_, err = server.Receive(ctx)
	assert.Error(t, err)
}

func TestAcceptAfterClose(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, err := websocket.Listen(ctx, "127.0.0.1:0", "/custom", nil, 8)
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	_, err = listener.Accept(ctx)
	assert.ErrorIs(t, err, net.ErrClosed)
}

func TestOversizedMessages(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	listener, err := websocket.Listen(ctx, "127.0.0.1:0", "", nil, 8)
	require.NoError(t, err)
	defer listener.Close()

	url := "ws://" + listener.Addr().String() + websocket.DefaultPath
	client, err := websocket.Dial(ctx, url, nil, 8)
	require.NoError(t, err)
	defer client.Close()

	server, err := listener.Accept(ctx)
	require.NoError(t, err)
	defer server.Close()

	assert.ErrorIs(t, client.Send(ctx, make([]byte, 70000)), transport.ErrFrameTooLarge)

	// a peer that ignores the frame limit gets disconnected
	raw, resp, err := gorillaws.DefaultDialer.DialContext(ctx, url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer raw.Close()

	peer, err := listener.Accept(ctx)
	require.NoError(t, err)
	defer peer.Close()

	require.NoError(t, raw.WriteMessage(gorillaws.BinaryMessage, make([]byte, 70000)))
	_, err = peer.Receive(ctx)
	assert.ErrorIs(t, err, gorillaws.ErrReadLimit)
}
