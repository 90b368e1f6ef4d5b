package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Transport carries raw text frames over one streaming connection.
type Transport interface {
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Dialer opens a Transport to url.
type Dialer func(ctx context.Context, url string) (Transport, error)

// WebSocketDialer returns a Dialer backed by coder/websocket. readLimit caps
// the size of a single received frame; zero keeps the library default.
func WebSocketDialer(dialTimeout time.Duration, readLimit int64, headers http.Header) Dialer {
	return func(ctx context.Context, url string) (Transport, error) {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()

		conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{HTTPHeader: headers})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to WebSocket: %w", err)
		}
		if readLimit > 0 {
			conn.SetReadLimit(readLimit)
		}

		return &webSocketTransport{conn: conn}, nil
	}
}

type webSocketTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (t *webSocketTransport) Send(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *webSocketTransport) Receive(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

func (t *webSocketTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "client disconnect")
}
