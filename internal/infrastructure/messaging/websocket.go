package messaging

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ConnConfig tunes a websocket connection's write pump.
type ConnConfig struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// NewUpgrader returns an upgrader that accepts the given origins. An empty
// list accepts any origin.
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return len(allowed) == 0 || origin == "" || allowed[origin]
		},
	}
}

// Serve pumps client messages to conn until the client channel closes, the
// peer goes away or ctx ends. It closes conn before returning.
func Serve(ctx context.Context, conn *websocket.Conn, client *Client, cfg ConnConfig) error {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	pongWait := cfg.PingInterval * 2

	defer conn.Close()

	// Reader: only control frames matter; any read error ends the session.
	peerGone := make(chan struct{})
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(peerGone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			writeClose(conn, cfg.WriteTimeout, websocket.CloseGoingAway)
			return ctx.Err()
		case <-peerGone:
			return nil
		case message, ok := <-client.Send:
			if !ok {
				writeClose(conn, cfg.WriteTimeout, websocket.CloseNormalClosure)
				return nil
			}
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return err
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func writeClose(conn *websocket.Conn, timeout time.Duration, code int) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), time.Now().Add(timeout))
}
