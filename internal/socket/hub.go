// Package socket provides the websocket hub, the secondary long-lived service
// closed before the HTTP server on shutdown.
package socket

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DefaultPath is where the hub is mounted.
const DefaultPath = "/ws"

// ErrClosed is returned when using a closed hub.
var ErrClosed = errors.New("socket hub is closed")

const writeWait = 5 * time.Second

// Hub tracks websocket connections and fans out broadcasts.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	conns   map[*client]struct{}
	started bool
	closed  bool
	wg      sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// New creates an idle hub.
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
		conns:  make(map[*client]struct{}),
	}
}

// Mount registers the hub on e at path and marks it started.
func (h *Hub) Mount(e *echo.Echo, path string) {
	if path == "" {
		path = DefaultPath
	}
	e.GET(path, echo.WrapHandler(h))

	h.mu.Lock()
	h.started = true
	h.mu.Unlock()
}

// Started reports whether the hub was mounted and is not closed.
func (h *Hub) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started && !h.closed
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// ServeHTTP upgrades the request and echoes text frames to every peer.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conns[c] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	go h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer h.wg.Done()
	defer h.remove(c)

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		if messageType == websocket.TextMessage {
			_ = h.Broadcast(data)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.conn.Close()
}

// Broadcast sends a text frame to every connection. Failed peers are dropped.
func (h *Hub) Broadcast(data []byte) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	clients := make([]*client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.write(websocket.TextMessage, data); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			c.conn.Close()
		}
	}
	return nil
}

// Close sends a close frame to every connection, waits for their read loops
// to finish and rejects further upgrades.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*client, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range clients {
		if err := c.write(websocket.CloseMessage, msg); err != nil {
			c.conn.Close()
		}
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		for _, c := range clients {
			c.conn.Close()
		}
		return ctx.Err()
	}
	h.logger.Info("socket hub closed", zap.Int("connections", len(clients)))
	return nil
}
