// Package push broadcasts detection passes to connected dashboard clients
// over websockets. The core never touches socket lifecycle; it only hands
// each pass to the hub through the publisher interface.
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/surebet-tool/internal/publisher"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard frontend is served from a different origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one connected websocket subscriber.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub maintains the set of connected clients and fans detection passes out
// to them. It implements publisher.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	logger  *logrus.Logger
}

// NewHub creates a new websocket hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		logger:  logger,
	}
}

// Name identifies the publisher
func (h *Hub) Name() string {
	return "websocket"
}

// Publish broadcasts the pass to every connected client. Slow clients have
// their buffer overwritten semantics: if a client cannot keep up the message
// is dropped for that client only.
func (h *Hub) Publish(ctx context.Context, pass publisher.Pass) error {
	payload, err := json.Marshal(pass)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.WithField("client", c.id).Debug("Client send buffer full, dropping pass")
		}
	}
	return nil
}

// ServeWS upgrades an HTTP request to a websocket subscription
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.WithFields(logrus.Fields{"client": c.id, "total": total}).Info("Dashboard client connected")

	go h.writePump(c)
	go h.readPump(c)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects all clients
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump drains client messages; subscribers don't send anything we act
// on, but reading is required to process control frames.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		h.logger.WithField("client", c.id).Info("Dashboard client disconnected")
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards queued passes and keeps the connection alive with pings
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
