// Package events pushes library change notifications to connected browsers over websockets.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bookshelf/internal/contextutil"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Type names a kind of library change.
type Type string

const (
	BookAdded     Type = "book.added"
	BookRemoved   Type = "book.removed"
	StatusChanged Type = "book.status_changed"
	// LibraryRefresh tells clients their view may have diverged from the store.
	LibraryRefresh Type = "library.refresh"
)

// Event is the JSON message sent to every connected client.
type Event struct {
	Type    Type   `json:"type"`
	BookID  int    `json:"bookId,omitempty"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
	Refresh bool   `json:"refresh"`
}

// ErrClosed is returned when attaching to a hub that is no longer running.
var ErrClosed = errors.New("event hub closed")

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to all connected websocket clients.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	upgrader   websocket.Upgrader
	mu         sync.Mutex
}

// NewHub creates a hub. Call Run to start delivering events.
func NewHub() *Hub {
	h := &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOrigin,
	}
	return h
}

// Run delivers events until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow client; drop it rather than block the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for delivery. It never blocks; events are dropped
// when the queue is full or the hub has stopped.
func (h *Hub) Publish(ctx context.Context, event Event) {
	logger := contextutil.LoggerFromContext(ctx)

	data, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "failed to encode event", "type", event.Type, "error", err)
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		logger.WarnContext(ctx, "event queue full, dropping event", "type", event.Type)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Attach upgrades the request to a websocket and streams events to it until
// either side closes the connection.
func (h *Hub) Attach(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return ErrClosed
	}

	go h.writePump(c)
	h.readPump(c)
	return nil
}

// readPump consumes control frames so pongs are processed. Client messages are discarded.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sameOrigin accepts requests without an Origin header or whose Origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}
