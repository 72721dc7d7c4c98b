// Package feed exposes delivered events over WebSocket. It is a
// delivery sink, not an API: observers connect and passively receive
// every event the moment the deliverer reveals it.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/duskhall/delve/internal/event"
	"github.com/duskhall/delve/internal/logger"
)

// Hub fans delivered events out to connected WebSocket observers.
// It satisfies event.Sink.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// clientBuffer is how many events a slow observer may fall behind
// before being dropped.
const clientBuffer = 64

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Publish broadcasts one delivered event to every observer. A client
// whose buffer is full is disconnected rather than allowed to stall
// delivery. Implements event.Sink.
func (h *Hub) Publish(ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Event marshal failed", "run_id", ev.RunID, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Handler returns the HTTP handler that upgrades observers to
// WebSocket and registers them with the hub.
func (h *Hub) Handler() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade failed", "error", err)
			return
		}

		c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()
		logger.Info("Feed observer connected", "remote_addr", conn.RemoteAddr().String())

		go h.writeLoop(c)
		go h.readLoop(c)
	}
}

// writeLoop drains the client's send buffer onto the wire.
func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
	c.conn.Close()
}

// readLoop discards inbound messages and notices disconnects. The feed
// is one-way; observers have nothing to say.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

// drop unregisters a client and closes its connection.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// Serve runs the feed's HTTP server on addr until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", h.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	logger.Info("Event feed listening", "address", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
