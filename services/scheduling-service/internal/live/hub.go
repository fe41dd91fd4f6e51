// Package live pushes a company's domain events to its staff over WebSocket.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/md-rashed-zaman/nexsched/libs/httpx"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/events"
	"github.com/md-rashed-zaman/nexsched/services/scheduling-service/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 32
)

type client struct {
	companyID string
	conn      *websocket.Conn
	send      chan []byte
}

// Hub fans events out to the connections of the event's company. A client
// whose buffer is full misses the event rather than stalling the emitter.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub accepts upgrades from the listed origins; "*" or an empty list
// accepts any.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	h := &Hub{logger: logger, clients: make(map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || len(allowedOrigins) == 0 || httpx.OriginAllowed(origin, allowedOrigins)
		},
	}
	return h
}

func (h *Hub) Emit(_ context.Context, e events.Event) {
	raw, err := json.Marshal(e)
	if err != nil {
		h.logger.Error("live event encode failed", "event_type", e.Type, "err", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.companyID != e.AggregateID {
			continue
		}
		select {
		case c.send <- raw:
		default:
			h.logger.Warn("live client too slow, event skipped", "company_id", c.companyID, "event_type", e.Type)
		}
	}
}

// Serve upgrades the request and streams companyID's events until the peer
// goes away. It blocks for the lifetime of the connection.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, companyID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live upgrade failed", "err", err)
		return
	}
	c := &client{companyID: companyID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	go h.writeLoop(c)
	h.readLoop(c)
}

// Count is the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.conn.Close()
		close(c.send)
		delete(h.clients, c)
	}
	metrics.LiveConnections.Set(0)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	metrics.LiveConnections.Set(float64(len(h.clients)))
	h.logger.Info("live client connected", "company_id", c.companyID)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	_ = c.conn.Close()
	metrics.LiveConnections.Set(float64(len(h.clients)))
	h.logger.Info("live client disconnected", "company_id", c.companyID)
}

// readLoop only services control frames; staff never send data.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("live connection error", "company_id", c.companyID, "err", err)
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
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
