package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/cryptoscore/internal/contracts"
	"github.com/wonny/cryptoscore/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Scores are public data, no origin restriction
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ScoreEvent is pushed to subscribers after each completed run
type ScoreEvent struct {
	Type     string  `json:"type"`
	AssetID  string  `json:"asset_id"`
	ScoredAt string  `json:"scored_at"`
	Value    float64 `json:"value"`
	Display  float64 `json:"display"`
	Complete bool    `json:"complete"`
}

// Hub fans freshly computed scores out to websocket subscribers
// ⭐ SSOT: 점수 실시간 브로드캐스트는 여기서만
type Hub struct {
	logger *logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a new websocket hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger:  log.WithField("module", "ws"),
		clients: make(map[*client]struct{}),
	}
}

// Broadcast pushes a score to every connected subscriber.
// Slow subscribers are dropped rather than blocking the pipeline.
func (h *Hub) Broadcast(score *contracts.CompositeScore) {
	event := ScoreEvent{
		Type:     "score",
		AssetID:  score.AssetID,
		ScoredAt: score.ScoredAt.UTC().Format(time.RFC3339),
		Value:    score.Value,
		Display:  score.Display(),
		Complete: score.Complete,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal score event")
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			h.drop(c)
		}
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and registers the subscriber
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 16),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.WithField("remote", r.RemoteAddr).Debug("Websocket client connected")

	go c.writePump()
	go c.readPump()
}

// drop unregisters a client and closes its connection
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, registered := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if registered {
		close(c.send)
		c.conn.Close()
	}
}

// client is one websocket subscriber
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump drains inbound frames and detects disconnects
func (c *client) readPump() {
	defer c.hub.drop(c)

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

// writePump sends queued events and keepalive pings
func (c *client) writePump() {
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
