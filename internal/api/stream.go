package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/halcyonlabs/georadar/internal/contracts"
	"github.com/halcyonlabs/georadar/pkg/logger"
)

const (
	writeWait     = 10 * time.Second
	pingInterval  = 30 * time.Second
	clientBufSize = 64
)

// Hub broadcasts newly published scoring results to websocket
// subscribers. Only non-green results are pushed.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	clients map[*streamClient]bool
	mu      sync.RWMutex
}

// streamClient is one connected subscriber with a buffered send queue.
// A subscriber that cannot keep up is dropped, not waited on.
type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a websocket broadcast hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  log.WithComponent("api.stream"),
		clients: make(map[*streamClient]bool),
	}
}

// ServeWS upgrades a request to a websocket subscription
// GET /ws/alerts
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &streamClient{
		conn: conn,
		send: make(chan []byte, clientBufSize),
	}

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Debug("Websocket client connected")

	go h.writePump(client)
	go h.readPump(client)
}

// alertEvent is one pushed message
type alertEvent struct {
	Type   string                   `json:"type"`
	Result *contracts.ScoringResult `json:"result"`
}

// BroadcastResults pushes every non-green result to all subscribers
func (h *Hub) BroadcastResults(results []*contracts.ScoringResult) {
	pushed := 0
	for _, result := range results {
		if result.Level == contracts.LevelGreen {
			continue
		}

		data, err := json.Marshal(alertEvent{Type: "alert", Result: result})
		if err != nil {
			h.logger.WithError(err).Error("Failed to marshal alert event")
			continue
		}

		h.mu.RLock()
		for client := range h.clients {
			select {
			case client.send <- data:
			default:
				// Slow subscriber; closing send makes its write pump exit
				go h.remove(client)
			}
		}
		h.mu.RUnlock()
		pushed++
	}

	if pushed > 0 {
		h.logger.WithField("alerts", pushed).Debug("Broadcast alerts")
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writePump drains a client's send queue and keeps the connection alive
func (h *Hub) writePump(client *streamClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.remove(client)
	}()

	for {
		select {
		case data, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound messages and detects disconnects
func (h *Hub) readPump(client *streamClient) {
	defer h.remove(client)

	client.conn.SetReadLimit(512)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// remove unregisters a client and closes its connection. Safe to call
// more than once per client.
func (h *Hub) remove(client *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	close(client.send)
	_ = client.conn.Close()
}
