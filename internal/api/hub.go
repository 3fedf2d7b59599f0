package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // operational endpoint, origin checks left to the proxy
	},
}

// CallEvent is one entry on the operational event feed.
type CallEvent struct {
	Type      string    `json:"type"` // answered, turn, no_input, hangup
	CallID    string    `json:"call_id"`
	Phase     string    `json:"phase,omitempty"`
	Intent    string    `json:"intent,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans call events out to connected operator dashboards.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

// Broadcast sends the event to every connected client. Slow clients are
// dropped rather than allowed to stall the feed.
func (h *Hub) Broadcast(event CallEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("ops feed: encoding event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// handleWebSocket upgrades the connection and starts its pumps.
func (h *Hub) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ops feed: failed to upgrade connection: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 256)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()
	go h.readPump(client)
}

// readPump drains the connection so control frames are processed; the
// feed is one-way.
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ops feed: websocket error: %v", err)
			}
			return
		}
	}
}

// writePump pushes events to the client and keeps the connection alive.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
