// Package ws streams conversation messages to connected clients. Each client
// attaches to one session; every message appended to that session is pushed
// over the socket as it happens.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/VishwasN1706/airis/internal/entity"
)

// Hub manages WebSocket connections grouped by session.
type Hub struct {
	clients    map[*Client]bool
	outbound   chan *Envelope
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
	mu         sync.RWMutex
}

// Client represents one WebSocket connection, pinned to a single session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
}

// Envelope is the wire frame pushed to clients.
type Envelope struct {
	Type      string         `json:"type"` // message
	Payload   entity.Message `json:"payload"`
	Timestamp string         `json:"timestamp"`
	SessionID string         `json:"session_id"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins (configure in production)
	},
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		outbound:   make(chan *Envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client connected", "session_id", client.sessionID, "total", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("ws client disconnected", "session_id", client.sessionID, "total", total)

		case envelope := <-h.outbound:
			h.fanOut(envelope)
		}
	}
}

// fanOut sends an envelope to every client attached to its session.
func (h *Hub) fanOut(env *Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("ws marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.sessionID != env.SessionID {
			continue
		}

		select {
		case client.send <- data:
		default:
			// Buffer full, skip this message for this client
		}
	}
}

// Publish pushes a conversation message to clients watching the session. It
// satisfies the conversation service's notifier contract.
func (h *Hub) Publish(sessionID string, msg entity.Message) {
	env := &Envelope{
		Type:      "message",
		Payload:   msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SessionID: sessionID,
	}

	select {
	case h.outbound <- env:
	default:
		h.logger.Warn("ws outbound channel full, dropping message", "session_id", sessionID)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS handles GET /ws/sessions/{id} connection requests.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		http.Error(w, "session id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		sessionID: sessionID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection. Clients send nothing meaningful; the read
// loop exists to notice disconnects and answer pings.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("ws read error", "error", err)
			}
			break
		}
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
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

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Batch pending messages
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
