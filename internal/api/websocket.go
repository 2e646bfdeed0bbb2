// internal/api/websocket.go
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The console serves a single local UI; tighten in production
		return true
	},
}

// Event is one realtime message pushed to the UI: reveal ticks, draft
// state changes and chat appends.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// wsClient is one connected UI client.
type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	closed   int32
	lastPing time.Time
}

// Close marks the client closed and closes the connection.
func (c *wsClient) Close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.conn.Close()
	}
}

// IsClosed reports whether the client has been closed.
func (c *wsClient) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// Hub fans console events out to every connected UI client.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*wsClient]bool
	register    chan *wsClient
	unregister  chan *wsClient
	broadcast   chan []byte
	pingTimeout time.Duration
}

// NewHub creates the hub and starts its run loop.
func NewHub() *Hub {
	h := &Hub{
		clients:     make(map[*wsClient]bool),
		register:    make(chan *wsClient, 64),
		unregister:  make(chan *wsClient, 64),
		broadcast:   make(chan []byte, 256),
		pingTimeout: 60 * time.Second,
	}
	go h.run()
	return h
}

// run is the hub main loop.
func (h *Hub) run() {
	cleanupTicker := time.NewTicker(30 * time.Second)
	defer cleanupTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			client.lastPing = time.Now()
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			h.mu.Unlock()
			client.Close()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if client.IsClosed() {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Queue full, drop the client rather than block the hub
					client.Close()
				}
			}
			h.mu.RUnlock()

		case <-cleanupTicker.C:
			h.mu.Lock()
			for client := range h.clients {
				if client.IsClosed() || time.Since(client.lastPing) > h.pingTimeout {
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts an event to all connected clients. Used by the
// controllers as their Notifier sink.
func (h *Hub) Publish(eventType string, payload interface{}) {
	msg, err := json.Marshal(Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("failed to marshal ws event %s: %v", eventType, err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("ws broadcast queue full, dropping %s event", eventType)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWS upgrades the request and runs the client pumps.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		conn:     conn,
		send:     make(chan []byte, 64),
		lastPing: time.Now(),
	}
	h.register <- client

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's send queue.
func (h *Hub) writePump(client *wsClient) {
	pingTicker := time.NewTicker(30 * time.Second)
	defer func() {
		pingTicker.Stop()
		client.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-pingTicker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes control frames and detects disconnects.
func (h *Hub) readPump(client *wsClient) {
	defer func() {
		h.unregister <- client
	}()

	client.conn.SetReadLimit(1024)
	client.conn.SetReadDeadline(time.Now().Add(h.pingTimeout))
	client.conn.SetPongHandler(func(string) error {
		client.lastPing = time.Now()
		client.conn.SetReadDeadline(time.Now().Add(h.pingTimeout))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
