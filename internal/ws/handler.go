package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/poolsim/internal/game"
	"github.com/playmatatu/poolsim/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by middleware.WebSocketCORSCheck
	},
}

// Client is one connected viewer of an env
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	envID string
	send  chan []byte
}

// Hub fans env snapshots out to every viewer of that env
type Hub struct {
	rooms map[string]map[*Client]struct{} // envID -> clients
	mu    sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.envID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.envID] = room
	}
	room[c] = struct{}{}
	log.Printf("[WS] viewer joined env %s (room_size=%d)", c.envID, len(room))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.envID]
	if !ok {
		return
	}
	if _, ok := room[c]; ok {
		delete(room, c)
		close(c.send)
	}
	if len(room) == 0 {
		delete(h.rooms, c.envID)
	}
}

// RoomSize returns the number of viewers of an env.
func (h *Hub) RoomSize(envID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[envID])
}

// Broadcast sends a raw message to every viewer of an env.
func (h *Hub) Broadcast(envID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[envID] {
		select {
		case client.send <- data:
		default:
			// Client's buffer is full
			log.Printf("[WS] send buffer full for viewer of env %s, dropping message", envID)
		}
	}
}

// BroadcastSnapshot wraps a snapshot as an event and broadcasts it.
func (h *Hub) BroadcastSnapshot(envID string, snap game.Snapshot) {
	data, err := json.Marshal(session.Event{Type: "snapshot", EnvID: envID, Snapshot: snap})
	if err != nil {
		log.Printf("[WS] Error marshaling snapshot: %v", err)
		return
	}
	h.Broadcast(envID, data)
}

// CloseRoom disconnects every viewer of an env.
func (h *Hub) CloseRoom(envID string) {
	h.mu.Lock()
	room := h.rooms[envID]
	delete(h.rooms, envID)
	h.mu.Unlock()

	for c := range room {
		close(c.send)
	}
}

// clientMessage is what viewers may send: {"type":"snapshot"} asks for a fresh frame.
type clientMessage struct {
	Type string `json:"type"`
}

// HandleEnvWebSocket upgrades the request and streams snapshots of :id until the viewer
// disconnects.
func HandleEnvWebSocket(hub *Hub, manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		envID := c.Param("id")
		snap, err := manager.Snapshot(envID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "env not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] upgrade failed for env %s: %v", envID, err)
			return
		}

		client := &Client{hub: hub, conn: conn, envID: envID, send: make(chan []byte, 16)}
		hub.register(client)
		go client.writePump()

		if data, err := json.Marshal(session.Event{Type: "snapshot", EnvID: envID, Snapshot: snap}); err == nil {
			client.trySend(data)
		}

		client.readPump(manager)
	}
}

// readPump handles viewer requests until the connection drops.
func (c *Client) readPump(manager *session.Manager) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] read error for env %s: %v", c.envID, err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}

		switch msg.Type {
		case "snapshot":
			snap, err := manager.Snapshot(c.envID)
			if err != nil {
				c.sendError("env not found")
				return
			}
			data, _ := json.Marshal(session.Event{Type: "snapshot", EnvID: c.envID, Snapshot: snap})
			c.trySend(data)
		case "ping":
			c.trySend([]byte(`{"type":"pong"}`))
		default:
			c.sendError("unknown message type")
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
				// Channel closed: the viewer left or the env was deleted
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for env %s: %v", c.envID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for env %s: %v", c.envID, err)
				return
			}
		}
	}
}

func (c *Client) trySend(data []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.rooms[c.envID][c]; !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] send buffer full for viewer of env %s", c.envID)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	c.trySend(data)
}
