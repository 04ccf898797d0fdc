package livews

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/GymDashBack/internal/logger"
	"github.com/saeid-a/GymDashBack/internal/models"
	"go.uber.org/zap"
)

const (
	clientBufferSize    = 32
	broadcastBufferSize = 64
)

// Hub fans plan events out to every open connection of each recipient.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.PlanEvent
	done       chan struct{}
}

type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	hub    *Hub
	conn   conn
	userID int64
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

type frame struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.PlanEvent, broadcastBufferSize),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, clientBufferSize),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					client.close()
				}
			}
			h.clients = make(map[int64]map[*Client]struct{})
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Register is a no-op once Run has returned; the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event without blocking the caller; events are dropped
// when the hub is saturated.
func (h *Hub) Publish(event models.PlanEvent) {
	select {
	case h.broadcast <- event:
	default:
		logger.L().Warn("live feed saturated, dropping event",
			zap.String("type", event.Type),
			zap.Int64("plan_id", event.PlanID),
		)
	}
}

func (h *Hub) deliver(event models.PlanEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.L().Error("encode plan event", zap.Error(err))
		return
	}

	seen := make(map[int64]struct{}, len(event.Recipients))
	for _, userID := range event.Recipients {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		h.sendToUser(userID, payload)
	}
}

func (h *Hub) sendToUser(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}
	for client := range set {
		if !client.enqueue(payload) {
			logger.L().Info("dropping slow live client", zap.Int64("user_id", userID))
			delete(set, client)
			client.close()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		client.close()
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump answers pings until the connection fails. The live feed is
// server-push only, so every other frame gets an error reply.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.reply(frame{Type: "error", Message: "invalid message payload"})
			continue
		}
		if incoming.Type != "ping" {
			c.reply(frame{Type: "error", Message: "unsupported message type"})
			continue
		}
		c.reply(frame{Type: "pong"})
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) reply(message frame) {
	message.Timestamp = time.Now().UTC()
	payload, err := json.Marshal(message)
	if err != nil {
		return
	}
	c.enqueue(payload)
}
