// Package live fans song counter updates out to websocket subscribers.
// Updates arrive over the Redis stats channel so every server instance
// sees increments made by any of them.
package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"tunehub/cache"
	"tunehub/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Client is one connected websocket subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	songIDs map[int64]bool // empty set means all songs
}

// subscribeRequest is the only message clients send: the set of song IDs
// they want updates for.
type subscribeRequest struct {
	SongIDs []int64 `json:"songIds"`
}

// Hub tracks connected clients and broadcasts stat updates to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

// Run consumes the Redis stats channel until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	sub := cache.SubscribeStats(ctx)
	if sub == nil {
		logger.Warn("Live stats hub disabled: no Redis connection")
		return
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var update cache.StatsUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				logger.Warn("Dropping malformed stats update", logger.ErrorField(err))
				continue
			}
			h.broadcast(&update, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(update *cache.StatsUpdate, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.wants(update.SongID) {
			continue
		}
		select {
		case client.send <- payload:
		default:
			// Slow consumer, drop the update rather than block the hub.
		}
	}
}

// Register attaches a new websocket connection to the hub and starts its
// read and write pumps.
func (h *Hub) Register(conn *websocket.Conn) {
	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 16),
		songIDs: make(map[int64]bool),
	}

	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

func (c *Client) wants(songID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.songIDs) == 0 || c.songIDs[songID]
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}

		c.mu.Lock()
		c.songIDs = make(map[int64]bool, len(req.SongIDs))
		for _, id := range req.SongIDs {
			c.songIDs[id] = true
		}
		c.mu.Unlock()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
