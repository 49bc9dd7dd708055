package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"fuelfleet-backend/internal/location"
	"fuelfleet-backend/internal/models"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 2048
)

// Client is one WebSocket session. Drivers push location updates through
// it; admin and customer sessions mostly just receive broadcasts.
type Client struct {
	id     string
	userID int
	role   string

	conn  *websocket.Conn
	hub   *Hub
	store *location.Store

	// sendMu guards send against close: the hub prunes (and closes) a
	// connection whose buffer is full while ReadPump may still be replying
	// on it, and a send on a closed channel panics.
	sendMu sync.Mutex
	closed bool
	send   chan []byte
}

// IncomingMessage is a message from the peer.
type IncomingMessage struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// NewClient wraps an upgraded connection.
func NewClient(userID int, role string, conn *websocket.Conn, hub *Hub, store *location.Store) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		role:   role,
		conn:   conn,
		hub:    hub,
		store:  store,
		send:   make(chan []byte, 256),
	}
}

func (c *Client) ID() string        { return c.id }
func (c *Client) SubscriberID() int { return c.userID }
func (c *Client) Role() string      { return c.role }

// TrySend queues a message without blocking. False means the session is
// closed or its buffer is full and the hub should prune the connection.
func (c *Client) TrySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close is called by the hub once the connection has left the registry.
// Safe against concurrent TrySend and against being called twice.
func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump pumps messages from the peer. Runs in its own goroutine; exits
// on any read error and unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("ws invalid message format: %v", err)
			continue
		}

		switch msg.Type {
		case "ping":
			c.reply(map[string]interface{}{
				"type":      "pong",
				"timestamp": time.Now().Format(time.RFC3339),
			})

		case "location_update":
			c.handleLocationUpdate(msg.Data)
		}
	}
}

// WritePump pumps hub messages to the peer and keeps the connection alive
// with periodic pings.
func (c *Client) WritePump() {
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued messages into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

// handleLocationUpdate ingests a driver GPS sample: geofence-validate,
// persist, then fan out to admin sessions. Rejections are sent back to the
// driver device, never silently dropped.
func (c *Client) handleLocationUpdate(data map[string]interface{}) {
	if c.role != models.RoleDriver {
		return
	}

	latitude, ok := data["latitude"].(float64)
	if !ok {
		c.replyError("invalid latitude in location update")
		return
	}
	longitude, ok := data["longitude"].(float64)
	if !ok {
		c.replyError("invalid longitude in location update")
		return
	}

	req := models.LocationUpdateRequest{
		Latitude:  latitude,
		Longitude: longitude,
	}
	if v, ok := data["accuracy"].(float64); ok {
		req.Accuracy = &v
	}
	if v, ok := data["speed"].(float64); ok {
		req.SpeedKmh = &v
	}
	if v, ok := data["heading"].(float64); ok {
		req.Heading = &v
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sample, err := c.store.Record(ctx, c.userID, req)
	if err != nil {
		if errors.Is(err, location.ErrOutsideServiceArea) {
			c.replyError("invalid location - coordinates outside service area")
		} else {
			log.Printf("ws location persist failed for driver %d: %v", c.userID, err)
			c.replyError("failed to record location")
		}
		return
	}

	c.hub.BroadcastToRole(models.RoleAdmin, map[string]interface{}{
		"type": "location_update",
		"data": sample,
	})
}

func (c *Client) reply(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.TrySend(data)
}

func (c *Client) replyError(message string) {
	c.reply(map[string]interface{}{
		"type":  "error",
		"error": message,
	})
}
