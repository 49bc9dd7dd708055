package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Sender is one live outbound channel to a session. TrySend must never
// block: it reports false when the session is dead or its buffer is full,
// and the hub prunes it. Fire-and-forget, at-most-once per connection.
type Sender interface {
	// ID is the unique connection id.
	ID() string
	// SubscriberID is the authenticated user id, 0 for anonymous sessions.
	SubscriberID() int
	// Role is the session role: admin, driver or customer.
	Role() string
	TrySend(data []byte) bool
}

// Hub maintains the registry of open connections and fans out messages to
// them by subscriber id or by role. Delivery is best-effort: a failed send
// removes that connection and never interrupts delivery to the rest, nor
// surfaces to the caller.
type Hub struct {
	// Registered connections, keyed by connection id. A subscriber may
	// hold several sessions; all of them receive subscriber-addressed
	// messages.
	mu    sync.RWMutex
	conns map[string]Sender

	register   chan Sender
	unregister chan Sender
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns:      make(map[string]Sender),
		register:   make(chan Sender, 16),
		unregister: make(chan Sender, 16),
	}
}

// Run processes connect/disconnect requests. Start once, in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.Add(conn)
		case conn := <-h.unregister:
			h.Remove(conn.ID())
		}
	}
}

// Register queues a connection for registration.
func (h *Hub) Register(conn Sender) {
	h.register <- conn
}

// Unregister queues a connection for removal.
func (h *Hub) Unregister(conn Sender) {
	h.unregister <- conn
}

// Add puts a connection in the registry immediately.
func (h *Hub) Add(conn Sender) {
	h.mu.Lock()
	h.conns[conn.ID()] = conn
	total := len(h.conns)
	h.mu.Unlock()
	log.Printf("ws connected: subscriber=%d role=%s total=%d", conn.SubscriberID(), conn.Role(), total)
}

// Remove drops a connection from the registry immediately.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	total := len(h.conns)
	h.mu.Unlock()
	if ok {
		if c, closable := conn.(interface{ close() }); closable {
			c.close()
		}
		log.Printf("ws disconnected: subscriber=%d role=%s remaining=%d", conn.SubscriberID(), conn.Role(), total)
	}
}

// SendToSubscriber delivers a message to every session of one subscriber.
func (h *Hub) SendToSubscriber(subscriberID int, payload interface{}) {
	h.send(payload, func(c Sender) bool { return c.SubscriberID() == subscriberID })
}

// BroadcastToRole delivers a message to every session with the given role.
func (h *Hub) BroadcastToRole(role string, payload interface{}) {
	h.send(payload, func(c Sender) bool { return c.Role() == role })
}

func (h *Hub) send(payload interface{}, match func(Sender) bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws marshal failed: %v", err)
		return
	}

	var dead []string

	h.mu.RLock()
	for id, conn := range h.conns {
		if !match(conn) {
			continue
		}
		if !conn.TrySend(data) {
			dead = append(dead, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range dead {
		log.Printf("ws send failed, pruning connection %s", id)
		h.Remove(id)
	}
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// IsSubscriberConnected reports whether any session exists for a
// subscriber.
func (h *Hub) IsSubscriberConnected(subscriberID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.conns {
		if conn.SubscriberID() == subscriberID {
			return true
		}
	}
	return false
}
