package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"fuelfleet-backend/internal/models"
)

// fakeSender is an in-memory Sender for hub tests.
type fakeSender struct {
	id     string
	userID int
	role   string

	mu       sync.Mutex
	messages [][]byte
	dead     bool
	closed   bool
}

func (f *fakeSender) ID() string        { return f.id }
func (f *fakeSender) SubscriberID() int { return f.userID }
func (f *fakeSender) Role() string      { return f.role }

func (f *fakeSender) TrySend(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead {
		return false
	}
	f.messages = append(f.messages, data)
	return true
}

func (f *fakeSender) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestHubBroadcastToRole(t *testing.T) {
	hub := NewHub()
	admin1 := &fakeSender{id: "a1", userID: 1, role: models.RoleAdmin}
	admin2 := &fakeSender{id: "a2", userID: 2, role: models.RoleAdmin}
	driver := &fakeSender{id: "d1", userID: 11, role: models.RoleDriver}

	hub.Add(admin1)
	hub.Add(admin2)
	hub.Add(driver)

	hub.BroadcastToRole(models.RoleAdmin, map[string]string{"type": "location_update"})

	if admin1.received() != 1 || admin2.received() != 1 {
		t.Fatalf("admins received %d/%d, want 1/1", admin1.received(), admin2.received())
	}
	if driver.received() != 0 {
		t.Fatalf("driver received %d, want 0", driver.received())
	}

	var msg map[string]string
	if err := json.Unmarshal(admin1.messages[0], &msg); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if msg["type"] != "location_update" {
		t.Fatalf("payload = %v", msg)
	}
}

func TestHubSendToSubscriberHitsAllSessions(t *testing.T) {
	hub := NewHub()
	// Same user on two devices.
	phone := &fakeSender{id: "c1", userID: 20, role: models.RoleCustomer}
	tablet := &fakeSender{id: "c2", userID: 20, role: models.RoleCustomer}
	other := &fakeSender{id: "c3", userID: 21, role: models.RoleCustomer}

	hub.Add(phone)
	hub.Add(tablet)
	hub.Add(other)

	hub.SendToSubscriber(20, map[string]string{"type": "order_update"})

	if phone.received() != 1 || tablet.received() != 1 {
		t.Fatalf("sessions received %d/%d, want 1/1", phone.received(), tablet.received())
	}
	if other.received() != 0 {
		t.Fatalf("other subscriber received %d, want 0", other.received())
	}
}

func TestHubPrunesDeadConnections(t *testing.T) {
	hub := NewHub()
	alive := &fakeSender{id: "a1", userID: 1, role: models.RoleAdmin}
	dead := &fakeSender{id: "a2", userID: 2, role: models.RoleAdmin, dead: true}

	hub.Add(alive)
	hub.Add(dead)

	hub.BroadcastToRole(models.RoleAdmin, map[string]string{"type": "ping"})

	// The dead connection is removed and closed; the live one is untouched.
	if hub.ConnectionCount() != 1 {
		t.Fatalf("connections = %d, want 1", hub.ConnectionCount())
	}
	if !dead.closed {
		t.Fatal("pruned connection must be closed")
	}
	if alive.received() != 1 {
		t.Fatalf("live connection received %d, want 1", alive.received())
	}

	// Subsequent broadcasts reach the survivor only.
	hub.BroadcastToRole(models.RoleAdmin, map[string]string{"type": "ping"})
	if alive.received() != 2 {
		t.Fatalf("live connection received %d, want 2", alive.received())
	}
}

func TestHubRemoveIsIdempotent(t *testing.T) {
	hub := NewHub()
	conn := &fakeSender{id: "x", userID: 5, role: models.RoleDriver}
	hub.Add(conn)

	hub.Remove("x")
	hub.Remove("x")
	hub.Remove("never-existed")

	if hub.ConnectionCount() != 0 {
		t.Fatalf("connections = %d, want 0", hub.ConnectionCount())
	}
}

func TestHubIsSubscriberConnected(t *testing.T) {
	hub := NewHub()
	conn := &fakeSender{id: "x", userID: 5, role: models.RoleDriver}
	hub.Add(conn)

	if !hub.IsSubscriberConnected(5) {
		t.Fatal("subscriber 5 should be connected")
	}
	if hub.IsSubscriberConnected(6) {
		t.Fatal("subscriber 6 should not be connected")
	}

	hub.Remove("x")
	if hub.IsSubscriberConnected(5) {
		t.Fatal("subscriber 5 should be gone after removal")
	}
}

func TestHubConcurrentBroadcasts(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 10; i++ {
		hub.Add(&fakeSender{id: string(rune('a' + i)), userID: i, role: models.RoleAdmin})
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastToRole(models.RoleAdmin, map[string]string{"type": "tick"})
		}()
	}
	wg.Wait()

	if hub.ConnectionCount() != 10 {
		t.Fatalf("connections = %d, want 10", hub.ConnectionCount())
	}
}
