package websocket

import (
	"sync"
	"testing"

	"fuelfleet-backend/internal/models"
)

// A driver session can be replying to its peer at the same moment the hub
// prunes it for a full buffer. Closing the send channel under a concurrent
// TrySend must degrade to a failed send, never a panic.
func TestClientTrySendDuringPrune(t *testing.T) {
	for i := 0; i < 2000; i++ {
		hub := NewHub()
		client := NewClient(11, models.RoleDriver, nil, hub, nil)
		hub.Add(client)

		// Fill the buffer so the next hub broadcast fails and prunes.
		for len(client.send) < cap(client.send) {
			if !client.TrySend([]byte(`{}`)) {
				break
			}
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.BroadcastToRole(models.RoleDriver, map[string]string{"type": "tick"})
		}()
		go func() {
			defer wg.Done()
			client.replyError("buffer contention")
		}()
		wg.Wait()

		if hub.ConnectionCount() != 0 {
			t.Fatal("full-buffer connection should have been pruned")
		}
	}
}

func TestClientTrySendAfterClose(t *testing.T) {
	client := NewClient(11, models.RoleDriver, nil, nil, nil)

	if !client.TrySend([]byte(`{}`)) {
		t.Fatal("send before close should succeed")
	}

	client.close()
	client.close() // idempotent

	if client.TrySend([]byte(`{}`)) {
		t.Fatal("send after close must report failure")
	}
}
