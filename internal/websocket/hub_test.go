package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages.
// A nil entities set accepts everything, mirroring the real Client.
type mockClient struct {
	id         string
	landlordID string
	entities   map[EntityType]bool
	messages   [][]byte
	mu         sync.Mutex
	closed     bool
}

func newMockClient(id, landlordID string) *mockClient {
	return &mockClient{
		id:         id,
		landlordID: landlordID,
		messages:   make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) LandlordID() string {
	return m.landlordID
}

func (m *mockClient) Accepts(entity EntityType) bool {
	if m.entities == nil {
		return true
	}
	return m.entities[entity]
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "landlord-1")
	client2 := newMockClient("client-2", "landlord-1")
	client3 := newMockClient("client-3", "landlord-2")

	// Register clients
	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	// Verify counts
	assert.Equal(t, 2, hub.ClientCount("landlord-1"))
	assert.Equal(t, 1, hub.ClientCount("landlord-2"))
	assert.Equal(t, 0, hub.ClientCount("landlord-missing"))

	// Unregister one client from landlord-1
	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount("landlord-1"))

	// Unregister remaining clients
	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.ClientCount("landlord-1"))
	assert.Equal(t, 0, hub.ClientCount("landlord-2"))
}

func TestHub_Broadcast_LandlordIsolation(t *testing.T) {
	hub := NewHub()

	// Clients for landlord-1
	client1a := newMockClient("client-1a", "landlord-1")
	client1b := newMockClient("client-1b", "landlord-1")

	// Client for landlord-2
	client2 := newMockClient("client-2", "landlord-2")

	hub.Register(client1a)
	hub.Register(client1b)
	hub.Register(client2)

	// Broadcast to landlord-1
	evt := PaymentIntentCreated(map[string]interface{}{"id": "pi-1"})
	hub.Broadcast("landlord-1", evt)

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	// landlord-1 clients should receive the message
	msgs1a := client1a.GetMessages()
	msgs1b := client1b.GetMessages()
	assert.Len(t, msgs1a, 1, "client1a should receive 1 message")
	assert.Len(t, msgs1b, 1, "client1b should receive 1 message")

	// landlord-2 client should NOT receive the message
	msgs2 := client2.GetMessages()
	assert.Len(t, msgs2, 0, "client2 should not receive message from landlord-1")
}

func TestHub_Broadcast_SubscriptionFiltering(t *testing.T) {
	hub := NewHub()

	// One client watches only statement review, the other everything.
	reviewOnly := newMockClient("client-review", "landlord-1")
	reviewOnly.entities = map[EntityType]bool{
		EntityTypeStatement:        true,
		EntityTypeTransactionMatch: true,
	}
	everything := newMockClient("client-all", "landlord-1")

	hub.Register(reviewOnly)
	hub.Register(everything)

	hub.Broadcast("landlord-1", PaymentIntentCreated(map[string]interface{}{"id": "pi-1"}))
	hub.Broadcast("landlord-1", TransactionMatchUpdated(map[string]interface{}{"id": "match-1"}))

	time.Sleep(10 * time.Millisecond)

	assert.Len(t, reviewOnly.GetMessages(), 1, "review-only client should see only the match event")
	assert.Len(t, everything.GetMessages(), 2, "unfiltered client should see both events")
}

func TestClient_Subscribe_IgnoresUnknownEntities(t *testing.T) {
	c := &Client{}

	c.Subscribe([]EntityType{"not-a-real-entity"})
	assert.True(t, c.Accepts(EntityTypePaymentIntent), "an all-unknown subscription must not narrow delivery")

	c.Subscribe([]EntityType{EntityTypePaymentIntent, "not-a-real-entity"})
	assert.True(t, c.Accepts(EntityTypePaymentIntent))
	assert.False(t, c.Accepts(EntityTypeStatement))
}

func TestHub_Broadcast_MultipleFanOut(t *testing.T) {
	hub := NewHub()

	// Create multiple clients for the same landlord
	clients := make([]*mockClient, 5)
	for i := 0; i < 5; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), "landlord-1")
		hub.Register(clients[i])
	}

	// Broadcast event
	evt := PaymentIntentUpdated(map[string]interface{}{"id": "pi-1"})
	hub.Broadcast("landlord-1", evt)

	// Give goroutines time to process
	time.Sleep(10 * time.Millisecond)

	// All clients should receive the message
	for i, c := range clients {
		msgs := c.GetMessages()
		assert.Len(t, msgs, 1, "client %d should receive message", i)
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50
	landlordOf := func(i int) string { return fmt.Sprintf("landlord-%d", i%5) }

	// Concurrently register clients
	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), landlordOf(i))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}

	wg.Wait()

	// Verify total is correct (10 per landlord, 5 landlords)
	total := 0
	for l := 0; l < 5; l++ {
		total += hub.ClientCount(fmt.Sprintf("landlord-%d", l))
	}
	assert.Equal(t, clientCount, total)

	// Concurrently broadcast and unregister
	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			evt := PaymentIntentCreated(map[string]interface{}{"id": idx})
			hub.Broadcast(landlordOf(idx), evt)
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}

	wg.Wait()

	// After unregistering all, counts should be 0
	for l := 0; l < 5; l++ {
		assert.Equal(t, 0, hub.ClientCount(fmt.Sprintf("landlord-%d", l)))
	}
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", "landlord-1")

	// Should not panic when unregistering a client that was never registered
	require.NotPanics(t, func() {
		hub.Unregister(client)
	})
}

func TestHub_BroadcastToEmptyLandlord(t *testing.T) {
	hub := NewHub()

	// Should not panic when broadcasting to a landlord with no clients
	require.NotPanics(t, func() {
		evt := PaymentIntentCreated(map[string]interface{}{"id": "pi-1"})
		hub.Broadcast("landlord-missing", evt)
	})
}
