package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface defines the interface that clients must implement.
// Accepts reports whether the client's subscription covers events about
// the given entity; the hub skips clients whose dashboard view isn't
// watching that slice of the payment pipeline.
type ClientInterface interface {
	ID() string
	LandlordID() string
	Accepts(entity EntityType) bool
	Send(data []byte) error
	Close() error
}

// Hub manages WebSocket connections organized by landlord.
// It is safe for concurrent use
type Hub struct {
	// landlords maps landlord ID to a map of client ID to client
	landlords map[string]map[string]ClientInterface
	mu        sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		landlords: make(map[string]map[string]ClientInterface),
	}
}

// Register adds a client to the hub under its landlord
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	landlordID := client.LandlordID()
	clientID := client.ID()

	if h.landlords[landlordID] == nil {
		h.landlords[landlordID] = make(map[string]ClientInterface)
	}

	h.landlords[landlordID][clientID] = client

	log.Debug().
		Str("landlord_id", landlordID).
		Str("client_id", clientID).
		Msg("WebSocket client registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	landlordID := client.LandlordID()
	clientID := client.ID()

	if clients, ok := h.landlords[landlordID]; ok {
		if _, exists := clients[clientID]; exists {
			delete(clients, clientID)

			// Clean up empty landlord maps
			if len(clients) == 0 {
				delete(h.landlords, landlordID)
			}

			log.Debug().
				Str("landlord_id", landlordID).
				Str("client_id", clientID).
				Msg("WebSocket client unregistered")
		}
	}
}

// Broadcast sends an event to the landlord's clients whose subscription
// covers the event's entity. A client watching only statement review
// never receives payment-intent churn, and vice versa.
func (h *Hub) Broadcast(landlordID string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("landlord_id", landlordID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	clients, ok := h.landlords[landlordID]
	if !ok || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy matching clients to avoid holding the lock during sends
	clientsCopy := make([]ClientInterface, 0, len(clients))
	for _, client := range clients {
		if client.Accepts(event.Entity) {
			clientsCopy = append(clientsCopy, client)
		}
	}
	h.mu.RUnlock()
	if len(clientsCopy) == 0 {
		return
	}

	// Send to each client asynchronously
	for _, client := range clientsCopy {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().
					Err(err).
					Str("landlord_id", landlordID).
					Str("client_id", c.ID()).
					Msg("Failed to send to client")
			}
		}(client)
	}

	log.Debug().
		Str("landlord_id", landlordID).
		Str("event_type", event.Type).
		Int("client_count", len(clientsCopy)).
		Msg("Broadcast event")
}

// ClientCount returns the number of clients connected to a landlord
func (h *Hub) ClientCount(landlordID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.landlords[landlordID]; ok {
		return len(clients)
	}
	return 0
}

// TotalClientCount returns the total number of connected clients across all landlords
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.landlords {
		total += len(clients)
	}
	return total
}
