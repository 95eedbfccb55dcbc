package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait is time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// pingPeriod is the interval for sending pings (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is maximum message size allowed from peer
	maxMessageSize = 512
)

// Client represents a single WebSocket connection. Each client carries a
// subscription: the set of payment-pipeline entities (payment intents,
// statements, transaction matches, activity) its dashboard view is
// watching. A nil set means everything.
type Client struct {
	id         string
	landlordID string
	conn       *websocket.Conn
	hub        *Hub
	send       chan []byte
	entities   map[EntityType]bool
	closed     bool
	mu         sync.RWMutex
	closeOnce  sync.Once
}

// NewClient creates a new WebSocket client subscribed to every entity.
func NewClient(conn *websocket.Conn, landlordID string, hub *Hub) *Client {
	return &Client{
		id:         uuid.New().String(),
		landlordID: landlordID,
		conn:       conn,
		hub:        hub,
		send:       make(chan []byte, 256),
	}
}

// Subscribe narrows the client's delivery to the given entities. Unknown
// names are dropped; an empty result leaves the subscription unchanged,
// so a garbled request can't silence a client entirely.
func (c *Client) Subscribe(entities []EntityType) {
	filter := make(map[EntityType]bool, len(entities))
	for _, e := range entities {
		if knownEntityTypes[e] {
			filter[e] = true
		}
	}
	if len(filter) == 0 {
		return
	}

	c.mu.Lock()
	c.entities = filter
	c.mu.Unlock()
}

// Accepts reports whether the client's subscription covers entity.
func (c *Client) Accepts(entity EntityType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entities == nil {
		return true
	}
	return c.entities[entity]
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// LandlordID returns the client's landlord ID
func (c *Client) LandlordID() string {
	return c.landlordID
}

// Send queues a message to be sent to the client
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer is full, client is too slow
		return ErrClientClosed
	}
}

// Close closes the client connection
// Safe to call multiple times from different goroutines
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		closeErr = c.conn.Close()
	})
	return closeErr
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// ReadPump pumps messages from the WebSocket connection
// This should be run in a goroutine
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
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
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("landlord_id", c.landlordID).
					Msg("WebSocket unexpected close")
			}
			break
		}
		c.handleControlMessage(message)
	}
}

// controlMessage is the one inbound frame clients may send: a
// subscription change, e.g. {"subscribe": ["payment_intent"]} from a
// dashboard tab that only shows live STK prompts.
type controlMessage struct {
	Subscribe []EntityType `json:"subscribe"`
}

func (c *Client) handleControlMessage(message []byte) {
	var ctl controlMessage
	if err := json.Unmarshal(message, &ctl); err != nil {
		log.Debug().
			Str("client_id", c.id).
			Str("landlord_id", c.landlordID).
			Msg("Ignoring unparseable WebSocket control message")
		return
	}
	if len(ctl.Subscribe) > 0 {
		c.Subscribe(ctl.Subscribe)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
// This should be run in a goroutine
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, hub closed this client
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("landlord_id", c.landlordID).
					Msg("WebSocket write error")
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
