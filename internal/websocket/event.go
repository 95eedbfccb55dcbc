package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypePaymentIntent  EntityType = "payment_intent"
	EntityTypeActivity       EntityType = "activity"
	EntityTypeTransactionMatch EntityType = "transaction_match"
	EntityTypeStatement      EntityType = "statement"
)

// knownEntityTypes is the subscription vocabulary clients may filter on.
var knownEntityTypes = map[EntityType]bool{
	EntityTypePaymentIntent:    true,
	EntityTypeActivity:         true,
	EntityTypeTransactionMatch: true,
	EntityTypeStatement:        true,
}

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "payment_intent.updated"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "payment_intent"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentIntentCreated creates a payment_intent.created event, emitted
// when an STK push is initiated.
func PaymentIntentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePaymentIntent, payload)
}

// PaymentIntentUpdated creates a payment_intent.updated event, emitted
// when a callback or timeout resolves an intent to a terminal status.
func PaymentIntentUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePaymentIntent, payload)
}

// ActivityCreated creates an activity.created event for a newly recorded
// ActivityLogEntry.
func ActivityCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeActivity, payload)
}

// TransactionMatchUpdated creates a transaction_match.updated event,
// emitted when a review action (approve/reject/manualMatch) changes a
// TransactionMatch's status.
func TransactionMatchUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTransactionMatch, payload)
}

// StatementCreated creates a statement.created event, emitted once a
// statement upload has been parsed and matched.
func StatementCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeStatement, payload)
}
