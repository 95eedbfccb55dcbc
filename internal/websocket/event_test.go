package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EventType
		expected string
	}{
		{"created", EventTypeCreated, "created"},
		{"updated", EventTypeUpdated, "updated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestEntityType_String(t *testing.T) {
	tests := []struct {
		name     string
		et       EntityType
		expected string
	}{
		{"payment_intent", EntityTypePaymentIntent, "payment_intent"},
		{"activity", EntityTypeActivity, "activity"},
		{"transaction_match", EntityTypeTransactionMatch, "transaction_match"},
		{"statement", EntityTypeStatement, "statement"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.et))
		})
	}
}

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     "pi-1",
		"status": "pending",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypePaymentIntent, payload)
	after := time.Now()

	assert.Equal(t, "payment_intent.created", evt.Type)
	assert.Equal(t, EntityTypePaymentIntent, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"checkoutRequestId": "ws_CO_123",
		"status":            "success",
	}

	evt := Event{
		Type:      "payment_intent.updated",
		Entity:    EntityTypePaymentIntent,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded Event
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, evt.Entity, decoded.Entity)
	assert.Equal(t, fixedTime.UTC(), decoded.Timestamp.UTC())

	decodedPayload, ok := decoded.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ws_CO_123", decodedPayload["checkoutRequestId"])
	assert.Equal(t, "success", decodedPayload["status"])
}

func TestEvent_ToJSON(t *testing.T) {
	payload := map[string]interface{}{
		"id": "match-1",
	}

	evt := NewEvent(EventTypeUpdated, EntityTypeTransactionMatch, payload)

	data, err := evt.ToJSON()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	var decoded map[string]interface{}
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, "transaction_match.updated", decoded["type"])
	assert.Equal(t, "transaction_match", decoded["entity"])
	assert.NotNil(t, decoded["payload"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestPaymentIntentEvent_Helpers(t *testing.T) {
	payload := map[string]interface{}{"id": "pi-1"}

	t.Run("PaymentIntentCreated", func(t *testing.T) {
		evt := PaymentIntentCreated(payload)
		assert.Equal(t, "payment_intent.created", evt.Type)
		assert.Equal(t, EntityTypePaymentIntent, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})

	t.Run("PaymentIntentUpdated", func(t *testing.T) {
		evt := PaymentIntentUpdated(payload)
		assert.Equal(t, "payment_intent.updated", evt.Type)
		assert.Equal(t, EntityTypePaymentIntent, evt.Entity)
		assert.Equal(t, payload, evt.Payload)
	})
}

func TestActivityCreated(t *testing.T) {
	payload := map[string]interface{}{"kind": "payment_received"}
	evt := ActivityCreated(payload)
	assert.Equal(t, "activity.created", evt.Type)
	assert.Equal(t, EntityTypeActivity, evt.Entity)
}

func TestTransactionMatchUpdated(t *testing.T) {
	payload := map[string]interface{}{"status": "approved"}
	evt := TransactionMatchUpdated(payload)
	assert.Equal(t, "transaction_match.updated", evt.Type)
	assert.Equal(t, EntityTypeTransactionMatch, evt.Entity)
}

func TestStatementCreated(t *testing.T) {
	payload := map[string]interface{}{"status": "in_review"}
	evt := StatementCreated(payload)
	assert.Equal(t, "statement.created", evt.Type)
	assert.Equal(t, EntityTypeStatement, evt.Entity)
}
