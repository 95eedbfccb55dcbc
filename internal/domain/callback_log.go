package domain

import "time"

// SentinelCode is stored as the ResultCode for callbacks whose envelope
// could not be parsed, so that CallbackLog remains append-only with
// exactly one row per inbound callback even for malformed payloads.
const SentinelCode = -1

// CallbackLog is an append-only audit record of every inbound Daraja
// callback, successful or not. Logging MUST precede intent mutation.
type CallbackLog struct {
	ID                 string
	MerchantRequestID  string
	CheckoutRequestID  string
	ResultCode         int
	ResultDesc         string
	RawPayload         []byte
	ReceivedAt         time.Time
}

// CallbackLogRepository appends CallbackLog rows. There is no update or
// delete: every inbound callback, including redeliveries, is recorded.
type CallbackLogRepository interface {
	Append(entry *CallbackLog) error
	ListByCheckout(checkoutRequestID string) ([]*CallbackLog, error)
}
