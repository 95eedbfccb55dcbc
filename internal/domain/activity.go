package domain

import "time"

// ActivityKind names the kind of activity-log entry emitted by the
// callback dispatcher and review workflow.
type ActivityKind string

const (
	ActivityPaymentReceived ActivityKind = "payment_received"
	ActivityPaymentProcessed ActivityKind = "payment_processed"
	ActivityPaymentFailed   ActivityKind = "payment_failed"
)

// ActivityLogEntry is a durable record of a landlord- or tenant-scoped
// activity event, also published on the websocket hub for live updates.
type ActivityLogEntry struct {
	ID         string
	LandlordID string
	TenantID   *string
	Kind       ActivityKind
	Message    string
	CreatedAt  time.Time
}

// ActivityLogRepository persists activity-log entries.
type ActivityLogRepository interface {
	Append(entry *ActivityLogEntry) error
	ListByLandlord(landlordID string, limit int) ([]*ActivityLogEntry, error)
}

// PaymentReceivedEmail is the payload handed to the email sink when a
// landlord has email notifications enabled.
type PaymentReceivedEmail struct {
	TenantName    string
	TenantEmail   string
	Amount        string
	PaymentDate   time.Time
	ReceiptNumber string
	PropertyName  string
	UnitNumber    string
	ForPeriod     string
}
