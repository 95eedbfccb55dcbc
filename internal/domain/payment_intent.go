package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntentStatus is the lifecycle status of a PaymentIntent. Exactly one
// of the terminal statuses is reached exactly once.
type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentSuccess   IntentStatus = "success"
	IntentFailed    IntentStatus = "failed"
	IntentTimeout   IntentStatus = "timeout"
	IntentCancelled IntentStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer change.
func (s IntentStatus) IsTerminal() bool {
	return s != IntentPending
}

// IntentTTL is how long a pending intent remains eligible for an STK
// callback before it becomes a candidate for passive reclamation.
const IntentTTL = 2 * time.Minute

// PaymentIntent tracks a single STK Push attempt from creation through
// to its terminal outcome.
type PaymentIntent struct {
	ID                string          `json:"id"`
	LandlordID        string          `json:"landlordId"`
	TenantID          string          `json:"tenantId"`
	BillID            *string         `json:"billId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	PhoneNumber       string          `json:"phoneNumber"`
	PaymentReference  string          `json:"paymentReference"`
	AccountReference  string          `json:"accountReference"`
	TransactionDesc   string          `json:"transactionDesc"`
	BusinessShortCode string          `json:"businessShortCode"`
	BusinessType      BusinessType    `json:"businessType"`
	IdempotencyKey    string          `json:"-"`

	Status IntentStatus `json:"status"`

	MerchantRequestID string `json:"merchantRequestID"`
	CheckoutRequestID string `json:"checkoutRequestID"`

	TransactionID string `json:"transactionId,omitempty"` // M-Pesa receipt number, set only on success
	ResultCode    *int   `json:"resultCode,omitempty"`
	ResultDesc    string `json:"resultDesc,omitempty"`

	CallbackReceived bool       `json:"callbackReceived"`
	CallbackData     []byte     `json:"-"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the intent's 2-minute window has elapsed.
func (p *PaymentIntent) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// PaymentIntentRepository persists PaymentIntent rows and enforces the
// single-terminal-transition idempotency fence.
type PaymentIntentRepository interface {
	Create(intent *PaymentIntent) (*PaymentIntent, error)
	FindByCheckout(checkoutRequestID string) (*PaymentIntent, error)
	FindByID(id string) (*PaymentIntent, error)
	FindByIdempotencyKey(idempotencyKey string) (*PaymentIntent, error)

	// TransitionTerminal atomically moves an intent from pending to a
	// terminal status via compare-and-set on status == pending. It returns
	// ok=false (no error) when the intent was already terminal, which is
	// the idempotency fence callback redelivery relies on.
	TransitionTerminal(checkoutRequestID string, newStatus IntentStatus, fields TerminalTransitionFields) (intent *PaymentIntent, ok bool, err error)
}

// TerminalTransitionFields carries the fields a terminal transition may
// set alongside status; zero values are left untouched by repositories
// that implement partial updates, except where noted.
type TerminalTransitionFields struct {
	TransactionID    string
	ResultCode       *int
	ResultDesc       string
	CallbackReceived bool
	CallbackData     []byte
	CompletedAt      *time.Time
}
