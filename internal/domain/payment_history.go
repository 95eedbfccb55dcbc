package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod records how a PaymentHistory row was settled.
type PaymentMethod string

const (
	PaymentMethodMpesa  PaymentMethod = "mpesa"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodManual PaymentMethod = "manual"
)

// PaymentStatus is the settlement status of a billed obligation.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusOverpaid  PaymentStatus = "overpaid"
)

// UtilityCharge is a single utility line item billed alongside rent.
type UtilityCharge struct {
	Type         string          `json:"type"`
	UnitsUsed    decimal.Decimal `json:"unitsUsed"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	Total        decimal.Decimal `json:"total"`
}

// PaymentHistory is created once per settled obligation: at most one
// row ever references a given PaymentIntent.
type PaymentHistory struct {
	ID               string          `json:"id"`
	TenantID         string          `json:"tenantId"`
	LandlordID       string          `json:"landlordId"`
	PropertyID       string          `json:"propertyId,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentDate      time.Time       `json:"paymentDate"`
	ForMonth         int             `json:"forMonth"`
	ForYear          int             `json:"forYear"`
	MonthlyRent      decimal.Decimal `json:"monthlyRent"`
	PaymentMethod    PaymentMethod   `json:"paymentMethod"`
	Status           PaymentStatus   `json:"status"`
	Notes            string          `json:"notes,omitempty"`
	UtilityCharges   []UtilityCharge `json:"utilityCharges,omitempty"`
	TotalUtilityCost decimal.Decimal `json:"totalUtilityCost"`
	TransactionID    string          `json:"transactionId,omitempty"`
	IntentID         string          `json:"intentId,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// PaymentHistoryRepository persists settled-obligation rows.
type PaymentHistoryRepository interface {
	Create(history *PaymentHistory) (*PaymentHistory, error)
	GetByID(id string) (*PaymentHistory, error)
	GetByIntentID(intentID string) (*PaymentHistory, error)
	Update(history *PaymentHistory) (*PaymentHistory, error)
}
