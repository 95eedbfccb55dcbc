package domain

import "github.com/shopspring/decimal"

// Receipt is the record built from a completed PaymentHistory and
// handed to the external PDF sink.
type Receipt struct {
	ReceiptNumber         string
	TenantName            string
	PropertyName          string
	UnitNumber            string
	PaymentPeriod         string
	PaymentDate           string
	AmountPaid            decimal.Decimal
	MonthlyRent           decimal.Decimal
	CurrentMonthRent      decimal.Decimal
	HistoricalDebt        decimal.Decimal
	HistoricalDebtDetails string
	UtilityCharges        []UtilityCharge
	TotalUtilityCost      decimal.Decimal
	TransactionID         string
}
