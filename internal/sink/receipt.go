package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/kodisha/rentcore/internal/domain"
)

// ReceiptSink streams a rendered receipt for a completed payment. The
// actual PDF renderer is an external collaborator; this core
// only assembles the Receipt record and hands it off.
type ReceiptSink interface {
	Stream(ctx context.Context, receipt domain.Receipt, w io.Writer) error
}

// PlainTextReceiptSink is the shipped ReceiptSink: it writes the receipt
// fields as a plain-text record rather than rendering a PDF. A real
// deployment supplies a PDF-rendering implementation of the same
// interface.
type PlainTextReceiptSink struct{}

// NewPlainTextReceiptSink builds a PlainTextReceiptSink.
func NewPlainTextReceiptSink() *PlainTextReceiptSink {
	return &PlainTextReceiptSink{}
}

// Stream writes receipt as a simple line-oriented record.
func (s *PlainTextReceiptSink) Stream(ctx context.Context, receipt domain.Receipt, w io.Writer) error {
	lines := []string{
		fmt.Sprintf("Receipt No: %s", receipt.ReceiptNumber),
		fmt.Sprintf("Tenant: %s", receipt.TenantName),
		fmt.Sprintf("Property: %s, Unit %s", receipt.PropertyName, receipt.UnitNumber),
		fmt.Sprintf("Period: %s", receipt.PaymentPeriod),
		fmt.Sprintf("Payment Date: %s", receipt.PaymentDate),
		fmt.Sprintf("Amount Paid: %s", receipt.AmountPaid.StringFixed(2)),
		fmt.Sprintf("Monthly Rent: %s", receipt.MonthlyRent.StringFixed(2)),
		fmt.Sprintf("Current Month Rent: %s", receipt.CurrentMonthRent.StringFixed(2)),
	}
	if receipt.HistoricalDebt.IsPositive() {
		lines = append(lines,
			fmt.Sprintf("Historical Debt: %s (%s)", receipt.HistoricalDebt.StringFixed(2), receipt.HistoricalDebtDetails))
	}
	for _, u := range receipt.UtilityCharges {
		lines = append(lines, fmt.Sprintf("Utility %s: %s units x %s = %s", u.Type, u.UnitsUsed.String(), u.PricePerUnit.StringFixed(2), u.Total.StringFixed(2)))
	}
	if receipt.TotalUtilityCost.IsPositive() {
		lines = append(lines, fmt.Sprintf("Total Utility Cost: %s", receipt.TotalUtilityCost.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("Transaction ID: %s", receipt.TransactionID))

	for _, line := range lines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing receipt: %w", err)
		}
	}
	return nil
}
