package sink

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/shopspring/decimal"
)

func TestPlainTextReceiptSink_Stream(t *testing.T) {
	receipt := domain.Receipt{
		ReceiptNumber:    "ABC123DEF456",
		TenantName:       "Mary Muchina",
		PropertyName:     "Greenview",
		UnitNumber:       "A3",
		PaymentPeriod:    "November 2025",
		PaymentDate:      "2025-11-02",
		AmountPaid:       decimal.NewFromInt(20000),
		MonthlyRent:      decimal.NewFromInt(20000),
		CurrentMonthRent: decimal.NewFromInt(20000),
		TransactionID:    "NLJ7RT61SV",
	}

	var buf bytes.Buffer
	sink := NewPlainTextReceiptSink()
	if err := sink.Stream(context.Background(), receipt, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "ABC123DEF456") {
		t.Errorf("expected receipt number in output, got %q", out)
	}
	if !strings.Contains(out, "Mary Muchina") {
		t.Errorf("expected tenant name in output, got %q", out)
	}
	if !strings.Contains(out, "NLJ7RT61SV") {
		t.Errorf("expected transaction id in output, got %q", out)
	}
}

func TestPlainTextReceiptSink_Stream_WithHistoricalDebt(t *testing.T) {
	receipt := domain.Receipt{
		ReceiptNumber:         "XYZ789",
		HistoricalDebt:        decimal.NewFromInt(5000),
		HistoricalDebtDetails: "October arrears",
		MonthlyRent:           decimal.NewFromInt(20000),
		CurrentMonthRent:      decimal.NewFromInt(15000),
		AmountPaid:            decimal.NewFromInt(20000),
	}

	var buf bytes.Buffer
	sink := NewPlainTextReceiptSink()
	if err := sink.Stream(context.Background(), receipt, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(buf.String(), "October arrears") {
		t.Errorf("expected historical debt details in output, got %q", buf.String())
	}
}

func TestLoggingEmailSink_SendPaymentReceived(t *testing.T) {
	sink := NewLoggingEmailSink()
	err := sink.SendPaymentReceived(domain.PaymentReceivedEmail{
		TenantName:  "Mary Muchina",
		TenantEmail: "mary@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
