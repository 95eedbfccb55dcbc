package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/sink"
	"github.com/kodisha/rentcore/internal/testutil"
	"github.com/shopspring/decimal"
)

func newReceiptServiceForTest() (*ReceiptService, *testutil.MockPaymentHistoryRepository) {
	histories := testutil.NewMockPaymentHistoryRepository()
	tenants := testutil.NewMockTenantRepository()
	tenants.Tenants["tenant-1"] = &domain.Tenant{ID: "tenant-1", LandlordID: "landlord-1", FullName: "Jane Doe"}
	svc := NewReceiptService(histories, tenants, sink.NewPlainTextReceiptSink())
	return svc, histories
}

func TestStream_CompletedPayment_StreamsReceipt(t *testing.T) {
	svc, histories := newReceiptServiceForTest()
	history := &domain.PaymentHistory{
		ID:          "11111111-1111-1111-1111-111111111111",
		TenantID:    "tenant-1",
		LandlordID:  "landlord-1",
		Amount:      decimal.NewFromInt(15000),
		PaymentDate: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		ForMonth:    3,
		ForYear:     2024,
		MonthlyRent: decimal.NewFromInt(15000),
		Status:      domain.PaymentStatusCompleted,
		Notes:       "M-Pesa payment: NLJ7RT61SV",
	}
	histories.Histories[history.ID] = history

	var buf bytes.Buffer
	if err := svc.Stream(context.Background(), "landlord-1", history.ID, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "March 2024") {
		t.Errorf("expected receipt to mention the payment period, got: %s", buf.String())
	}
}

func TestStream_PendingPayment_Rejected(t *testing.T) {
	svc, histories := newReceiptServiceForTest()
	history := &domain.PaymentHistory{ID: "id-1", LandlordID: "landlord-1", Status: domain.PaymentStatusPending}
	histories.Histories[history.ID] = history

	var buf bytes.Buffer
	err := svc.Stream(context.Background(), "landlord-1", history.ID, &buf)
	if err != domain.ErrPaymentNotCompleted {
		t.Fatalf("expected ErrPaymentNotCompleted, got %v", err)
	}
}

func TestStream_ExtractsHistoricalDebt(t *testing.T) {
	svc, histories := newReceiptServiceForTest()
	history := &domain.PaymentHistory{
		ID:          "id-2",
		TenantID:    "tenant-1",
		LandlordID:  "landlord-1",
		Amount:      decimal.NewFromInt(18000),
		PaymentDate: time.Now(),
		MonthlyRent: decimal.NewFromInt(18000),
		Status:      domain.PaymentStatusCompleted,
		Notes:       "Includes historical debt: KSH 3000 (unpaid February rent)",
	}
	histories.Histories[history.ID] = history

	var buf bytes.Buffer
	if err := svc.Stream(context.Background(), "landlord-1", history.ID, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Historical Debt: 3000.00 (unpaid February rent)") {
		t.Errorf("expected historical debt line in receipt, got: %s", out)
	}
	if !strings.Contains(out, "Current Month Rent: 15000.00") {
		t.Errorf("expected current month rent to be monthlyRent minus historical debt, got: %s", out)
	}
}

func TestStream_CrossLandlordPayment_NotFound(t *testing.T) {
	svc, histories := newReceiptServiceForTest()
	history := &domain.PaymentHistory{ID: "id-3", LandlordID: "other-landlord", Status: domain.PaymentStatusCompleted}
	histories.Histories[history.ID] = history

	var buf bytes.Buffer
	err := svc.Stream(context.Background(), "landlord-1", history.ID, &buf)
	if err != domain.ErrPaymentNotFound {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}
