package reference

import (
	"strings"
	"testing"
	"time"
)

func TestPaymentReference_FormatAndLength(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ref, err := PaymentReference(now, 12, 345)
	if err != nil {
		t.Fatalf("PaymentReference() error = %v", err)
	}
	if !strings.HasPrefix(ref, "RE-202603-L012-T345-") {
		t.Errorf("PaymentReference() = %q, unexpected prefix", ref)
	}
	if len(ref) > 32 {
		t.Errorf("PaymentReference() length = %d, want <= 32", len(ref))
	}
}

func TestPaymentReference_Unique(t *testing.T) {
	now := time.Now()
	a, _ := PaymentReference(now, 1, 1)
	b, _ := PaymentReference(now, 1, 1)
	if a == b {
		t.Errorf("expected distinct references from distinct calls, got %q twice", a)
	}
}

func TestAccountReference_TenantForm(t *testing.T) {
	got := AccountReference("9001", "MAR", "", "")
	want := "T9001-MAR"
	if got != want {
		t.Errorf("AccountReference() = %q, want %q", got, want)
	}
	if len(got) > 13 {
		t.Errorf("AccountReference() length = %d, want <= 13", len(got))
	}
}

func TestAccountReference_PropertyUnitForm(t *testing.T) {
	got := AccountReference("9001", "MAR", "KILI", "A12")
	want := "KILI-A12-MAR"
	if got != want {
		t.Errorf("AccountReference() = %q, want %q", got, want)
	}
}

func TestAccountReference_HardTruncates(t *testing.T) {
	got := AccountReference("900112345", "DECEMBER", "", "")
	if len(got) > 13 {
		t.Errorf("AccountReference() length = %d, want <= 13, got %q", len(got), got)
	}
}

func TestTransactionDesc_Forms(t *testing.T) {
	if got := TransactionDesc("MAR", ""); got != "Rent-MAR" {
		t.Errorf("TransactionDesc() = %q, want %q", got, "Rent-MAR")
	}
	if got := TransactionDesc("MAR", "KILI2"); got != "Rent-KILI2-MAR" {
		t.Errorf("TransactionDesc() = %q, want %q", got, "Rent-KILI2-MAR")
	}
}

func TestTransactionDesc_HardTruncates(t *testing.T) {
	got := TransactionDesc("DECEMBER", "KILIMANI-ESTATE")
	if len(got) > 20 {
		t.Errorf("TransactionDesc() length = %d, want <= 20, got %q", len(got), got)
	}
}

func TestIdempotencyKey_Deterministic(t *testing.T) {
	a := IdempotencyKey("landlord-1", "tenant-1", "bill-1", 1000)
	b := IdempotencyKey("landlord-1", "tenant-1", "bill-1", 1000)
	if a != b {
		t.Errorf("IdempotencyKey() not deterministic: %q != %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("IdempotencyKey() length = %d, want 32", len(a))
	}
	if a != strings.ToUpper(a) {
		t.Errorf("IdempotencyKey() = %q, want uppercase", a)
	}
}

func TestIdempotencyKey_DiffersOnInputChange(t *testing.T) {
	a := IdempotencyKey("landlord-1", "tenant-1", "bill-1", 1000)
	b := IdempotencyKey("landlord-1", "tenant-1", "bill-1", 1001)
	if a == b {
		t.Errorf("expected different keys for different nowMs, got identical %q", a)
	}
}
