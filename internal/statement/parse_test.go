package statement

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q) error = %v", s, err)
	}
	return d
}

const sampleStatement = `
RECEIPTX12 2026-03-01 09:15:32 Pay Bill from 254712345393 - JOHN DOE MWANGI Completed 1,500.00 15,200.00
to - 0****393 JOHN DOE MWANGI
RECEIPTX13 2026-03-01 10:02:11 Customer Withdrawal Completed -500.00 14,700.00
to - 0****001 JANE SMITH
RECEIPTX14 2026-03-02 11:45:00 Pay Bill Completed 2,000.00 16,700.00
0****221 MARY ANN WANJIRU
RECEIPTX15 2026-03-03 08:00:00 Pay Bill Completed 1,000.00 17,700.00
this line does not match any counterparty pattern
`

func TestParse_ExtractsPaidInSkipsWithdrawalsAndUnmatched(t *testing.T) {
	txs, err := Parse(sampleStatement)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("Parse() returned %d transactions, want 2: %+v", len(txs), txs)
	}

	first := txs[0]
	if first.ReceiptNo != "RECEIPTX12" {
		t.Errorf("ReceiptNo = %q, want RECEIPTX12", first.ReceiptNo)
	}
	if first.SenderPhoneLast3 != "393" {
		t.Errorf("SenderPhoneLast3 = %q, want 393", first.SenderPhoneLast3)
	}
	if first.SenderName != "John Doe Mwangi" {
		t.Errorf("SenderName = %q, want title-cased", first.SenderName)
	}
	if !first.Amount.Equal(decimalFromString(t, "1500.00")) {
		t.Errorf("Amount = %s, want 1500.00", first.Amount)
	}

	second := txs[1]
	if second.ReceiptNo != "RECEIPTX14" {
		t.Errorf("ReceiptNo = %q, want RECEIPTX14", second.ReceiptNo)
	}
	if second.SenderPhoneLast3 != "221" {
		t.Errorf("SenderPhoneLast3 = %q, want 221", second.SenderPhoneLast3)
	}
}

func TestSummarize_Aggregates(t *testing.T) {
	txs, err := Parse(sampleStatement)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	summary := Summarize(txs)
	if summary.TotalTransactions != 2 {
		t.Errorf("TotalTransactions = %d, want 2", summary.TotalTransactions)
	}
	if summary.UniqueSenders != 2 {
		t.Errorf("UniqueSenders = %d, want 2", summary.UniqueSenders)
	}
	if !summary.TotalAmount.Equal(decimalFromString(t, "3500.00")) {
		t.Errorf("TotalAmount = %s, want 3500.00", summary.TotalAmount)
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalTransactions != 0 || summary.UniqueSenders != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero value", summary)
	}
}

func TestParse_MaskedPrefixDigitsBeforeStars(t *testing.T) {
	const raw = "TK2RJ91M5Z 2025-11-02 21:05:35 Customer Transfer Fuliza MPesa Completed 80.00 0.00\n" +
		"to - 07******892 mary muchina\n"

	txs, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("Parse() returned %d transactions, want 1: %+v", len(txs), txs)
	}

	tx := txs[0]
	if tx.ReceiptNo != "TK2RJ91M5Z" {
		t.Errorf("ReceiptNo = %q, want TK2RJ91M5Z", tx.ReceiptNo)
	}
	if !tx.Amount.Equal(decimalFromString(t, "80.00")) {
		t.Errorf("Amount = %s, want 80.00", tx.Amount)
	}
	if tx.SenderPhoneLast3 != "892" {
		t.Errorf("SenderPhoneLast3 = %q, want 892", tx.SenderPhoneLast3)
	}
	if tx.SenderName != "Mary Muchina" {
		t.Errorf("SenderName = %q, want Mary Muchina", tx.SenderName)
	}
}

func TestParse_NoOrphanWithoutCounterpartyLine(t *testing.T) {
	onlyHeader := "RECEIPTX99 2026-03-01 09:15:32 Pay Bill Completed 1,000.00 1,000.00\n"
	txs, err := Parse(onlyHeader)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("Parse() with no following line = %d transactions, want 0", len(txs))
	}
}
