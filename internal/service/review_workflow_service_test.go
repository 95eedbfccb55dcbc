package service

import (
	"testing"
	"time"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/testutil"
	"github.com/shopspring/decimal"
)

func newReviewServiceForTest() (*ReviewWorkflowService, *testutil.MockStatementRepository, *testutil.MockPaymentHistoryRepository, *testutil.MockTenantRepository) {
	statements := testutil.NewMockStatementRepository()
	matches := testutil.NewMockTransactionMatchRepository(statements)
	histories := testutil.NewMockPaymentHistoryRepository()
	tenants := testutil.NewMockTenantRepository()
	tenants.Tenants["tenant-1"] = &domain.Tenant{ID: "tenant-1", LandlordID: "landlord-1", FullName: "Jane Doe", RentAmount: "20000"}

	svc := NewReviewWorkflowService(matches, statements, histories, tenants)
	return svc, statements, histories, tenants
}

func seedPendingMatch(statements *testutil.MockStatementRepository, matched bool) *domain.TransactionMatch {
	stmt := &domain.Statement{LandlordID: "landlord-1", FileName: "statement.txt"}
	match := &domain.TransactionMatch{
		Transaction: domain.ParsedTransaction{
			ReceiptNo:      "NLJ7RT61SV",
			CompletionTime: time.Now(),
			Amount:         decimal.NewFromInt(15000),
		},
		Status: domain.ReviewPending,
	}
	if matched {
		match.MatchedTenant = &domain.TenantCandidate{TenantID: "tenant-1", TenantName: "Jane Doe"}
	}
	created, _ := statements.CreateWithMatches(stmt, []*domain.TransactionMatch{match})
	_ = created
	return statements.Matches[stmt.ID][0]
}

func TestApprove_CreatesPaymentHistory(t *testing.T) {
	svc, statements, histories, _ := newReviewServiceForTest()
	match := seedPendingMatch(statements, true)

	updated, err := svc.Approve("landlord-1", match.ID, "looks good")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.ReviewApproved {
		t.Errorf("expected status approved, got %s", updated.Status)
	}
	if updated.PaymentID == nil {
		t.Fatalf("expected a payment id to be set")
	}
	if len(histories.Histories) != 1 {
		t.Errorf("expected one payment history row created, got %d", len(histories.Histories))
	}
}

func TestApprove_MonthlyRentComesFromTenantNotTransaction(t *testing.T) {
	svc, statements, histories, _ := newReviewServiceForTest()
	// The seeded transaction pays 15000 against a contracted rent of 20000;
	// the created row must keep the two apart or receipt math breaks.
	match := seedPendingMatch(statements, true)

	if _, err := svc.Approve("landlord-1", match.ID, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var created *domain.PaymentHistory
	for _, h := range histories.Histories {
		created = h
	}
	if created == nil {
		t.Fatal("expected a payment history row")
	}
	if !created.Amount.Equal(decimal.NewFromInt(15000)) {
		t.Errorf("Amount = %s, want the transaction amount 15000", created.Amount)
	}
	if !created.MonthlyRent.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("MonthlyRent = %s, want the tenant's contracted rent 20000", created.MonthlyRent)
	}
}

func TestApprove_WithoutMatchedTenant_Fails(t *testing.T) {
	svc, statements, _, _ := newReviewServiceForTest()
	match := seedPendingMatch(statements, false)

	_, err := svc.Approve("landlord-1", match.ID, "")
	if err != domain.ErrUnmatchedApprove {
		t.Fatalf("expected ErrUnmatchedApprove, got %v", err)
	}
}

func TestApprove_AlreadyTerminal_IsNoOp(t *testing.T) {
	svc, statements, histories, _ := newReviewServiceForTest()
	match := seedPendingMatch(statements, true)

	if _, err := svc.Approve("landlord-1", match.ID, ""); err != nil {
		t.Fatalf("unexpected error on first approve: %v", err)
	}
	if _, err := svc.Approve("landlord-1", match.ID, ""); err != nil {
		t.Fatalf("unexpected error on second approve: %v", err)
	}
	if len(histories.Histories) != 1 {
		t.Errorf("expected re-approving a terminal match to be a no-op, got %d history rows", len(histories.Histories))
	}
}

func TestReject_MarksRejectedWithoutPaymentHistory(t *testing.T) {
	svc, statements, histories, _ := newReviewServiceForTest()
	match := seedPendingMatch(statements, true)

	updated, err := svc.Reject("landlord-1", match.ID, "not a tenant payment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.ReviewRejected {
		t.Errorf("expected status rejected, got %s", updated.Status)
	}
	if len(histories.Histories) != 0 {
		t.Errorf("expected no payment history for a rejected match")
	}
}

func TestManualMatch_RebindsTenantAndBecomesApprovable(t *testing.T) {
	svc, statements, _, _ := newReviewServiceForTest()
	match := seedPendingMatch(statements, false)

	updated, err := svc.ManualMatch("landlord-1", match.ID, "tenant-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.ReviewManual {
		t.Errorf("expected status manual, got %s", updated.Status)
	}
	if updated.MatchedTenant == nil || updated.MatchedTenant.TenantID != "tenant-1" {
		t.Fatalf("expected matched tenant to be rebound to tenant-1")
	}

	approved, err := svc.Approve("landlord-1", match.ID, "")
	if err != nil {
		t.Fatalf("expected a manual match to be approvable: %v", err)
	}
	if approved.Status != domain.ReviewApproved {
		t.Errorf("expected status approved after approving a manual match, got %s", approved.Status)
	}
}

func TestManualMatch_CrossLandlordTenant_Fails(t *testing.T) {
	svc, statements, _, tenants := newReviewServiceForTest()
	tenants.Tenants["tenant-2"] = &domain.Tenant{ID: "tenant-2", LandlordID: "other-landlord", FullName: "Other"}
	match := seedPendingMatch(statements, false)

	_, err := svc.ManualMatch("landlord-1", match.ID, "tenant-2")
	if err != domain.ErrTenantCrossLandlord {
		t.Fatalf("expected ErrTenantCrossLandlord, got %v", err)
	}
}
