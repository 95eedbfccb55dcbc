package service

import (
	"context"
	"testing"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/testutil"
)

const sampleStatementText = "NLJ7RT61SV 2024-03-05 09:12:45 Customer Transfer Completed 15,000.00 42,500.00\nto - 0****393 JANE DOE"

func newIngestServiceForTest() (*StatementIngestService, *testutil.MockStatementRepository, *testutil.MockTenantRepository) {
	statements := testutil.NewMockStatementRepository()
	tenants := testutil.NewMockTenantRepository()
	archive := testutil.NewMockStatementArchive()
	svc := NewStatementIngestService(statements, tenants, archive)
	return svc, statements, tenants
}

func TestIngest_ParsesAndMatchesTransactions(t *testing.T) {
	svc, _, tenants := newIngestServiceForTest()
	tenants.Tenants["tenant-1"] = &domain.Tenant{
		ID: "tenant-1", LandlordID: "landlord-1", FullName: "Jane Doe", Phone: "254700000393", RentAmount: "15000",
	}

	stmt, err := svc.Ingest(context.Background(), IngestInput{
		LandlordID: "landlord-1",
		FileName:   "statement.txt",
		RawText:    sampleStatementText,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.TotalTransactions != 1 {
		t.Fatalf("expected 1 parsed transaction, got %d", stmt.TotalTransactions)
	}
	if stmt.MatchedTransactions != 1 {
		t.Errorf("expected the single transaction to match Jane Doe, got %d matched", stmt.MatchedTransactions)
	}
	if stmt.Status != domain.StatementInReview {
		t.Errorf("expected status in_review, got %s", stmt.Status)
	}
}

func TestIngest_EmptyStatement_UploadedWithZeroCounts(t *testing.T) {
	svc, _, _ := newIngestServiceForTest()

	stmt, err := svc.Ingest(context.Background(), IngestInput{
		LandlordID: "landlord-1",
		FileName:   "empty.txt",
		RawText:    "nothing parseable here",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.Status != domain.StatementUploaded {
		t.Errorf("expected status uploaded for an empty statement, got %s", stmt.Status)
	}
	if stmt.TotalTransactions != 0 {
		t.Errorf("expected zero transactions, got %d", stmt.TotalTransactions)
	}
}

func TestIngest_NoMatchingTenant_RecordsNoMatch(t *testing.T) {
	svc, _, _ := newIngestServiceForTest()

	stmt, err := svc.Ingest(context.Background(), IngestInput{
		LandlordID: "landlord-1",
		FileName:   "statement.txt",
		RawText:    sampleStatementText,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.MatchedTransactions != 0 {
		t.Errorf("expected zero matches with no tenants on file, got %d", stmt.MatchedTransactions)
	}
}

func TestDelete_RemovesStatementAndArchive(t *testing.T) {
	svc, statements, _ := newIngestServiceForTest()
	stmt, err := svc.Ingest(context.Background(), IngestInput{LandlordID: "landlord-1", FileName: "s.txt", RawText: sampleStatementText})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(context.Background(), "landlord-1", stmt.ID); err != nil {
		t.Fatalf("unexpected error deleting: %v", err)
	}
	if _, ok := statements.Statements[stmt.ID]; ok {
		t.Errorf("expected statement to be removed from the store")
	}
}
