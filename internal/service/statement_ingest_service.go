package service

import (
	"context"
	"fmt"
	"time"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/match"
	"github.com/kodisha/rentcore/internal/phone"
	"github.com/kodisha/rentcore/internal/repository/storage"
	"github.com/kodisha/rentcore/internal/statement"
	"github.com/kodisha/rentcore/internal/websocket"
	"github.com/shopspring/decimal"
)

// StatementIngestService orchestrates parse → match → persist for an
// uploaded M-Pesa statement.
type StatementIngestService struct {
	statementRepo  domain.StatementRepository
	tenantRepo     domain.TenantRepository
	archive        storage.StatementArchive
	eventPublisher websocket.EventPublisher
}

// NewStatementIngestService creates a new StatementIngestService.
func NewStatementIngestService(
	statementRepo domain.StatementRepository,
	tenantRepo domain.TenantRepository,
	archive storage.StatementArchive,
) *StatementIngestService {
	return &StatementIngestService{
		statementRepo:  statementRepo,
		tenantRepo:     tenantRepo,
		archive:        archive,
		eventPublisher: &websocket.NoOpPublisher{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates.
func (s *StatementIngestService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// IngestInput carries the fields accepted by POST /api/mpesa/statements.
type IngestInput struct {
	LandlordID string
	FileName   string
	RawText    string
	// Period, when non-nil, overrides the period derived from the
	// statement's own transactions; a client-supplied period wins.
	Period *domain.StatementPeriod
}

// Ingest parses a statement, scores each transaction against the
// landlord's tenant snapshot, and persists the resulting Statement and
// its TransactionMatch children atomically.
func (s *StatementIngestService) Ingest(ctx context.Context, input IngestInput) (*domain.Statement, error) {
	txs, err := statement.Parse(input.RawText)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailed, err)
	}

	now := time.Now()
	stmt := &domain.Statement{
		LandlordID:         input.LandlordID,
		FileName:           input.FileName,
		UploadDate:         now,
		TotalTransactions:  len(txs),
		Status:             domain.StatementInReview,
	}

	if len(txs) == 0 {
		stmt.Status = domain.StatementUploaded
		stmt.Period = derivePeriod(nil, now)
		created, err := s.statementRepo.CreateWithMatches(stmt, nil)
		if err != nil {
			return nil, err
		}
		s.archiveRaw(ctx, created.LandlordID, created.ID, input.RawText)
		return created, nil
	}

	stmt.Period = derivePeriod(txs, now)
	if input.Period != nil {
		stmt.Period = *input.Period
	}

	tenants, err := s.tenantRepo.ListByLandlord(input.LandlordID)
	if err != nil {
		return nil, fmt.Errorf("snapshotting tenants: %w", err)
	}
	snapshots := make([]match.TenantSnapshot, 0, len(tenants))
	for _, t := range tenants {
		rent, _ := decimal.NewFromString(t.RentAmount)
		snapshots = append(snapshots, match.TenantSnapshot{
			TenantID:   t.ID,
			FullName:   t.FullName,
			PhoneLast3: phone.Last3(t.Phone),
			RentAmount: rent,
		})
	}

	matched := 0
	matches := make([]*domain.TransactionMatch, 0, len(txs))
	for _, tx := range txs {
		result := match.SelectBest(tx, snapshots)
		if result.Status != domain.OutcomeNoMatch {
			matched++
		}
		matches = append(matches, &domain.TransactionMatch{
			Transaction:   tx,
			MatchedTenant: result.Best,
			Alternatives:  result.Alternatives,
			Status:        domain.ReviewPending,
		})
	}
	stmt.MatchedTransactions = matched

	created, err := s.statementRepo.CreateWithMatches(stmt, matches)
	if err != nil {
		return nil, err
	}

	s.archiveRaw(ctx, created.LandlordID, created.ID, input.RawText)

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(created.LandlordID, websocket.StatementCreated(created))
	}
	return created, nil
}

// GetByID retrieves a statement scoped to a landlord.
func (s *StatementIngestService) GetByID(landlordID, statementID string) (*domain.Statement, error) {
	return s.statementRepo.GetByID(landlordID, statementID)
}

// ListByLandlord lists every statement for a landlord.
func (s *StatementIngestService) ListByLandlord(landlordID string) ([]*domain.Statement, error) {
	return s.statementRepo.ListByLandlord(landlordID)
}

// Delete removes a statement and its matches. Approved PaymentHistory
// rows are not affected.
func (s *StatementIngestService) Delete(ctx context.Context, landlordID, statementID string) error {
	if err := s.statementRepo.Delete(landlordID, statementID); err != nil {
		return err
	}
	if s.archive != nil {
		if err := s.archive.Delete(ctx, landlordID, statementID); err != nil {
			return fmt.Errorf("deleting archived statement text: %w", err)
		}
	}
	return nil
}

// archiveRaw uploads the original statement text to S3 so a re-parse or
// audit never depends on the original upload request.
// Archival failures are discarded and not reported to the caller; this
// core's own invariants don't depend on the archive succeeding.
func (s *StatementIngestService) archiveRaw(ctx context.Context, landlordID, statementID, rawText string) {
	if s.archive == nil {
		return
	}
	_ = s.archive.Put(ctx, landlordID, statementID, []byte(rawText))
}

// derivePeriod fills in the statement period: it is the
// [min, max] completion time across parsed transactions, falling back to
// the upload timestamp for both bounds when there are none.
func derivePeriod(txs []domain.ParsedTransaction, uploadedAt time.Time) domain.StatementPeriod {
	if len(txs) == 0 {
		return domain.StatementPeriod{Start: uploadedAt, End: uploadedAt}
	}
	start, end := txs[0].CompletionTime, txs[0].CompletionTime
	for _, tx := range txs[1:] {
		if tx.CompletionTime.Before(start) {
			start = tx.CompletionTime
		}
		if tx.CompletionTime.After(end) {
			end = tx.CompletionTime
		}
	}
	return domain.StatementPeriod{Start: start, End: end}
}
