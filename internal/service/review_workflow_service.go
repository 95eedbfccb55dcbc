package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/util"
	"github.com/kodisha/rentcore/internal/websocket"
	"github.com/shopspring/decimal"
)

// ReviewWorkflowService drives the per-TransactionMatch review state
// machine: pending and manual matches can be approved or rejected,
// terminal matches never change again.
type ReviewWorkflowService struct {
	matchRepo      domain.TransactionMatchRepository
	statementRepo  domain.StatementRepository
	historyRepo    domain.PaymentHistoryRepository
	tenantRepo     domain.TenantRepository
	eventPublisher websocket.EventPublisher
}

// NewReviewWorkflowService creates a new ReviewWorkflowService.
func NewReviewWorkflowService(
	matchRepo domain.TransactionMatchRepository,
	statementRepo domain.StatementRepository,
	historyRepo domain.PaymentHistoryRepository,
	tenantRepo domain.TenantRepository,
) *ReviewWorkflowService {
	return &ReviewWorkflowService{
		matchRepo:      matchRepo,
		statementRepo:  statementRepo,
		historyRepo:    historyRepo,
		tenantRepo:     tenantRepo,
		eventPublisher: &websocket.NoOpPublisher{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates.
func (s *ReviewWorkflowService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// Approve transitions a match to approved, creating a PaymentHistory row
// from its matched tenant. Already-terminal matches are a no-op.
func (s *ReviewWorkflowService) Approve(landlordID, matchID, notes string) (*domain.TransactionMatch, error) {
	match, err := s.matchRepo.GetByID(landlordID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return match, nil
	}
	if match.MatchedTenant == nil {
		return nil, domain.ErrUnmatchedApprove
	}

	tenant, err := s.tenantRepo.GetByID(landlordID, match.MatchedTenant.TenantID)
	if err != nil {
		return nil, fmt.Errorf("loading matched tenant for approval: %w", err)
	}
	monthlyRent, _ := decimal.NewFromString(tenant.RentAmount)

	forMonth := int(match.Transaction.CompletionTime.Month())
	forYear := match.Transaction.CompletionTime.Year()
	paymentNotes := fmt.Sprintf("M-Pesa statement match, receipt: %s", match.Transaction.ReceiptNo)
	if util.IsHistoricalMonth(forYear, forMonth) {
		paymentNotes += fmt.Sprintf(" (settles %s %d)", util.MonthName(forMonth), forYear)
	}

	history := &domain.PaymentHistory{
		ID:            uuid.New().String(),
		TenantID:      match.MatchedTenant.TenantID,
		LandlordID:    landlordID,
		Amount:        match.Transaction.Amount,
		PaymentDate:   match.Transaction.CompletionTime,
		ForMonth:      forMonth,
		ForYear:       forYear,
		MonthlyRent:   monthlyRent,
		PaymentMethod: domain.PaymentMethodMpesa,
		Status:        domain.PaymentStatusCompleted,
		Notes:         paymentNotes,
		TransactionID: match.Transaction.ReceiptNo,
	}
	created, err := s.historyRepo.Create(history)
	if err != nil {
		return nil, fmt.Errorf("creating payment history for approved match: %w", err)
	}

	match.Status = domain.ReviewApproved
	match.ReviewNotes = notes
	match.PaymentID = &created.ID

	updated, err := s.matchRepo.Update(match)
	if err != nil {
		return nil, err
	}
	s.refreshStatementCounts(landlordID, match.StatementID)
	s.publish(landlordID, updated)
	return updated, nil
}

// Reject transitions a match to rejected with no further side effects
// beyond marking it. Already-terminal matches are a no-op.
func (s *ReviewWorkflowService) Reject(landlordID, matchID, notes string) (*domain.TransactionMatch, error) {
	match, err := s.matchRepo.GetByID(landlordID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status.IsTerminal() {
		return match, nil
	}

	match.Status = domain.ReviewRejected
	match.ReviewNotes = notes

	updated, err := s.matchRepo.Update(match)
	if err != nil {
		return nil, err
	}
	s.refreshStatementCounts(landlordID, match.StatementID)
	s.publish(landlordID, updated)
	return updated, nil
}

// ManualMatch replaces a pending match's candidate with an explicitly
// chosen tenant, moving it to the "manual" status so it becomes
// approvable. The tenant must belong to the same landlord.
func (s *ReviewWorkflowService) ManualMatch(landlordID, matchID, tenantID string) (*domain.TransactionMatch, error) {
	match, err := s.matchRepo.GetByID(landlordID, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status != domain.ReviewPending {
		return nil, domain.ErrMatchTerminal
	}

	tenant, err := s.tenantRepo.GetByID(landlordID, tenantID)
	if err != nil {
		return nil, domain.ErrTenantCrossLandlord
	}

	match.MatchedTenant = &domain.TenantCandidate{
		TenantID:     tenant.ID,
		TenantName:   tenant.FullName,
		OverallScore: 100,
		Confidence:   domain.ConfidenceHigh,
		MatchType:    domain.MatchTypePerfect,
	}
	match.Status = domain.ReviewManual

	updated, err := s.matchRepo.Update(match)
	if err != nil {
		return nil, err
	}
	s.publish(landlordID, updated)
	return updated, nil
}

func (s *ReviewWorkflowService) refreshStatementCounts(landlordID, statementID string) {
	matches, err := s.matchRepo.ListByStatement(landlordID, statementID)
	if err != nil {
		return
	}
	matched := 0
	for _, m := range matches {
		if m.Status == domain.ReviewApproved || m.Status == domain.ReviewManual {
			matched++
		}
	}
	_ = s.statementRepo.UpdateCounts(statementID, len(matches), matched)
}

func (s *ReviewWorkflowService) publish(landlordID string, match *domain.TransactionMatch) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(landlordID, websocket.TransactionMatchUpdated(match))
	}
}

