package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementStatus is the lifecycle status of an uploaded statement.
type StatementStatus string

const (
	StatementUploaded StatementStatus = "uploaded"
	StatementInReview StatementStatus = "in_review"
	StatementApproved StatementStatus = "approved"
	StatementDeleted  StatementStatus = "deleted"
)

// StatementPeriod is the inclusive date range a statement covers. The
// parser does not derive it; ingest computes it from the transactions'
// completion times unless the uploader supplies one.
type StatementPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Statement is the aggregate root owning a landlord's uploaded M-Pesa
// statement and its TransactionMatch children.
type Statement struct {
	ID                  string          `json:"id"`
	LandlordID          string          `json:"landlordId"`
	FileName            string          `json:"fileName"`
	UploadDate          time.Time       `json:"uploadDate"`
	Period              StatementPeriod `json:"statementPeriod"`
	TotalTransactions   int             `json:"totalTransactions"`
	MatchedTransactions int             `json:"matchedTransactions"`
	Status              StatementStatus `json:"status"`
}

// StatementRepository persists a Statement and, transactionally, its
// TransactionMatch children. Deleting a statement cascades to its
// matches but never to already-approved PaymentHistory rows.
type StatementRepository interface {
	CreateWithMatches(statement *Statement, matches []*TransactionMatch) (*Statement, error)
	GetByID(landlordID, statementID string) (*Statement, error)
	ListByLandlord(landlordID string) ([]*Statement, error)
	Delete(landlordID, statementID string) error
	UpdateCounts(statementID string, totalTransactions, matchedTransactions int) error
}

// ParsedTransaction is a single "Paid In" record extracted from a
// statement's free-text body by the statement parser.
type ParsedTransaction struct {
	ReceiptNo        string          `json:"receiptNo"`
	CompletionTime   time.Time       `json:"completionTime"`
	Details          string          `json:"details"`
	SenderPhone      string          `json:"senderPhone"` // masked, e.g. 0****393
	SenderPhoneLast3 string          `json:"senderPhoneLast3"`
	SenderName       string          `json:"senderName"`
	Amount           decimal.Decimal `json:"amount"`
	Balance          decimal.Decimal `json:"balance"`
}

// MatchConfidence classifies a candidate's overall score.
type MatchConfidence string

const (
	ConfidenceHigh   MatchConfidence = "high"
	ConfidenceMedium MatchConfidence = "medium"
	ConfidenceLow    MatchConfidence = "low"
	ConfidenceNone   MatchConfidence = "none"
)

// MatchType classifies how a candidate matched.
type MatchType string

const (
	MatchTypePerfect MatchType = "perfect"
	MatchTypeGood    MatchType = "good"
	MatchTypePartial MatchType = "partial"
	MatchTypeWeak    MatchType = "weak"
	MatchTypeNone    MatchType = "none"
)

// TenantCandidate is a single (transaction, tenant) scoring result.
type TenantCandidate struct {
	TenantID     string          `json:"tenantId"`
	TenantName   string          `json:"tenantName"`
	PhoneScore   float64         `json:"phoneScore"`
	NameScore    float64         `json:"nameScore"`
	AmountScore  float64         `json:"amountScore"`
	OverallScore float64         `json:"overallScore"`
	Confidence   MatchConfidence `json:"confidence"`
	MatchType    MatchType       `json:"matchType"`
	WithUtilities bool           `json:"withUtilities,omitempty"`
}

// MatchOutcomeStatus is the status the match engine assigns after
// candidate selection, before any human review.
type MatchOutcomeStatus string

const (
	OutcomeMatched  MatchOutcomeStatus = "matched"
	OutcomeAmbiguous MatchOutcomeStatus = "ambiguous"
	OutcomeNoMatch  MatchOutcomeStatus = "no_match"
)

// MatchResult is the match engine's output for a single transaction: a
// best candidate (if any), ranked alternatives, and an overall status.
type MatchResult struct {
	Transaction  ParsedTransaction
	Best         *TenantCandidate
	Alternatives []TenantCandidate
	Status       MatchOutcomeStatus
}

// ReviewStatus is the per-TransactionMatch workflow status.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
	ReviewManual   ReviewStatus = "manual"
)

// IsTerminal reports whether the status can no longer change via the
// normal approve/reject/manual-match actions.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewApproved || s == ReviewRejected
}

// TransactionMatch is a Statement's child row: one parsed transaction
// plus its scored tenant candidates and review state.
type TransactionMatch struct {
	ID            string            `json:"id"`
	StatementID   string            `json:"statementId"`
	LandlordID    string            `json:"landlordId"`
	Transaction   ParsedTransaction `json:"transaction"`
	MatchedTenant *TenantCandidate  `json:"matchedTenant,omitempty"`
	Alternatives  []TenantCandidate `json:"alternativeMatches,omitempty"`
	Status        ReviewStatus      `json:"status"`
	ReviewNotes   string            `json:"reviewNotes,omitempty"`
	PaymentID     *string           `json:"paymentId,omitempty"`
}

// TransactionMatchRepository persists TransactionMatch rows as children of
// a Statement. Replay safety is enforced on (statementID, receiptNo).
type TransactionMatchRepository interface {
	GetByID(landlordID, matchID string) (*TransactionMatch, error)
	ListByStatement(landlordID, statementID string) ([]*TransactionMatch, error)
	Update(match *TransactionMatch) (*TransactionMatch, error)
}
