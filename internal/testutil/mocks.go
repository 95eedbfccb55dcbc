// Package testutil provides hand-written in-memory mocks of every
// repository interface, so service-layer tests can run without a
// database.
package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/rentcore/internal/domain"
)

// MockLandlordRepository is a mock implementation of domain.LandlordRepository.
type MockLandlordRepository struct {
	Landlords map[string]*domain.Landlord
}

// NewMockLandlordRepository creates a new MockLandlordRepository.
func NewMockLandlordRepository() *MockLandlordRepository {
	return &MockLandlordRepository{Landlords: make(map[string]*domain.Landlord)}
}

func (m *MockLandlordRepository) GetByID(landlordID string) (*domain.Landlord, error) {
	if l, ok := m.Landlords[landlordID]; ok {
		return l, nil
	}
	return nil, domain.ErrLandlordNotFound
}

func (m *MockLandlordRepository) UpdateDarajaConfig(landlordID string, cfg domain.DarajaConfig) (*domain.Landlord, error) {
	l, ok := m.Landlords[landlordID]
	if !ok {
		l = &domain.Landlord{ID: landlordID}
		m.Landlords[landlordID] = l
	}
	l.DarajaConfig = cfg
	return l, nil
}

func (m *MockLandlordRepository) ClearDarajaConfig(landlordID string) error {
	l, ok := m.Landlords[landlordID]
	if !ok {
		return domain.ErrLandlordNotFound
	}
	l.DarajaConfig.IsActive = false
	return nil
}

func (m *MockLandlordRepository) SetLastTestedAt(landlordID string, testedAt time.Time) error {
	l, ok := m.Landlords[landlordID]
	if !ok {
		return domain.ErrLandlordNotFound
	}
	l.DarajaConfig.LastTestedAt = &testedAt
	return nil
}

// MockTenantRepository is a mock implementation of domain.TenantRepository.
type MockTenantRepository struct {
	Tenants map[string]*domain.Tenant
}

// NewMockTenantRepository creates a new MockTenantRepository.
func NewMockTenantRepository() *MockTenantRepository {
	return &MockTenantRepository{Tenants: make(map[string]*domain.Tenant)}
}

func (m *MockTenantRepository) GetByID(landlordID, tenantID string) (*domain.Tenant, error) {
	t, ok := m.Tenants[tenantID]
	if !ok || t.LandlordID != landlordID {
		return nil, domain.ErrTenantNotFound
	}
	return t, nil
}

func (m *MockTenantRepository) ListByLandlord(landlordID string) ([]*domain.Tenant, error) {
	var out []*domain.Tenant
	for _, t := range m.Tenants {
		if t.LandlordID == landlordID {
			out = append(out, t)
		}
	}
	return out, nil
}

// MockPaymentIntentRepository is a mock implementation of domain.PaymentIntentRepository.
type MockPaymentIntentRepository struct {
	Intents map[string]*domain.PaymentIntent // keyed by checkout request id
	ByID    map[string]*domain.PaymentIntent
}

// NewMockPaymentIntentRepository creates a new MockPaymentIntentRepository.
func NewMockPaymentIntentRepository() *MockPaymentIntentRepository {
	return &MockPaymentIntentRepository{
		Intents: make(map[string]*domain.PaymentIntent),
		ByID:    make(map[string]*domain.PaymentIntent),
	}
}

func (m *MockPaymentIntentRepository) Create(intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	if intent.ID == "" {
		intent.ID = uuid.New().String()
	}
	m.Intents[intent.CheckoutRequestID] = intent
	m.ByID[intent.ID] = intent
	return intent, nil
}

func (m *MockPaymentIntentRepository) FindByCheckout(checkoutRequestID string) (*domain.PaymentIntent, error) {
	if i, ok := m.Intents[checkoutRequestID]; ok {
		return i, nil
	}
	return nil, domain.ErrIntentNotFound
}

func (m *MockPaymentIntentRepository) FindByID(id string) (*domain.PaymentIntent, error) {
	if i, ok := m.ByID[id]; ok {
		return i, nil
	}
	return nil, domain.ErrIntentNotFound
}

func (m *MockPaymentIntentRepository) FindByIdempotencyKey(idempotencyKey string) (*domain.PaymentIntent, error) {
	for _, i := range m.Intents {
		if i.IdempotencyKey == idempotencyKey {
			return i, nil
		}
	}
	return nil, domain.ErrIntentNotFound
}

func (m *MockPaymentIntentRepository) TransitionTerminal(checkoutRequestID string, newStatus domain.IntentStatus, fields domain.TerminalTransitionFields) (*domain.PaymentIntent, bool, error) {
	intent, ok := m.Intents[checkoutRequestID]
	if !ok {
		return nil, false, domain.ErrIntentNotFound
	}
	if intent.Status != domain.IntentPending {
		return intent, false, nil
	}
	intent.Status = newStatus
	if fields.TransactionID != "" {
		intent.TransactionID = fields.TransactionID
	}
	if fields.ResultCode != nil {
		intent.ResultCode = fields.ResultCode
	}
	if fields.ResultDesc != "" {
		intent.ResultDesc = fields.ResultDesc
	}
	intent.CallbackReceived = intent.CallbackReceived || fields.CallbackReceived
	if fields.CallbackData != nil {
		intent.CallbackData = fields.CallbackData
	}
	if fields.CompletedAt != nil {
		intent.CompletedAt = fields.CompletedAt
	}
	return intent, true, nil
}

// MockCallbackLogRepository is a mock implementation of domain.CallbackLogRepository.
type MockCallbackLogRepository struct {
	Logs []*domain.CallbackLog
}

// NewMockCallbackLogRepository creates a new MockCallbackLogRepository.
func NewMockCallbackLogRepository() *MockCallbackLogRepository {
	return &MockCallbackLogRepository{}
}

func (m *MockCallbackLogRepository) Append(entry *domain.CallbackLog) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	m.Logs = append(m.Logs, entry)
	return nil
}

func (m *MockCallbackLogRepository) ListByCheckout(checkoutRequestID string) ([]*domain.CallbackLog, error) {
	var out []*domain.CallbackLog
	for _, l := range m.Logs {
		if l.CheckoutRequestID == checkoutRequestID {
			out = append(out, l)
		}
	}
	return out, nil
}

// MockPaymentHistoryRepository is a mock implementation of domain.PaymentHistoryRepository.
type MockPaymentHistoryRepository struct {
	Histories    map[string]*domain.PaymentHistory
	ByIntentID   map[string]*domain.PaymentHistory
}

// NewMockPaymentHistoryRepository creates a new MockPaymentHistoryRepository.
func NewMockPaymentHistoryRepository() *MockPaymentHistoryRepository {
	return &MockPaymentHistoryRepository{
		Histories:  make(map[string]*domain.PaymentHistory),
		ByIntentID: make(map[string]*domain.PaymentHistory),
	}
}

func (m *MockPaymentHistoryRepository) Create(history *domain.PaymentHistory) (*domain.PaymentHistory, error) {
	if history.ID == "" {
		history.ID = uuid.New().String()
	}
	m.Histories[history.ID] = history
	if history.IntentID != "" {
		m.ByIntentID[history.IntentID] = history
	}
	return history, nil
}

func (m *MockPaymentHistoryRepository) GetByID(id string) (*domain.PaymentHistory, error) {
	if h, ok := m.Histories[id]; ok {
		return h, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentHistoryRepository) GetByIntentID(intentID string) (*domain.PaymentHistory, error) {
	return m.ByIntentID[intentID], nil
}

func (m *MockPaymentHistoryRepository) Update(history *domain.PaymentHistory) (*domain.PaymentHistory, error) {
	if _, ok := m.Histories[history.ID]; !ok {
		return nil, domain.ErrPaymentNotFound
	}
	m.Histories[history.ID] = history
	if history.IntentID != "" {
		m.ByIntentID[history.IntentID] = history
	}
	return history, nil
}

// MockStatementRepository is a mock implementation of domain.StatementRepository.
type MockStatementRepository struct {
	Statements map[string]*domain.Statement
	Matches    map[string][]*domain.TransactionMatch // keyed by statement id
}

// NewMockStatementRepository creates a new MockStatementRepository.
func NewMockStatementRepository() *MockStatementRepository {
	return &MockStatementRepository{
		Statements: make(map[string]*domain.Statement),
		Matches:    make(map[string][]*domain.TransactionMatch),
	}
}

func (m *MockStatementRepository) CreateWithMatches(statement *domain.Statement, matches []*domain.TransactionMatch) (*domain.Statement, error) {
	if statement.ID == "" {
		statement.ID = uuid.New().String()
	}
	m.Statements[statement.ID] = statement
	for _, match := range matches {
		if match.ID == "" {
			match.ID = uuid.New().String()
		}
		match.StatementID = statement.ID
		match.LandlordID = statement.LandlordID
	}
	m.Matches[statement.ID] = matches
	return statement, nil
}

func (m *MockStatementRepository) GetByID(landlordID, statementID string) (*domain.Statement, error) {
	s, ok := m.Statements[statementID]
	if !ok || s.LandlordID != landlordID {
		return nil, domain.ErrStatementNotFound
	}
	return s, nil
}

func (m *MockStatementRepository) ListByLandlord(landlordID string) ([]*domain.Statement, error) {
	var out []*domain.Statement
	for _, s := range m.Statements {
		if s.LandlordID == landlordID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockStatementRepository) Delete(landlordID, statementID string) error {
	s, ok := m.Statements[statementID]
	if !ok || s.LandlordID != landlordID {
		return domain.ErrStatementNotFound
	}
	delete(m.Statements, statementID)
	delete(m.Matches, statementID)
	return nil
}

func (m *MockStatementRepository) UpdateCounts(statementID string, totalTransactions, matchedTransactions int) error {
	s, ok := m.Statements[statementID]
	if !ok {
		return domain.ErrStatementNotFound
	}
	s.TotalTransactions = totalTransactions
	s.MatchedTransactions = matchedTransactions
	return nil
}

// MockTransactionMatchRepository is a mock implementation of domain.TransactionMatchRepository.
// It shares its backing store with a MockStatementRepository so matches
// created via CreateWithMatches are visible here too.
type MockTransactionMatchRepository struct {
	statements *MockStatementRepository
}

// NewMockTransactionMatchRepository creates a new MockTransactionMatchRepository
// backed by the given MockStatementRepository's matches.
func NewMockTransactionMatchRepository(statements *MockStatementRepository) *MockTransactionMatchRepository {
	return &MockTransactionMatchRepository{statements: statements}
}

func (m *MockTransactionMatchRepository) GetByID(landlordID, matchID string) (*domain.TransactionMatch, error) {
	for _, matches := range m.statements.Matches {
		for _, match := range matches {
			if match.ID == matchID && match.LandlordID == landlordID {
				return match, nil
			}
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (m *MockTransactionMatchRepository) ListByStatement(landlordID, statementID string) ([]*domain.TransactionMatch, error) {
	var out []*domain.TransactionMatch
	for _, match := range m.statements.Matches[statementID] {
		if match.LandlordID == landlordID {
			out = append(out, match)
		}
	}
	return out, nil
}

func (m *MockTransactionMatchRepository) Update(match *domain.TransactionMatch) (*domain.TransactionMatch, error) {
	matches := m.statements.Matches[match.StatementID]
	for i, existing := range matches {
		if existing.ID == match.ID {
			matches[i] = match
			return match, nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

// MockActivityLogRepository is a mock implementation of domain.ActivityLogRepository.
type MockActivityLogRepository struct {
	Entries []*domain.ActivityLogEntry
}

// NewMockActivityLogRepository creates a new MockActivityLogRepository.
func NewMockActivityLogRepository() *MockActivityLogRepository {
	return &MockActivityLogRepository{}
}

func (m *MockActivityLogRepository) Append(entry *domain.ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

func (m *MockActivityLogRepository) ListByLandlord(landlordID string, limit int) ([]*domain.ActivityLogEntry, error) {
	var out []*domain.ActivityLogEntry
	for i := len(m.Entries) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Entries[i].LandlordID == landlordID {
			out = append(out, m.Entries[i])
		}
	}
	return out, nil
}

// MockStatementArchive is a mock implementation of storage.StatementArchive.
type MockStatementArchive struct {
	Objects map[string][]byte
}

// NewMockStatementArchive creates a new MockStatementArchive.
func NewMockStatementArchive() *MockStatementArchive {
	return &MockStatementArchive{Objects: make(map[string][]byte)}
}

func (m *MockStatementArchive) key(landlordID, statementID string) string {
	return landlordID + "/" + statementID
}

func (m *MockStatementArchive) Put(ctx context.Context, landlordID, statementID string, rawText []byte) error {
	m.Objects[m.key(landlordID, statementID)] = rawText
	return nil
}

func (m *MockStatementArchive) Get(ctx context.Context, landlordID, statementID string) ([]byte, error) {
	return m.Objects[m.key(landlordID, statementID)], nil
}

func (m *MockStatementArchive) Delete(ctx context.Context, landlordID, statementID string) error {
	delete(m.Objects, m.key(landlordID, statementID))
	return nil
}

// MockEmailSink is a mock implementation of sink.EmailSink.
type MockEmailSink struct {
	Sent []domain.PaymentReceivedEmail
	Err  error
}

func (m *MockEmailSink) SendPaymentReceived(email domain.PaymentReceivedEmail) error {
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, email)
	return nil
}
