package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kodisha/rentcore/internal/domain"
)

// TransactionMatchRepository implements domain.TransactionMatchRepository
// using PostgreSQL. Matches are only ever created as children of a
// Statement (see StatementRepository.CreateWithMatches); this repository
// covers the read/update side of the review workflow.
type TransactionMatchRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionMatchRepository creates a new TransactionMatchRepository.
func NewTransactionMatchRepository(pool *pgxpool.Pool) *TransactionMatchRepository {
	return &TransactionMatchRepository{pool: pool}
}

// GetByID retrieves a match scoped to a landlord.
func (r *TransactionMatchRepository) GetByID(landlordID, matchID string) (*domain.TransactionMatch, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, matchSelect+` WHERE landlord_id = $1 AND id = $2`, landlordID, matchID)
	return scanMatchOrNotFound(row)
}

// ListByStatement returns every match belonging to a statement.
func (r *TransactionMatchRepository) ListByStatement(landlordID, statementID string) ([]*domain.TransactionMatch, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, matchSelect+` WHERE landlord_id = $1 AND statement_id = $2 ORDER BY created_at ASC NULLS LAST`, landlordID, statementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.TransactionMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Update persists a review-workflow transition (approve/reject/manual
// match) onto an existing TransactionMatch row.
func (r *TransactionMatchRepository) Update(match *domain.TransactionMatch) (*domain.TransactionMatch, error) {
	ctx := context.Background()

	matchedJSON, err := json.Marshal(match.MatchedTenant)
	if err != nil {
		return nil, err
	}
	altJSON, err := json.Marshal(match.Alternatives)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE transaction_matches SET
			matched_tenant = $2, alternatives = $3, status = $4, review_notes = $5, payment_id = $6
		WHERE id = $1
		RETURNING id, statement_id, landlord_id, transaction, matched_tenant, alternatives,
		          status, review_notes, payment_id`,
		match.ID, matchedJSON, altJSON, string(match.Status), match.ReviewNotes, match.PaymentID)

	return scanMatchOrNotFound(row)
}

const matchSelect = `
	SELECT id, statement_id, landlord_id, transaction, matched_tenant, alternatives,
	       status, review_notes, payment_id
	FROM transaction_matches`

func scanMatchOrNotFound(row pgx.Row) (*domain.TransactionMatch, error) {
	m, err := scanMatch(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func scanMatch(row pgx.Row) (*domain.TransactionMatch, error) {
	var m domain.TransactionMatch
	var status string
	var txRaw, matchedRaw, altRaw []byte

	if err := row.Scan(
		&m.ID, &m.StatementID, &m.LandlordID, &txRaw, &matchedRaw, &altRaw,
		&status, &m.ReviewNotes, &m.PaymentID,
	); err != nil {
		return nil, err
	}
	m.Status = domain.ReviewStatus(status)

	if len(txRaw) > 0 {
		if err := json.Unmarshal(txRaw, &m.Transaction); err != nil {
			return nil, err
		}
	}
	if len(matchedRaw) > 0 && string(matchedRaw) != "null" {
		var tc domain.TenantCandidate
		if err := json.Unmarshal(matchedRaw, &tc); err != nil {
			return nil, err
		}
		m.MatchedTenant = &tc
	}
	if len(altRaw) > 0 {
		if err := json.Unmarshal(altRaw, &m.Alternatives); err != nil {
			return nil, err
		}
	}

	return &m, nil
}
