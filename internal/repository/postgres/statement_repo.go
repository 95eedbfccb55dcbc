package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kodisha/rentcore/internal/domain"
)

// StatementRepository implements domain.StatementRepository using
// PostgreSQL. CreateWithMatches is the only multi-row write in this
// core and runs inside a single transaction.
type StatementRepository struct {
	pool *pgxpool.Pool
}

// NewStatementRepository creates a new StatementRepository.
func NewStatementRepository(pool *pgxpool.Pool) *StatementRepository {
	return &StatementRepository{pool: pool}
}

// CreateWithMatches inserts a Statement and its scored TransactionMatch
// children atomically: either the whole statement lands with
// its matches, or none of it does.
func (r *StatementRepository) CreateWithMatches(statement *domain.Statement, matches []*domain.TransactionMatch) (*domain.Statement, error) {
	ctx := context.Background()
	if statement.ID == "" {
		statement.ID = uuid.New().String()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO statements (
			id, landlord_id, file_name, upload_date, period_start, period_end,
			total_transactions, matched_transactions, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		statement.ID, statement.LandlordID, statement.FileName, statement.UploadDate,
		statement.Period.Start, statement.Period.End, statement.TotalTransactions,
		statement.MatchedTransactions, string(statement.Status))
	if err != nil {
		return nil, err
	}

	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.StatementID = statement.ID
		m.LandlordID = statement.LandlordID

		txJSON, err := json.Marshal(m.Transaction)
		if err != nil {
			return nil, err
		}
		matchedJSON, err := json.Marshal(m.MatchedTenant)
		if err != nil {
			return nil, err
		}
		altJSON, err := json.Marshal(m.Alternatives)
		if err != nil {
			return nil, err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO transaction_matches (
				id, statement_id, landlord_id, transaction, matched_tenant, alternatives,
				status, review_notes, payment_id
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			m.ID, m.StatementID, m.LandlordID, txJSON, matchedJSON, altJSON,
			string(m.Status), m.ReviewNotes, m.PaymentID)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.GetByID(statement.LandlordID, statement.ID)
}

// GetByID retrieves a statement scoped to a landlord.
func (r *StatementRepository) GetByID(landlordID, statementID string) (*domain.Statement, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, statementSelect+` WHERE landlord_id = $1 AND id = $2`, landlordID, statementID)
	return scanStatementOrNotFound(row)
}

// ListByLandlord returns every non-deleted statement for a landlord,
// newest upload first.
func (r *StatementRepository) ListByLandlord(landlordID string) ([]*domain.Statement, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, statementSelect+` WHERE landlord_id = $1 AND status != 'deleted' ORDER BY upload_date DESC`, landlordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Statement
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a statement and its matches, but never touches
// already-approved PaymentHistory rows — those are a
// separate table this method never writes to.
func (r *StatementRepository) Delete(landlordID, statementID string) error {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transaction_matches WHERE landlord_id = $1 AND statement_id = $2`, landlordID, statementID); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM statements WHERE landlord_id = $1 AND id = $2`, landlordID, statementID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStatementNotFound
	}
	return tx.Commit(ctx)
}

// UpdateCounts refreshes a statement's derived totals, e.g. after a
// match transitions in or out of "matched" during review.
func (r *StatementRepository) UpdateCounts(statementID string, totalTransactions, matchedTransactions int) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `
		UPDATE statements SET total_transactions = $2, matched_transactions = $3 WHERE id = $1`,
		statementID, totalTransactions, matchedTransactions)
	return err
}

const statementSelect = `
	SELECT id, landlord_id, file_name, upload_date, period_start, period_end,
	       total_transactions, matched_transactions, status
	FROM statements`

func scanStatementOrNotFound(row pgx.Row) (*domain.Statement, error) {
	s, err := scanStatement(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrStatementNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanStatement(row pgx.Row) (*domain.Statement, error) {
	var s domain.Statement
	var status string
	if err := row.Scan(
		&s.ID, &s.LandlordID, &s.FileName, &s.UploadDate, &s.Period.Start, &s.Period.End,
		&s.TotalTransactions, &s.MatchedTransactions, &status,
	); err != nil {
		return nil, err
	}
	s.Status = domain.StatementStatus(status)
	return &s, nil
}
