package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kodisha/rentcore/internal/domain"
)

// PaymentHistoryRepository implements domain.PaymentHistoryRepository
// using PostgreSQL. At most one row exists per intent; the callback
// dispatcher enforces that by writing only after winning the intent's
// terminal transition, and for billed intents by checking GetByIntentID
// before creating, rather than relying on a database constraint.
type PaymentHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentHistoryRepository creates a new PaymentHistoryRepository.
func NewPaymentHistoryRepository(pool *pgxpool.Pool) *PaymentHistoryRepository {
	return &PaymentHistoryRepository{pool: pool}
}

// Create inserts a new settled-obligation row.
func (r *PaymentHistoryRepository) Create(h *domain.PaymentHistory) (*domain.PaymentHistory, error) {
	ctx := context.Background()
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	amount, err := decimalToNumeric(h.Amount)
	if err != nil {
		return nil, err
	}
	rent, err := decimalToNumeric(h.MonthlyRent)
	if err != nil {
		return nil, err
	}
	totalUtil, err := decimalToNumeric(h.TotalUtilityCost)
	if err != nil {
		return nil, err
	}
	utilities, err := json.Marshal(h.UtilityCharges)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO payment_histories (
			id, tenant_id, landlord_id, property_id, amount, payment_date, for_month, for_year,
			monthly_rent, payment_method, status, notes, utility_charges, total_utility_cost,
			transaction_id, intent_id, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
		RETURNING id, tenant_id, landlord_id, property_id, amount, payment_date, for_month, for_year,
		          monthly_rent, payment_method, status, notes, utility_charges, total_utility_cost,
		          transaction_id, intent_id, created_at`,
		h.ID, h.TenantID, h.LandlordID, h.PropertyID, amount, h.PaymentDate, h.ForMonth, h.ForYear,
		rent, string(h.PaymentMethod), string(h.Status), h.Notes, utilities, totalUtil,
		h.TransactionID, h.IntentID)

	return scanPaymentHistory(row)
}

// GetByID retrieves a PaymentHistory row by its id.
func (r *PaymentHistoryRepository) GetByID(id string) (*domain.PaymentHistory, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, paymentHistorySelect+` WHERE id = $1`, id)
	return scanPaymentHistoryOrNotFound(row)
}

// GetByIntentID retrieves the PaymentHistory row materialized for a
// given STK-push intent, or nil if none exists yet. The callback
// dispatcher uses it to
// decide between updating and creating on a successful callback.
func (r *PaymentHistoryRepository) GetByIntentID(intentID string) (*domain.PaymentHistory, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, paymentHistorySelect+` WHERE intent_id = $1`, intentID)
	h, err := scanPaymentHistory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return h, nil
}

// Update persists changes to an existing PaymentHistory row, e.g.
// marking it completed once the M-Pesa receipt arrives.
func (r *PaymentHistoryRepository) Update(h *domain.PaymentHistory) (*domain.PaymentHistory, error) {
	ctx := context.Background()
	amount, err := decimalToNumeric(h.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE payment_histories SET
			amount = $2, status = $3, notes = $4, payment_method = $5, transaction_id = $6
		WHERE id = $1
		RETURNING id, tenant_id, landlord_id, property_id, amount, payment_date, for_month, for_year,
		          monthly_rent, payment_method, status, notes, utility_charges, total_utility_cost,
		          transaction_id, intent_id, created_at`,
		h.ID, amount, string(h.Status), h.Notes, string(h.PaymentMethod), h.TransactionID)

	return scanPaymentHistoryOrNotFound(row)
}

const paymentHistorySelect = `
	SELECT id, tenant_id, landlord_id, property_id, amount, payment_date, for_month, for_year,
	       monthly_rent, payment_method, status, notes, utility_charges, total_utility_cost,
	       transaction_id, intent_id, created_at
	FROM payment_histories`

func scanPaymentHistoryOrNotFound(row pgx.Row) (*domain.PaymentHistory, error) {
	h, err := scanPaymentHistory(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return h, nil
}

func scanPaymentHistory(row pgx.Row) (*domain.PaymentHistory, error) {
	var h domain.PaymentHistory
	var amount, rent, totalUtil pgtype.Numeric
	var method, status string
	var utilitiesRaw []byte

	if err := row.Scan(
		&h.ID, &h.TenantID, &h.LandlordID, &h.PropertyID, &amount, &h.PaymentDate, &h.ForMonth, &h.ForYear,
		&rent, &method, &status, &h.Notes, &utilitiesRaw, &totalUtil, &h.TransactionID, &h.IntentID, &h.CreatedAt,
	); err != nil {
		return nil, err
	}

	h.Amount = numericToDecimal(amount)
	h.MonthlyRent = numericToDecimal(rent)
	h.TotalUtilityCost = numericToDecimal(totalUtil)
	h.PaymentMethod = domain.PaymentMethod(method)
	h.Status = domain.PaymentStatus(status)

	if len(utilitiesRaw) > 0 {
		if err := json.Unmarshal(utilitiesRaw, &h.UtilityCharges); err != nil {
			return nil, err
		}
	}

	return &h, nil
}
