package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kodisha/rentcore/internal/domain"
)

// PaymentIntentRepository implements domain.PaymentIntentRepository using
// PostgreSQL. TransitionTerminal is the idempotency fence callback
// redelivery relies on: it is a single UPDATE ... WHERE
// status = 'pending' statement, so concurrent callers racing on the same
// checkoutRequestID can never both observe a transition.
type PaymentIntentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentIntentRepository creates a new PaymentIntentRepository.
func NewPaymentIntentRepository(pool *pgxpool.Pool) *PaymentIntentRepository {
	return &PaymentIntentRepository{pool: pool}
}

// Create inserts a new pending intent.
func (r *PaymentIntentRepository) Create(intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	ctx := context.Background()
	amount, err := decimalToNumeric(intent.Amount)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO payment_intents (
			id, landlord_id, tenant_id, bill_id, amount, phone_number, payment_reference,
			account_reference, transaction_desc, business_short_code, business_type,
			idempotency_key, status, merchant_request_id, checkout_request_id,
			created_at, expires_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id, landlord_id, tenant_id, bill_id, amount, phone_number, payment_reference,
		          account_reference, transaction_desc, business_short_code, business_type,
		          idempotency_key, status, merchant_request_id, checkout_request_id,
		          transaction_id, result_code, result_desc, callback_received, callback_data,
		          completed_at, created_at, expires_at`,
		intent.ID, intent.LandlordID, intent.TenantID, intent.BillID, amount, intent.PhoneNumber,
		intent.PaymentReference, intent.AccountReference, intent.TransactionDesc,
		intent.BusinessShortCode, string(intent.BusinessType), intent.IdempotencyKey,
		string(intent.Status), intent.MerchantRequestID, intent.CheckoutRequestID,
		intent.CreatedAt, intent.ExpiresAt)

	return scanIntent(row)
}

// FindByCheckout looks up an intent by its unique CheckoutRequestID.
func (r *PaymentIntentRepository) FindByCheckout(checkoutRequestID string) (*domain.PaymentIntent, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, intentSelect+` WHERE checkout_request_id = $1`, checkoutRequestID)
	return scanIntentOrNotFound(row)
}

// FindByID looks up an intent by its opaque id.
func (r *PaymentIntentRepository) FindByID(id string) (*domain.PaymentIntent, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, intentSelect+` WHERE id = $1`, id)
	return scanIntentOrNotFound(row)
}

// FindByIdempotencyKey looks up an intent by its client-computed
// idempotency key, used to absorb STK-initiation replays.
func (r *PaymentIntentRepository) FindByIdempotencyKey(idempotencyKey string) (*domain.PaymentIntent, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, intentSelect+` WHERE idempotency_key = $1`, idempotencyKey)
	return scanIntentOrNotFound(row)
}

// TransitionTerminal performs the terminal-transition CAS: it only
// ever mutates a row that is still pending, and reports ok=false (no
// error) when nothing matched, which is the signal callers use to treat
// a callback as a redelivery.
func (r *PaymentIntentRepository) TransitionTerminal(checkoutRequestID string, newStatus domain.IntentStatus, fields domain.TerminalTransitionFields) (*domain.PaymentIntent, bool, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		UPDATE payment_intents SET
			status = $2,
			transaction_id = COALESCE(NULLIF($3, ''), transaction_id),
			result_code = COALESCE($4, result_code),
			result_desc = COALESCE(NULLIF($5, ''), result_desc),
			callback_received = callback_received OR $6,
			callback_data = COALESCE($7, callback_data),
			completed_at = COALESCE($8, completed_at)
		WHERE checkout_request_id = $1 AND status = 'pending'
		RETURNING id, landlord_id, tenant_id, bill_id, amount, phone_number, payment_reference,
		          account_reference, transaction_desc, business_short_code, business_type,
		          idempotency_key, status, merchant_request_id, checkout_request_id,
		          transaction_id, result_code, result_desc, callback_received, callback_data,
		          completed_at, created_at, expires_at`,
		checkoutRequestID, string(newStatus), fields.TransactionID, fields.ResultCode,
		fields.ResultDesc, fields.CallbackReceived, fields.CallbackData, fields.CompletedAt)

	intent, err := scanIntent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	return intent, true, nil
}

const intentSelect = `
	SELECT id, landlord_id, tenant_id, bill_id, amount, phone_number, payment_reference,
	       account_reference, transaction_desc, business_short_code, business_type,
	       idempotency_key, status, merchant_request_id, checkout_request_id,
	       transaction_id, result_code, result_desc, callback_received, callback_data,
	       completed_at, created_at, expires_at
	FROM payment_intents`

func scanIntentOrNotFound(row pgx.Row) (*domain.PaymentIntent, error) {
	intent, err := scanIntent(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrIntentNotFound
		}
		return nil, err
	}
	return intent, nil
}

func scanIntent(row pgx.Row) (*domain.PaymentIntent, error) {
	var p domain.PaymentIntent
	var amount pgtype.Numeric
	var businessType, status string

	if err := row.Scan(
		&p.ID, &p.LandlordID, &p.TenantID, &p.BillID, &amount, &p.PhoneNumber, &p.PaymentReference,
		&p.AccountReference, &p.TransactionDesc, &p.BusinessShortCode, &businessType,
		&p.IdempotencyKey, &status, &p.MerchantRequestID, &p.CheckoutRequestID,
		&p.TransactionID, &p.ResultCode, &p.ResultDesc, &p.CallbackReceived, &p.CallbackData,
		&p.CompletedAt, &p.CreatedAt, &p.ExpiresAt,
	); err != nil {
		return nil, err
	}

	p.BusinessType = domain.BusinessType(businessType)
	p.Status = domain.IntentStatus(status)
	p.Amount = numericToDecimal(amount)
	return &p, nil
}
