package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kodisha/rentcore/internal/domain"
)

// CallbackLogRepository implements domain.CallbackLogRepository using
// PostgreSQL. There is no Update/Delete: every inbound Daraja callback,
// including redeliveries and malformed payloads, is appended.
type CallbackLogRepository struct {
	pool *pgxpool.Pool
}

// NewCallbackLogRepository creates a new CallbackLogRepository.
func NewCallbackLogRepository(pool *pgxpool.Pool) *CallbackLogRepository {
	return &CallbackLogRepository{pool: pool}
}

// Append inserts a CallbackLog row. Logging MUST precede intent mutation
// so the audit trail survives a crash between the two; callers are
// responsible for that ordering.
func (r *CallbackLogRepository) Append(entry *domain.CallbackLog) error {
	ctx := context.Background()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO callback_logs (id, merchant_request_id, checkout_request_id, result_code, result_desc, raw_payload, received_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		entry.ID, entry.MerchantRequestID, entry.CheckoutRequestID, entry.ResultCode,
		entry.ResultDesc, entry.RawPayload, entry.ReceivedAt)
	return err
}

// ListByCheckout returns every logged callback for a checkout request,
// ordered oldest first, e.g. to inspect a suspected redelivery.
func (r *CallbackLogRepository) ListByCheckout(checkoutRequestID string) ([]*domain.CallbackLog, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT id, merchant_request_id, checkout_request_id, result_code, result_desc, raw_payload, received_at
		FROM callback_logs WHERE checkout_request_id = $1 ORDER BY received_at ASC`, checkoutRequestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.CallbackLog
	for rows.Next() {
		var l domain.CallbackLog
		if err := rows.Scan(&l.ID, &l.MerchantRequestID, &l.CheckoutRequestID, &l.ResultCode, &l.ResultDesc, &l.RawPayload, &l.ReceivedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
