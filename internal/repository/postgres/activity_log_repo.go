package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kodisha/rentcore/internal/domain"
)

// ActivityLogRepository implements domain.ActivityLogRepository using
// PostgreSQL. Entries are append-only, mirroring CallbackLogRepository.
type ActivityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(pool *pgxpool.Pool) *ActivityLogRepository {
	return &ActivityLogRepository{pool: pool}
}

// Append inserts a new activity-log entry.
func (r *ActivityLogRepository) Append(entry *domain.ActivityLogEntry) error {
	ctx := context.Background()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_logs (id, landlord_id, tenant_id, kind, message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		entry.ID, entry.LandlordID, entry.TenantID, string(entry.Kind), entry.Message, entry.CreatedAt)
	return err
}

// ListByLandlord returns the most recent activity-log entries for a
// landlord's live feed, newest first, capped at limit.
func (r *ActivityLogRepository) ListByLandlord(landlordID string, limit int) ([]*domain.ActivityLogEntry, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT id, landlord_id, tenant_id, kind, message, created_at
		FROM activity_logs WHERE landlord_id = $1 ORDER BY created_at DESC LIMIT $2`, landlordID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ActivityLogEntry
	for rows.Next() {
		var e domain.ActivityLogEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.LandlordID, &e.TenantID, &kind, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = domain.ActivityKind(kind)
		out = append(out, &e)
	}
	return out, rows.Err()
}
