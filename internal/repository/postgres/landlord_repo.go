package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kodisha/rentcore/internal/domain"
)

// LandlordRepository implements domain.LandlordRepository using
// PostgreSQL, with queries written directly against pgx.
type LandlordRepository struct {
	pool *pgxpool.Pool
}

// NewLandlordRepository creates a new LandlordRepository.
func NewLandlordRepository(pool *pgxpool.Pool) *LandlordRepository {
	return &LandlordRepository{pool: pool}
}

// GetByID retrieves the Daraja-related slice of a landlord record.
func (r *LandlordRepository) GetByID(landlordID string) (*domain.Landlord, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT id, consumer_key, consumer_secret, passkey, environment,
		       business_short_code, business_type, is_configured, is_active,
		       configured_at, last_tested_at, email_notifications_on, callback_url
		FROM landlords WHERE id = $1`, landlordID)

	return scanLandlord(row)
}

// UpdateDarajaConfig upserts a landlord's Daraja credentials. ConsumerKey,
// ConsumerSecret and Passkey are expected to already be ciphertext — the
// caller (internal/service) is responsible for running them through
// internal/vault before calling this method.
func (r *LandlordRepository) UpdateDarajaConfig(landlordID string, cfg domain.DarajaConfig) (*domain.Landlord, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO landlords (
			id, consumer_key, consumer_secret, passkey, environment,
			business_short_code, business_type, is_configured, is_active, configured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE SET
			consumer_key = EXCLUDED.consumer_key,
			consumer_secret = EXCLUDED.consumer_secret,
			passkey = EXCLUDED.passkey,
			environment = EXCLUDED.environment,
			business_short_code = EXCLUDED.business_short_code,
			business_type = EXCLUDED.business_type,
			is_configured = EXCLUDED.is_configured,
			is_active = EXCLUDED.is_active,
			configured_at = now()
		RETURNING id, consumer_key, consumer_secret, passkey, environment,
		          business_short_code, business_type, is_configured, is_active,
		          configured_at, last_tested_at, email_notifications_on, callback_url`,
		landlordID, cfg.ConsumerKey, cfg.ConsumerSecret, cfg.Passkey, string(cfg.Environment),
		cfg.BusinessShortCode, string(cfg.BusinessType), cfg.IsConfigured, cfg.IsActive)

	return scanLandlord(row)
}

// ClearDarajaConfig deactivates a landlord's gateway without deleting the
// stored credentials, preserving the audit trail.
func (r *LandlordRepository) ClearDarajaConfig(landlordID string) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `UPDATE landlords SET is_active = false WHERE id = $1`, landlordID)
	return err
}

// SetLastTestedAt records the outcome timestamp of a credential test.
func (r *LandlordRepository) SetLastTestedAt(landlordID string, testedAt time.Time) error {
	ctx := context.Background()
	_, err := r.pool.Exec(ctx, `UPDATE landlords SET last_tested_at = $2 WHERE id = $1`, landlordID, testedAt)
	return err
}

func scanLandlord(row pgx.Row) (*domain.Landlord, error) {
	var l domain.Landlord
	var cfg domain.DarajaConfig
	var environment, businessType string

	if err := row.Scan(
		&l.ID, &cfg.ConsumerKey, &cfg.ConsumerSecret, &cfg.Passkey, &environment,
		&cfg.BusinessShortCode, &businessType, &cfg.IsConfigured, &cfg.IsActive,
		&cfg.ConfiguredAt, &cfg.LastTestedAt, &l.EmailNotificationsOn, &l.CallbackURL,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrLandlordNotFound
		}
		return nil, err
	}

	cfg.Environment = domain.DarajaEnvironment(environment)
	cfg.BusinessType = domain.BusinessType(businessType)
	l.DarajaConfig = cfg
	return &l, nil
}

// TenantRepository implements domain.TenantRepository using PostgreSQL.
// The payments core only reads tenant rows; they are owned and written
// by an external collaborator.
type TenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new TenantRepository.
func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// GetByID retrieves a single tenant scoped to a landlord.
func (r *TenantRepository) GetByID(landlordID, tenantID string) (*domain.Tenant, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT id, landlord_id, full_name, phone, email, rent_amount, property_id, property_name, unit_number
		FROM tenants WHERE landlord_id = $1 AND id = $2`, landlordID, tenantID)

	t, err := scanTenant(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListByLandlord retrieves the full tenant snapshot for a landlord,
// consumed as an immutable set by the statement ingest coordinator.
func (r *TenantRepository) ListByLandlord(landlordID string) ([]*domain.Tenant, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT id, landlord_id, full_name, phone, email, rent_amount, property_id, property_name, unit_number
		FROM tenants WHERE landlord_id = $1 ORDER BY full_name`, landlordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var t domain.Tenant
	var rent pgtype.Numeric
	if err := row.Scan(&t.ID, &t.LandlordID, &t.FullName, &t.Phone, &t.Email, &rent, &t.PropertyID, &t.PropertyName, &t.UnitNumber); err != nil {
		return nil, err
	}
	t.RentAmount = numericToDecimal(rent).String()
	return &t, nil
}
