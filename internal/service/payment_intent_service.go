package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/rentcore/internal/daraja"
	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/phone"
	"github.com/kodisha/rentcore/internal/reference"
	"github.com/kodisha/rentcore/internal/vault"
	"github.com/kodisha/rentcore/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentIntentService drives the STK Push lifecycle from intent
// creation through Daraja initiation. Callback correlation is
// handled separately by CallbackDispatcherService.
type PaymentIntentService struct {
	intentRepo     domain.PaymentIntentRepository
	landlordRepo   domain.LandlordRepository
	tenantRepo     domain.TenantRepository
	darajaClient   *daraja.Client
	vault          *vault.Vault
	callbackURL    string
	eventPublisher websocket.EventPublisher
}

// NewPaymentIntentService creates a new PaymentIntentService.
func NewPaymentIntentService(
	intentRepo domain.PaymentIntentRepository,
	landlordRepo domain.LandlordRepository,
	tenantRepo domain.TenantRepository,
	darajaClient *daraja.Client,
	v *vault.Vault,
	callbackURL string,
) *PaymentIntentService {
	return &PaymentIntentService{
		intentRepo:   intentRepo,
		landlordRepo: landlordRepo,
		tenantRepo:   tenantRepo,
		darajaClient: darajaClient,
		vault:        v,
		callbackURL:  callbackURL,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PaymentIntentService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PaymentIntentService) publishEvent(landlordID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(landlordID, event)
	}
}

// InitiateSTKInput carries the fields accepted by
// POST /api/payments/stk.
type InitiateSTKInput struct {
	LandlordID string
	TenantID   string
	Phone      string
	Amount     decimal.Decimal
	BillID     *string
	// IdempotencyKey, when supplied by the caller, lets a retried POST
	// resolve to the intent the first attempt created instead of pushing
	// a second STK prompt. When empty a fresh key is derived.
	IdempotencyKey string
}

// InitiateSTKResult is returned to the caller once Daraja has accepted
// the push request for processing.
type InitiateSTKResult struct {
	CheckoutRequestID string
	MerchantRequestID string
}

// InitiateSTK drives the Daraja STK push and persists the resulting
// pending PaymentIntent. The intent is stored only after Daraja accepts
// the push, so the stored row always carries its correlation ids in a
// single write; replays are absorbed up front by the idempotency-key
// lookup.
func (s *PaymentIntentService) InitiateSTK(ctx context.Context, input InitiateSTKInput) (*InitiateSTKResult, error) {
	// 1. Load landlord and validate gateway configuration
	landlord, err := s.landlordRepo.GetByID(input.LandlordID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrLandlordNotFound, err)
	}
	if !landlord.DarajaConfig.IsConfigured || !landlord.DarajaConfig.IsActive || !landlord.DarajaConfig.Complete() {
		return nil, domain.ErrGatewayNotConfigured
	}

	// 2. Validate tenant belongs to this landlord
	tenant, err := s.tenantRepo.GetByID(input.LandlordID, input.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTenantNotFound, err)
	}

	// 3. Normalize phone
	normalizedPhone, ok := phone.Normalize(input.Phone)
	if !ok {
		return nil, domain.ErrInvalidPhone
	}

	// 4. Derive references
	now := time.Now()
	monthAbbrev := now.Format("Jan")
	billID := ""
	if input.BillID != nil {
		billID = *input.BillID
	}
	idempotencyKey := input.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = reference.IdempotencyKey(input.LandlordID, input.TenantID, billID, now.UnixMilli())
	}

	if existing, err := s.intentRepo.FindByIdempotencyKey(idempotencyKey); err == nil && existing != nil {
		return &InitiateSTKResult{
			CheckoutRequestID: existing.CheckoutRequestID,
			MerchantRequestID: existing.MerchantRequestID,
		}, nil
	}

	paymentRef, err := reference.PaymentReference(now, landlordSeq(input.LandlordID), tenantSeq(input.TenantID))
	if err != nil {
		return nil, fmt.Errorf("generating payment reference: %w", err)
	}

	propertyCode := ""
	unitCode := ""
	if tenant.PropertyName != nil {
		propertyCode = *tenant.PropertyName
	}
	if tenant.UnitNumber != nil {
		unitCode = *tenant.UnitNumber
	}
	accountRef := reference.AccountReference(input.TenantID, monthAbbrev, propertyCode, unitCode)
	txDesc := reference.TransactionDesc(monthAbbrev, propertyCode)

	// 5. Decrypt credentials, tolerating legacy plaintext
	creds := s.decryptCredentials(landlord.DarajaConfig)

	// 6. Build the pending intent; it is persisted only after Daraja accepts
	intent := &domain.PaymentIntent{
		ID:                uuid.New().String(),
		LandlordID:        input.LandlordID,
		TenantID:          input.TenantID,
		BillID:            input.BillID,
		Amount:            input.Amount,
		PhoneNumber:       normalizedPhone,
		PaymentReference:  paymentRef,
		AccountReference:  accountRef,
		TransactionDesc:   txDesc,
		BusinessShortCode: landlord.DarajaConfig.BusinessShortCode,
		BusinessType:      landlord.DarajaConfig.BusinessType,
		IdempotencyKey:    idempotencyKey,
		Status:            domain.IntentPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(domain.IntentTTL),
	}

	// 7. Initiate the STK push before persisting, so the stored intent
	// always carries its Daraja correlation ids (no separate update step)
	result, err := s.darajaClient.InitiateSTKPush(ctx, creds, daraja.STKPushParams{
		Amount:           input.Amount.Round(0).String(),
		PhoneNumber:      normalizedPhone,
		CallbackURL:      s.callbackURL,
		AccountReference: accountRef,
		TransactionDesc:  txDesc,
	})
	if err != nil {
		return nil, err
	}

	intent.MerchantRequestID = result.MerchantRequestID
	intent.CheckoutRequestID = result.CheckoutRequestID

	created, err := s.intentRepo.Create(intent)
	if err != nil {
		return nil, fmt.Errorf("persisting payment intent: %w", err)
	}

	s.publishEvent(input.LandlordID, websocket.PaymentIntentCreated(map[string]interface{}{
		"id":                created.ID,
		"checkoutRequestId": result.CheckoutRequestID,
		"status":            string(domain.IntentPending),
	}))

	return &InitiateSTKResult{
		CheckoutRequestID: result.CheckoutRequestID,
		MerchantRequestID: result.MerchantRequestID,
	}, nil
}

// GetByCheckout returns the current snapshot of an intent, reclaiming it
// to timeout when it is still pending past its TTL:
// a status query against Daraja is attempted first, falling back to a
// bare timeout transition if the query itself fails or still reports
// the request as processing.
func (s *PaymentIntentService) GetByCheckout(ctx context.Context, landlordID, checkoutRequestID string) (*domain.PaymentIntent, error) {
	intent, err := s.intentRepo.FindByCheckout(checkoutRequestID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIntentNotFound, err)
	}
	if intent.LandlordID != landlordID {
		return nil, domain.ErrIntentNotFound
	}

	if intent.Status != domain.IntentPending || !intent.Expired(time.Now()) {
		return intent, nil
	}

	landlord, err := s.landlordRepo.GetByID(landlordID)
	if err != nil {
		return intent, nil
	}
	creds := s.decryptCredentials(landlord.DarajaConfig)

	query, err := s.darajaClient.QueryStatus(ctx, creds, checkoutRequestID)
	if err != nil || query.ResultCode == daraja.ResultStillProcessing {
		reclaimed, ok, txErr := s.intentRepo.TransitionTerminal(checkoutRequestID, domain.IntentTimeout, domain.TerminalTransitionFields{
			ResultCode: intPtr(daraja.ResultTimeoutInitiator),
			ResultDesc: "reclaimed: no callback received before expiry",
		})
		if txErr == nil && ok {
			return reclaimed, nil
		}
		return intent, nil
	}

	status := daraja.TerminalStatusForResultCode(query.ResultCode)
	reclaimed, ok, txErr := s.intentRepo.TransitionTerminal(checkoutRequestID, status, domain.TerminalTransitionFields{
		ResultCode: intPtr(query.ResultCode),
		ResultDesc: query.ResultDesc,
	})
	if txErr == nil && ok {
		return reclaimed, nil
	}
	return intent, nil
}

func (s *PaymentIntentService) decryptCredentials(cfg domain.DarajaConfig) daraja.Credentials {
	return daraja.Credentials{
		ConsumerKey:       s.decryptOne(cfg.ConsumerKey),
		ConsumerSecret:    s.decryptOne(cfg.ConsumerSecret),
		Passkey:           s.decryptOne(cfg.Passkey),
		BusinessShortCode: cfg.BusinessShortCode,
		BusinessType:      cfg.BusinessType,
		Environment:       cfg.Environment,
	}
}

// decryptOne decrypts a single credential field, falling back to the
// raw value on corruption to permit one-time migration of legacy
// plaintext rows.
func (s *PaymentIntentService) decryptOne(ciphertext string) string {
	if !vault.IsEncrypted(ciphertext) {
		return ciphertext
	}
	plaintext, err := s.vault.Decrypt(ciphertext)
	if err != nil {
		log.Warn().Err(err).Msg("daraja credential failed to decrypt, falling back to stored value")
		return ciphertext
	}
	return plaintext
}

func intPtr(i int) *int { return &i }

// landlordSeq/tenantSeq derive a stable 3-digit sequence number from an
// opaque string ID for PaymentReference's L<3digits>/T<3digits> fields,
// which predate this core's move to UUID-shaped ids.
func landlordSeq(id string) int {
	return seqFromID(id)
}

func tenantSeq(id string) int {
	return seqFromID(id)
}

func seqFromID(id string) int {
	sum := 0
	for _, r := range id {
		sum = sum*31 + int(r)
	}
	if sum < 0 {
		sum = -sum
	}
	return sum % 1000
}
