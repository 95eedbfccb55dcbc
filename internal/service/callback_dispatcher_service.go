package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kodisha/rentcore/internal/daraja"
	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/sink"
	"github.com/kodisha/rentcore/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CallbackDispatcherService receives Daraja's asynchronous STK callback
// and timeout webhooks, correlates them against the originating
// PaymentIntent, and materializes PaymentHistory on success.
type CallbackDispatcherService struct {
	intentRepo     domain.PaymentIntentRepository
	historyRepo    domain.PaymentHistoryRepository
	landlordRepo   domain.LandlordRepository
	tenantRepo     domain.TenantRepository
	callbackRepo   domain.CallbackLogRepository
	activityRepo   domain.ActivityLogRepository
	emailSink      sink.EmailSink
	eventPublisher websocket.EventPublisher
}

// NewCallbackDispatcherService creates a new CallbackDispatcherService.
func NewCallbackDispatcherService(
	intentRepo domain.PaymentIntentRepository,
	historyRepo domain.PaymentHistoryRepository,
	landlordRepo domain.LandlordRepository,
	tenantRepo domain.TenantRepository,
	callbackRepo domain.CallbackLogRepository,
	activityRepo domain.ActivityLogRepository,
	emailSink sink.EmailSink,
) *CallbackDispatcherService {
	return &CallbackDispatcherService{
		intentRepo:   intentRepo,
		historyRepo:  historyRepo,
		landlordRepo: landlordRepo,
		tenantRepo:   tenantRepo,
		callbackRepo: callbackRepo,
		activityRepo: activityRepo,
		emailSink:    emailSink,
		eventPublisher: &websocket.NoOpPublisher{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates.
func (s *CallbackDispatcherService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *CallbackDispatcherService) publishEvent(landlordID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(landlordID, event)
	}
}

// Dispatch processes a single Daraja STK callback envelope. It
// never returns an error the handler should surface to Daraja as
// anything but the fixed Accepted acknowledgement. The malformed flag,
// set by the handler when the raw body failed to decode, makes the log
// row carry the sentinel result code.
func (s *CallbackDispatcherService) Dispatch(ctx context.Context, raw []byte, body daraja.STKCallbackBody, malformed bool) {
	cb := body.Body.STKCallback

	resultCode := cb.ResultCode
	if malformed {
		resultCode = domain.SentinelCode
	}

	if err := s.callbackRepo.Append(&domain.CallbackLog{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        resultCode,
		ResultDesc:        cb.ResultDesc,
		RawPayload:        raw,
		ReceivedAt:        time.Now(),
	}); err != nil {
		log.Error().Err(err).Str("checkout_request_id", cb.CheckoutRequestID).Msg("failed to append callback log")
	}

	if malformed || cb.CheckoutRequestID == "" {
		return
	}

	intent, err := s.intentRepo.FindByCheckout(cb.CheckoutRequestID)
	if err != nil || intent == nil {
		log.Warn().Str("checkout_request_id", cb.CheckoutRequestID).Msg("callback for unknown checkout request id, acknowledging")
		return
	}

	if cb.ResultCode == daraja.ResultSuccess {
		s.handleSuccess(ctx, intent, cb)
		return
	}
	s.handleFailure(intent, cb)
}

// DispatchTimeout processes the parallel timeout webhook:
// the named checkout request transitions straight to timeout with the
// Daraja-assigned initiator-timeout result code.
func (s *CallbackDispatcherService) DispatchTimeout(checkoutRequestID string) {
	resultCode := daraja.ResultTimeoutInitiator
	_, ok, err := s.intentRepo.TransitionTerminal(checkoutRequestID, domain.IntentTimeout, domain.TerminalTransitionFields{
		ResultCode: &resultCode,
		ResultDesc: "timeout callback received",
	})
	if err != nil {
		log.Error().Err(err).Str("checkout_request_id", checkoutRequestID).Msg("failed to transition intent on timeout callback")
		return
	}
	if !ok {
		log.Info().Str("checkout_request_id", checkoutRequestID).Msg("timeout callback for already-terminal intent, ignoring")
	}
}

func (s *CallbackDispatcherService) handleSuccess(ctx context.Context, intent *domain.PaymentIntent, cb daraja.STKCallback) {
	receipt, _ := cb.MpesaReceiptNumber()
	rawBody, _ := json.Marshal(cb)
	now := time.Now()

	transitioned, ok, err := s.intentRepo.TransitionTerminal(intent.CheckoutRequestID, domain.IntentSuccess, domain.TerminalTransitionFields{
		TransactionID:    receipt,
		ResultCode:       intPtr(cb.ResultCode),
		ResultDesc:       cb.ResultDesc,
		CallbackReceived: true,
		CallbackData:     rawBody,
		CompletedAt:      &now,
	})
	if err != nil {
		log.Error().Err(err).Str("checkout_request_id", intent.CheckoutRequestID).Msg("failed to transition intent to success")
		return
	}
	if !ok {
		// Already terminal: a redelivery. Nothing more to do.
		return
	}

	s.publishEvent(transitioned.LandlordID, websocket.PaymentIntentUpdated(map[string]interface{}{
		"id":     transitioned.ID,
		"status": string(domain.IntentSuccess),
	}))

	history, err := s.materializePaymentHistory(transitioned, receipt)
	if err != nil {
		log.Error().Err(err).Str("intent_id", transitioned.ID).Msg("failed to materialize payment history")
	}

	s.appendActivity(transitioned.LandlordID, &transitioned.TenantID, domain.ActivityPaymentReceived,
		fmt.Sprintf("Payment of %s received from tenant %s", transitioned.Amount.String(), transitioned.TenantID))
	s.appendActivity(transitioned.LandlordID, &transitioned.TenantID, domain.ActivityPaymentProcessed,
		fmt.Sprintf("Payment %s processed", receipt))

	s.maybeSendEmail(ctx, transitioned, history, receipt)
}

// handleFailure covers every non-zero STK callback ResultCode, including
// user cancellation (1032) and PIN-entry timeout (1037): all of them
// transition the intent to failed. "timeout" is reserved for the
// dedicated timeout webhook (DispatchTimeout) and passive TTL
// reclamation.
func (s *CallbackDispatcherService) handleFailure(intent *domain.PaymentIntent, cb daraja.STKCallback) {
	status := domain.IntentFailed
	transitioned, ok, err := s.intentRepo.TransitionTerminal(intent.CheckoutRequestID, status, domain.TerminalTransitionFields{
		ResultCode: intPtr(cb.ResultCode),
		ResultDesc: cb.ResultDesc,
	})
	if err != nil {
		log.Error().Err(err).Str("checkout_request_id", intent.CheckoutRequestID).Msg("failed to transition intent on failure callback")
		return
	}
	if !ok {
		return
	}

	s.publishEvent(transitioned.LandlordID, websocket.PaymentIntentUpdated(map[string]interface{}{
		"id":     transitioned.ID,
		"status": string(status),
	}))
	s.appendActivity(transitioned.LandlordID, &transitioned.TenantID, domain.ActivityPaymentFailed,
		fmt.Sprintf("Payment attempt failed: %s", cb.ResultDesc))
}

// materializePaymentHistory branches on BillID: update an
// existing obligation's row when one was billed ahead of time, otherwise
// derive a brand-new row from the tenant snapshot (this core has no
// Property entity of its own, so the tenant's own RentAmount stands in
// for "the property type matching the tenant's unit").
func (s *CallbackDispatcherService) materializePaymentHistory(intent *domain.PaymentIntent, receipt string) (*domain.PaymentHistory, error) {
	if intent.BillID != nil {
		existing, err := s.historyRepo.GetByIntentID(intent.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			existing.Status = domain.PaymentStatusCompleted
			existing.PaymentMethod = domain.PaymentMethodMpesa
			existing.TransactionID = receipt
			existing.Notes = existing.Notes + fmt.Sprintf(" M-Pesa payment: %s", receipt)
			return s.historyRepo.Update(existing)
		}
	}

	tenant, err := s.tenantRepo.GetByID(intent.LandlordID, intent.TenantID)
	if err != nil {
		return nil, err
	}

	monthlyRent, _ := decimal.NewFromString(tenant.RentAmount)
	propertyID := ""
	if tenant.PropertyID != nil {
		propertyID = *tenant.PropertyID
	}

	now := time.Now()
	history := &domain.PaymentHistory{
		ID:            uuid.New().String(),
		TenantID:      intent.TenantID,
		LandlordID:    intent.LandlordID,
		PropertyID:    propertyID,
		Amount:        intent.Amount,
		PaymentDate:   now,
		ForMonth:      int(now.Month()),
		ForYear:       now.Year(),
		MonthlyRent:   monthlyRent,
		PaymentMethod: domain.PaymentMethodMpesa,
		Status:        domain.PaymentStatusCompleted,
		Notes:         fmt.Sprintf("M-Pesa payment: %s", receipt),
		TransactionID: receipt,
		IntentID:      intent.ID,
	}
	return s.historyRepo.Create(history)
}

func (s *CallbackDispatcherService) appendActivity(landlordID string, tenantID *string, kind domain.ActivityKind, message string) {
	entry := &domain.ActivityLogEntry{
		LandlordID: landlordID,
		TenantID:   tenantID,
		Kind:       kind,
		Message:    message,
		CreatedAt:  time.Now(),
	}
	if err := s.activityRepo.Append(entry); err != nil {
		log.Error().Err(err).Str("landlord_id", landlordID).Msg("failed to append activity log entry")
		return
	}
	s.publishEvent(landlordID, websocket.ActivityCreated(entry))
}

// maybeSendEmail emits the payment-received email when the landlord has
// notifications enabled. Any failure is logged and swallowed — it must
// never affect the callback's response.
func (s *CallbackDispatcherService) maybeSendEmail(ctx context.Context, intent *domain.PaymentIntent, history *domain.PaymentHistory, receipt string) {
	landlord, err := s.landlordRepo.GetByID(intent.LandlordID)
	if err != nil || !landlord.EmailNotificationsOn {
		return
	}
	tenant, err := s.tenantRepo.GetByID(intent.LandlordID, intent.TenantID)
	if err != nil {
		return
	}

	propertyName, unitNumber, tenantEmail := "", "", ""
	if tenant.Email != nil {
		tenantEmail = *tenant.Email
	}
	if tenant.PropertyName != nil {
		propertyName = *tenant.PropertyName
	}
	if tenant.UnitNumber != nil {
		unitNumber = *tenant.UnitNumber
	}
	forPeriod := time.Now().Format("January 2006")

	email := domain.PaymentReceivedEmail{
		TenantName:    tenant.FullName,
		TenantEmail:   tenantEmail,
		Amount:        intent.Amount.String(),
		PaymentDate:   time.Now(),
		ReceiptNumber: receipt,
		PropertyName:  propertyName,
		UnitNumber:    unitNumber,
		ForPeriod:     forPeriod,
	}
	if err := s.emailSink.SendPaymentReceived(email); err != nil {
		log.Warn().Err(err).Str("intent_id", intent.ID).Msg("payment received email failed, ignoring")
	}
}
