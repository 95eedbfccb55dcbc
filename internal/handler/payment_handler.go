package handler

import (
	"errors"
	"net/http"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/middleware"
	"github.com/kodisha/rentcore/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PaymentHandler serves the payment-intent endpoints: initiating an
// STK push and reading back an intent's current snapshot.
type PaymentHandler struct {
	intents *service.PaymentIntentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(intents *service.PaymentIntentService) *PaymentHandler {
	return &PaymentHandler{intents: intents}
}

type initiateSTKRequest struct {
	LandlordID     string  `json:"landlordId"`
	TenantID       string  `json:"tenantId"`
	Phone          string  `json:"phone"`
	Amount         string  `json:"amount"`
	BillID         *string `json:"billId,omitempty"`
	IdempotencyKey string  `json:"idempotencyKey,omitempty"`
}

// InitiateSTK handles POST /api/payments/stk.
func (h *PaymentHandler) InitiateSTK(c echo.Context) error {
	var req initiateSTKRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "request body could not be parsed", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return NewValidationError(c, "amount must be a positive decimal", []ValidationError{
			{Field: "amount", Message: "must be a positive decimal"},
		})
	}

	landlordID := middleware.GetLandlordID(c)
	result, err := h.intents.InitiateSTK(c.Request().Context(), service.InitiateSTKInput{
		LandlordID:     landlordID,
		TenantID:       req.TenantID,
		Phone:          req.Phone,
		Amount:         amount,
		BillID:         req.BillID,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return h.mapInitiateError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"checkoutRequestID": result.CheckoutRequestID,
		"merchantRequestID": result.MerchantRequestID,
	})
}

func (h *PaymentHandler) mapInitiateError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrLandlordNotFound), errors.Is(err, domain.ErrTenantNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrGatewayNotConfigured):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidPhone):
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "phone", Message: err.Error()}})
	case errors.Is(err, domain.ErrDarajaTimeout):
		return NewGatewayTimeoutError(c, err.Error())
	case errors.Is(err, domain.ErrSTKRejected), errors.Is(err, domain.ErrDarajaAuthFailed):
		return NewBadGatewayError(c, err.Error())
	default:
		log.Error().Err(err).Msg("initiating stk push")
		return NewInternalError(c, "failed to initiate payment")
	}
}

// GetByCheckout handles GET /api/payments/stk/:checkoutRequestID.
func (h *PaymentHandler) GetByCheckout(c echo.Context) error {
	landlordID := middleware.GetLandlordID(c)
	checkoutRequestID := c.Param("checkoutRequestID")

	intent, err := h.intents.GetByCheckout(c.Request().Context(), landlordID, checkoutRequestID)
	if err != nil {
		if errors.Is(err, domain.ErrIntentNotFound) {
			return NewNotFoundError(c, "payment intent not found")
		}
		log.Error().Err(err).Str("checkout_request_id", checkoutRequestID).Msg("fetching payment intent")
		return NewInternalError(c, "failed to fetch payment intent")
	}
	return c.JSON(http.StatusOK, intent)
}
