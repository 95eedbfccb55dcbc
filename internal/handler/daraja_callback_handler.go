package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/kodisha/rentcore/internal/daraja"
	"github.com/kodisha/rentcore/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// darajaAccepted is the fixed acknowledgement Daraja expects for every
// callback and timeout delivery, success or failure: Daraja
// retries a webhook that doesn't return this shape, so the response must
// never reflect this core's own processing outcome.
var darajaAccepted = map[string]interface{}{"ResultCode": 0, "ResultDesc": "Accepted"}

// DarajaCallbackHandler receives Daraja's asynchronous STK callback and
// timeout webhooks.
type DarajaCallbackHandler struct {
	dispatcher *service.CallbackDispatcherService
}

// NewDarajaCallbackHandler creates a new DarajaCallbackHandler.
func NewDarajaCallbackHandler(dispatcher *service.CallbackDispatcherService) *DarajaCallbackHandler {
	return &DarajaCallbackHandler{dispatcher: dispatcher}
}

// Callback handles POST /api/daraja/callback. Parse errors are still
// acknowledged with 200 so Daraja stops retrying a payload that will
// never improve; the one rejected shape is an envelope with no
// stkCallback body at all, which gets a 400 after the raw payload has
// been recorded.
func (h *DarajaCallbackHandler) Callback(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewValidationError(c, "could not read callback body", nil)
	}

	var body daraja.STKCallbackBody
	malformed := json.Unmarshal(raw, &body) != nil
	if malformed {
		log.Warn().Msg("received malformed daraja callback envelope")
	}

	var probe struct {
		Body struct {
			STKCallback json.RawMessage `json:"stkCallback"`
		} `json:"Body"`
	}
	missingShape := !malformed && (json.Unmarshal(raw, &probe) != nil || len(probe.Body.STKCallback) == 0)

	h.dispatcher.Dispatch(c.Request().Context(), raw, body, malformed || missingShape)

	if missingShape {
		return NewValidationError(c, "callback envelope has no stkCallback body", nil)
	}
	return c.JSON(http.StatusOK, darajaAccepted)
}

// Timeout handles POST /api/daraja/timeout.
func (h *DarajaCallbackHandler) Timeout(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return NewValidationError(c, "could not read timeout body", nil)
	}

	var body daraja.STKCallbackBody
	if err := json.Unmarshal(raw, &body); err == nil {
		checkoutRequestID := body.Body.STKCallback.CheckoutRequestID
		if checkoutRequestID != "" {
			h.dispatcher.DispatchTimeout(checkoutRequestID)
		}
	} else {
		log.Warn().Msg("received malformed daraja timeout envelope")
	}

	return c.JSON(http.StatusOK, darajaAccepted)
}
