package handler

import (
	"bytes"
	"errors"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/middleware"
	"github.com/kodisha/rentcore/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReceiptHandler serves the receipt streaming endpoint: it has the
// rendering sink behind ReceiptService write into a buffer, then streams
// that buffer to the client.
type ReceiptHandler struct {
	receipts *service.ReceiptService
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(receipts *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receipts: receipts}
}

// Stream handles GET /api/payments/:paymentId/receipt.
func (h *ReceiptHandler) Stream(c echo.Context) error {
	landlordID := middleware.GetLandlordID(c)
	paymentID := c.Param("paymentId")

	// Assemble into a buffer first: the external PDF sink's errors must
	// map to a proper status code, which isn't possible once headers are
	// already flushed to the client.
	var buf bytes.Buffer
	if err := h.receipts.Stream(c.Request().Context(), landlordID, paymentID, &buf); err != nil {
		switch {
		case errors.Is(err, domain.ErrPaymentNotFound):
			return NewNotFoundError(c, "payment not found")
		case errors.Is(err, domain.ErrPaymentNotCompleted):
			return NewUnprocessableEntityError(c, err.Error())
		default:
			log.Error().Err(err).Str("payment_id", paymentID).Msg("streaming receipt")
			return NewInternalError(c, "failed to stream receipt")
		}
	}

	return c.Stream(200, "application/pdf", &buf)
}
