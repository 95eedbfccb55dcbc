package handler

import (
	"errors"
	"net/http"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/middleware"
	"github.com/kodisha/rentcore/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MatchHandler serves the per-TransactionMatch review endpoints:
// approve, reject, and manual re-binding.
type MatchHandler struct {
	review *service.ReviewWorkflowService
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(review *service.ReviewWorkflowService) *MatchHandler {
	return &MatchHandler{review: review}
}

type reviewNotesRequest struct {
	Notes string `json:"notes,omitempty"`
}

// Approve handles POST /api/mpesa/matches/:id/approve.
func (h *MatchHandler) Approve(c echo.Context) error {
	var req reviewNotesRequest
	_ = c.Bind(&req)

	landlordID := middleware.GetLandlordID(c)
	match, err := h.review.Approve(landlordID, c.Param("id"), req.Notes)
	if err != nil {
		return h.mapReviewError(c, err)
	}
	return c.JSON(http.StatusOK, match)
}

// Reject handles POST /api/mpesa/matches/:id/reject.
func (h *MatchHandler) Reject(c echo.Context) error {
	var req reviewNotesRequest
	_ = c.Bind(&req)

	landlordID := middleware.GetLandlordID(c)
	match, err := h.review.Reject(landlordID, c.Param("id"), req.Notes)
	if err != nil {
		return h.mapReviewError(c, err)
	}
	return c.JSON(http.StatusOK, match)
}

type manualMatchRequest struct {
	TenantID string `json:"tenantId"`
}

// ManualMatch handles POST /api/mpesa/matches/:id/manual-match.
func (h *MatchHandler) ManualMatch(c echo.Context) error {
	var req manualMatchRequest
	if err := c.Bind(&req); err != nil || req.TenantID == "" {
		return NewValidationError(c, "tenantId is required", []ValidationError{{Field: "tenantId", Message: "required"}})
	}

	landlordID := middleware.GetLandlordID(c)
	match, err := h.review.ManualMatch(landlordID, c.Param("id"), req.TenantID)
	if err != nil {
		return h.mapReviewError(c, err)
	}
	return c.JSON(http.StatusOK, match)
}

func (h *MatchHandler) mapReviewError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrUnmatchedApprove):
		return NewUnprocessableEntityError(c, err.Error())
	case errors.Is(err, domain.ErrMatchTerminal):
		return NewConflictError(c, err.Error())
	case errors.Is(err, domain.ErrTenantCrossLandlord), errors.Is(err, domain.ErrTenantNotFound):
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "tenantId", Message: err.Error()}})
	default:
		log.Error().Err(err).Str("match_id", c.Param("id")).Msg("processing match review action")
		return NewInternalError(c, "failed to process review action")
	}
}
