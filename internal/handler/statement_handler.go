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

// StatementHandler serves the M-Pesa statement endpoints: upload,
// list, fetch-with-matches, and delete.
type StatementHandler struct {
	ingest  *service.StatementIngestService
	matches domain.TransactionMatchRepository
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(ingest *service.StatementIngestService, matches domain.TransactionMatchRepository) *StatementHandler {
	return &StatementHandler{ingest: ingest, matches: matches}
}

type uploadStatementRequest struct {
	FileName        string                  `json:"fileName"`
	RawText         string                  `json:"rawText"`
	StatementPeriod *domain.StatementPeriod `json:"statementPeriod,omitempty"`
}

// Upload handles POST /api/mpesa/statements. The multipart-to-text
// conversion happens upstream of this core; the handler only ever
// sees the already-extracted fileName/rawText pair.
func (h *StatementHandler) Upload(c echo.Context) error {
	var req uploadStatementRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "request body could not be parsed", nil)
	}
	if req.RawText == "" {
		return NewValidationError(c, "rawText must not be empty", []ValidationError{{Field: "rawText", Message: "required"}})
	}

	landlordID := middleware.GetLandlordID(c)
	stmt, err := h.ingest.Ingest(c.Request().Context(), service.IngestInput{
		LandlordID: landlordID,
		FileName:   req.FileName,
		RawText:    req.RawText,
		Period:     req.StatementPeriod,
	})
	if err != nil {
		if errors.Is(err, domain.ErrParseFailed) {
			return NewValidationError(c, err.Error(), nil)
		}
		log.Error().Err(err).Str("landlord_id", landlordID).Msg("ingesting statement")
		return NewInternalError(c, "failed to ingest statement")
	}
	return c.JSON(http.StatusOK, stmt)
}

// List handles GET /api/mpesa/statements.
func (h *StatementHandler) List(c echo.Context) error {
	landlordID := middleware.GetLandlordID(c)
	statements, err := h.ingest.ListByLandlord(landlordID)
	if err != nil {
		log.Error().Err(err).Str("landlord_id", landlordID).Msg("listing statements")
		return NewInternalError(c, "failed to list statements")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"statements": statements})
}

// Get handles GET /api/mpesa/statements/:id.
func (h *StatementHandler) Get(c echo.Context) error {
	landlordID := middleware.GetLandlordID(c)
	stmt, err := h.ingest.GetByID(landlordID, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrStatementNotFound) {
			return NewNotFoundError(c, "statement not found")
		}
		log.Error().Err(err).Str("statement_id", c.Param("id")).Msg("fetching statement")
		return NewInternalError(c, "failed to fetch statement")
	}
	matches, err := h.matches.ListByStatement(landlordID, stmt.ID)
	if err != nil {
		log.Error().Err(err).Str("statement_id", stmt.ID).Msg("fetching statement matches")
		return NewInternalError(c, "failed to fetch statement matches")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"statement": stmt,
		"matches":   matches,
	})
}

// Delete handles DELETE /api/mpesa/statements/:id.
func (h *StatementHandler) Delete(c echo.Context) error {
	landlordID := middleware.GetLandlordID(c)
	if err := h.ingest.Delete(c.Request().Context(), landlordID, c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrStatementNotFound) {
			return NewNotFoundError(c, "statement not found")
		}
		log.Error().Err(err).Str("statement_id", c.Param("id")).Msg("deleting statement")
		return NewInternalError(c, "failed to delete statement")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
