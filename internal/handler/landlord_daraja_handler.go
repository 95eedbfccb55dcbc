package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LandlordDarajaHandler serves the landlord Daraja credential endpoints
//: configure, status, test and delete.
type LandlordDarajaHandler struct {
	daraja *service.LandlordDarajaService
}

// NewLandlordDarajaHandler creates a new LandlordDarajaHandler.
func NewLandlordDarajaHandler(daraja *service.LandlordDarajaService) *LandlordDarajaHandler {
	return &LandlordDarajaHandler{daraja: daraja}
}

type configureDarajaRequest struct {
	BusinessShortCode string                   `json:"businessShortCode"`
	BusinessType      domain.BusinessType      `json:"businessType"`
	BusinessName      string                   `json:"businessName,omitempty"`
	AccountNumber     string                   `json:"accountNumber,omitempty"`
	ConsumerKey       string                   `json:"consumerKey"`
	ConsumerSecret    string                   `json:"consumerSecret"`
	Passkey           string                   `json:"passkey"`
	Environment       domain.DarajaEnvironment `json:"environment"`
}

// Configure handles POST /api/landlords/:id/daraja/configure.
func (h *LandlordDarajaHandler) Configure(c echo.Context) error {
	var req configureDarajaRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "request body could not be parsed", nil)
	}

	landlord, err := h.daraja.Configure(domain.DarajaConfigureInput{
		BusinessShortCode: req.BusinessShortCode,
		BusinessType:      req.BusinessType,
		BusinessName:      req.BusinessName,
		AccountNumber:     req.AccountNumber,
		ConsumerKey:       req.ConsumerKey,
		ConsumerSecret:    req.ConsumerSecret,
		Passkey:           req.Passkey,
		Environment:       req.Environment,
	}, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return NewValidationError(c, "daraja configuration is incomplete", nil)
		}
		log.Error().Err(err).Str("landlord_id", c.Param("id")).Msg("configuring daraja credentials")
		return NewInternalError(c, "failed to configure daraja credentials")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"isConfigured": landlord.DarajaConfig.IsConfigured,
		"isActive":     landlord.DarajaConfig.IsActive,
	})
}

// Status handles GET /api/landlords/:id/daraja/status.
func (h *LandlordDarajaHandler) Status(c echo.Context) error {
	landlord, err := h.daraja.Status(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrLandlordNotFound) {
			return NewNotFoundError(c, "landlord not found")
		}
		log.Error().Err(err).Str("landlord_id", c.Param("id")).Msg("fetching daraja status")
		return NewInternalError(c, "failed to fetch daraja status")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"isConfigured":      landlord.DarajaConfig.IsConfigured,
		"isActive":          landlord.DarajaConfig.IsActive,
		"businessShortCode": landlord.DarajaConfig.BusinessShortCode,
		"businessType":      landlord.DarajaConfig.BusinessType,
		"environment":       landlord.DarajaConfig.Environment,
		"consumerKey":       landlord.DarajaConfig.ConsumerKey,
		"consumerSecret":    landlord.DarajaConfig.ConsumerSecret,
		"passkey":           landlord.DarajaConfig.Passkey,
		"configuredAt":      landlord.DarajaConfig.ConfiguredAt,
		"lastTestedAt":      landlord.DarajaConfig.LastTestedAt,
	})
}

// Test handles POST /api/landlords/:id/daraja/test.
func (h *LandlordDarajaHandler) Test(c echo.Context) error {
	landlordID := c.Param("id")
	testErr := h.daraja.Test(c.Request().Context(), landlordID)
	if testErr != nil && errors.Is(testErr, domain.ErrGatewayNotConfigured) {
		return NewConflictError(c, testErr.Error())
	}

	testedAt := time.Now()
	if landlord, err := h.daraja.Status(landlordID); err == nil && landlord.DarajaConfig.LastTestedAt != nil {
		testedAt = *landlord.DarajaConfig.LastTestedAt
	}

	success := testErr == nil
	message := "credentials verified successfully"
	if !success {
		message = testErr.Error()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":  success,
		"message":  message,
		"testedAt": testedAt,
	})
}

// Delete handles DELETE /api/landlords/:id/daraja/configure.
func (h *LandlordDarajaHandler) Delete(c echo.Context) error {
	if err := h.daraja.Delete(c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrLandlordNotFound) {
			return NewNotFoundError(c, "landlord not found")
		}
		log.Error().Err(err).Str("landlord_id", c.Param("id")).Msg("clearing daraja credentials")
		return NewInternalError(c, "failed to clear daraja credentials")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
