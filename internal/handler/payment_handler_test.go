package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kodisha/rentcore/internal/daraja"
	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/middleware"
	"github.com/kodisha/rentcore/internal/service"
	"github.com/kodisha/rentcore/internal/testutil"
	"github.com/kodisha/rentcore/internal/vault"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newPaymentHandlerForTest(t *testing.T) (*PaymentHandler, *testutil.MockLandlordRepository, *testutil.MockTenantRepository, *testutil.MockPaymentIntentRepository) {
	t.Helper()
	landlords := testutil.NewMockLandlordRepository()
	tenants := testutil.NewMockTenantRepository()
	intents := testutil.NewMockPaymentIntentRepository()

	v, err := vault.New("a-test-encryption-secret-0123456789")
	if err != nil {
		t.Fatalf("building vault: %v", err)
	}
	client := daraja.New(5 * time.Second)
	t.Cleanup(client.Stop)

	svc := service.NewPaymentIntentService(intents, landlords, tenants, client, v, "https://example.com/callback")
	return NewPaymentHandler(svc), landlords, tenants, intents
}

func withLandlordContext(req *http.Request, landlordID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.LandlordIDKey, landlordID)
	return req.WithContext(ctx)
}

func TestInitiateSTK_GatewayNotConfigured_ReturnsConflict(t *testing.T) {
	e := echo.New()
	h, landlords, _, _ := newPaymentHandlerForTest(t)
	landlords.Landlords["landlord-1"] = &domain.Landlord{ID: "landlord-1"}

	body, _ := json.Marshal(map[string]string{
		"tenantId": "tenant-1",
		"phone":    "0700000000",
		"amount":   "1000",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/stk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withLandlordContext(req, "landlord-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.InitiateSTK(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInitiateSTK_InvalidAmount_ReturnsValidationError(t *testing.T) {
	e := echo.New()
	h, _, _, _ := newPaymentHandlerForTest(t)

	body, _ := json.Marshal(map[string]string{
		"tenantId": "tenant-1",
		"phone":    "0700000000",
		"amount":   "not-a-number",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/stk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withLandlordContext(req, "landlord-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.InitiateSTK(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInitiateSTK_UnknownTenant_ReturnsNotFound(t *testing.T) {
	e := echo.New()
	h, landlords, _, _ := newPaymentHandlerForTest(t)
	landlords.Landlords["landlord-1"] = &domain.Landlord{
		ID: "landlord-1",
		DarajaConfig: domain.DarajaConfig{
			IsConfigured: true, IsActive: true,
			BusinessShortCode: "174379", BusinessType: domain.BusinessPaybill,
			Environment: domain.DarajaSandbox,
			ConsumerKey: "key", ConsumerSecret: "secret", Passkey: "passkey",
		},
	}

	body, _ := json.Marshal(map[string]string{
		"tenantId": "ghost-tenant",
		"phone":    "0700000000",
		"amount":   "1000",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/payments/stk", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withLandlordContext(req, "landlord-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.InitiateSTK(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByCheckout_UnknownCheckout_ReturnsNotFound(t *testing.T) {
	e := echo.New()
	h, _, _, _ := newPaymentHandlerForTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/payments/stk/does-not-exist", nil)
	req = withLandlordContext(req, "landlord-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("checkoutRequestID")
	c.SetParamValues("does-not-exist")

	err := h.GetByCheckout(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByCheckout_CrossLandlord_ReturnsNotFound(t *testing.T) {
	e := echo.New()
	h, _, _, intents := newPaymentHandlerForTest(t)
	intents.Intents["checkout-1"] = &domain.PaymentIntent{
		ID: "intent-1", LandlordID: "other-landlord", CheckoutRequestID: "checkout-1",
		Status: domain.IntentPending, ExpiresAt: time.Now().Add(time.Minute),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/payments/stk/checkout-1", nil)
	req = withLandlordContext(req, "landlord-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("checkoutRequestID")
	c.SetParamValues("checkout-1")

	err := h.GetByCheckout(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByCheckout_KnownIntent_ReturnsSnapshot(t *testing.T) {
	e := echo.New()
	h, _, _, intents := newPaymentHandlerForTest(t)
	intents.Intents["checkout-1"] = &domain.PaymentIntent{
		ID: "intent-1", LandlordID: "landlord-1", CheckoutRequestID: "checkout-1",
		Status: domain.IntentSuccess, ExpiresAt: time.Now().Add(time.Minute),
	}

	req := httptest.NewRequest(http.MethodGet, "/api/payments/stk/checkout-1", nil)
	req = withLandlordContext(req, "landlord-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("checkoutRequestID")
	c.SetParamValues("checkout-1")

	err := h.GetByCheckout(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}
