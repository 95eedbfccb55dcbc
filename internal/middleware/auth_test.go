package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubLandlordProvider struct {
	landlordID string
	err        error
}

func (s *stubLandlordProvider) GetLandlordIDForToken(token string) (string, error) {
	return s.landlordID, s.err
}

func TestGetLandlordID(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		setup    func(c echo.Context)
		expected string
	}{
		{
			name: "returns landlord id when present",
			setup: func(c echo.Context) {
				ctx := context.WithValue(c.Request().Context(), LandlordIDKey, "landlord-1")
				c.SetRequest(c.Request().WithContext(ctx))
			},
			expected: "landlord-1",
		},
		{
			name:     "returns empty string when not present",
			setup:    func(c echo.Context) {},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			tt.setup(c)

			if got := GetLandlordID(c); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestAuthMiddleware_Authenticate_MissingHeader(t *testing.T) {
	e := echo.New()
	mw := NewAuthMiddleware(&stubLandlordProvider{landlordID: "landlord-1"})

	handler := mw.Authenticate()(func(c echo.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthMiddleware_Authenticate_InvalidToken(t *testing.T) {
	e := echo.New()
	mw := NewAuthMiddleware(&stubLandlordProvider{err: errors.New("not found")})

	handler := mw.Authenticate()(func(c echo.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	e := echo.New()
	mw := NewAuthMiddleware(&stubLandlordProvider{landlordID: "landlord-42"})

	var seen string
	handler := mw.Authenticate()(func(c echo.Context) error {
		seen = GetLandlordID(c)
		return nil
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "landlord-42" {
		t.Errorf("expected landlord-42, got %q", seen)
	}
}
