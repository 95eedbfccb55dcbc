package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// LandlordIDKey is the context key for the request's landlord ID
	LandlordIDKey contextKey = "landlord_id"
)

// LandlordProvider resolves a bearer token to the landlord ID the request
// is scoped to. Authentication/authorization is an external collaborator
// concern here: this core never validates the token itself,
// it only needs the landlord ID a validated token carries.
type LandlordProvider interface {
	GetLandlordIDForToken(token string) (landlordID string, err error)
}

// AuthMiddleware injects the authenticated landlord ID into the request
// context. It is a pass-through seam — a real deployment wires in a
// LandlordProvider backed by its own identity provider (Auth0, Cognito,
// a session store, ...); this core does no cryptographic validation.
type AuthMiddleware struct {
	provider LandlordProvider
}

// NewAuthMiddleware creates a new AuthMiddleware backed by provider.
func NewAuthMiddleware(provider LandlordProvider) *AuthMiddleware {
	return &AuthMiddleware{provider: provider}
}

// Authenticate returns an Echo middleware that resolves the bearer token
// to a landlord ID and stores it in the request context.
func (m *AuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
			}

			landlordID, err := m.provider.GetLandlordIDForToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("Landlord lookup failed")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), LandlordIDKey, landlordID)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// GetLandlordID extracts the authenticated landlord ID from the context.
func GetLandlordID(c echo.Context) string {
	if id, ok := c.Request().Context().Value(LandlordIDKey).(string); ok {
		return id
	}
	return ""
}
