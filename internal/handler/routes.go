package handler

import (
	"github.com/kodisha/rentcore/internal/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires every inbound HTTP endpoint onto e. Daraja's
// webhook routes (callback/timeout) are deliberately left off the auth
// middleware: Daraja, not a landlord's browser session, calls them.
func RegisterRoutes(
	e *echo.Echo,
	auth *middleware.AuthMiddleware,
	payments *PaymentHandler,
	darajaCallback *DarajaCallbackHandler,
	landlordDaraja *LandlordDarajaHandler,
	statements *StatementHandler,
	matches *MatchHandler,
	receipts *ReceiptHandler,
	ws *WebSocketHandler,
) {
	api := e.Group("/api")

	// Daraja webhooks: no landlord auth, Daraja calls these directly.
	api.POST("/daraja/callback", darajaCallback.Callback)
	api.POST("/daraja/timeout", darajaCallback.Timeout)

	// Real-time updates over WebSocket; auth happens via the ws query
	// token rather than the Authenticate middleware.
	e.GET("/ws", ws.HandleWS)

	authed := api.Group("", auth.Authenticate())

	authed.POST("/payments/stk", payments.InitiateSTK)
	authed.GET("/payments/stk/:checkoutRequestID", payments.GetByCheckout)
	authed.GET("/payments/:paymentId/receipt", receipts.Stream)

	authed.POST("/landlords/:id/daraja/configure", landlordDaraja.Configure)
	authed.GET("/landlords/:id/daraja/status", landlordDaraja.Status)
	authed.POST("/landlords/:id/daraja/test", landlordDaraja.Test)
	authed.DELETE("/landlords/:id/daraja/configure", landlordDaraja.Delete)

	authed.POST("/mpesa/statements", statements.Upload)
	authed.GET("/mpesa/statements", statements.List)
	authed.GET("/mpesa/statements/:id", statements.Get)
	authed.DELETE("/mpesa/statements/:id", statements.Delete)

	authed.POST("/mpesa/matches/:id/approve", matches.Approve)
	authed.POST("/mpesa/matches/:id/reject", matches.Reject)
	authed.POST("/mpesa/matches/:id/manual-match", matches.ManualMatch)
}
