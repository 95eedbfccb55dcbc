package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kodisha/rentcore/internal/config"
	"github.com/kodisha/rentcore/internal/daraja"
	"github.com/kodisha/rentcore/internal/domain"
	"github.com/kodisha/rentcore/internal/handler"
	"github.com/kodisha/rentcore/internal/middleware"
	"github.com/kodisha/rentcore/internal/repository/postgres"
	"github.com/kodisha/rentcore/internal/repository/storage"
	"github.com/kodisha/rentcore/internal/service"
	"github.com/kodisha/rentcore/internal/sink"
	"github.com/kodisha/rentcore/internal/vault"
	"github.com/kodisha/rentcore/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	v, err := vault.New(cfg.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize credential vault")
	}

	archive, err := storage.NewS3StatementArchive(context.Background(), cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize statement archive")
	}

	darajaClient := daraja.New(time.Duration(cfg.DarajaTimeout) * time.Second)
	defer darajaClient.Stop()

	// Repositories
	landlordRepo := postgres.NewLandlordRepository(pool)
	tenantRepo := postgres.NewTenantRepository(pool)
	intentRepo := postgres.NewPaymentIntentRepository(pool)
	historyRepo := postgres.NewPaymentHistoryRepository(pool)
	callbackLogRepo := postgres.NewCallbackLogRepository(pool)
	activityLogRepo := postgres.NewActivityLogRepository(pool)
	statementRepo := postgres.NewStatementRepository(pool)
	matchRepo := postgres.NewTransactionMatchRepository(pool)

	// Sinks: fire-and-forget external collaborators
	emailSink := sink.NewLoggingEmailSink()
	receiptSink := sink.NewPlainTextReceiptSink()

	// Real-time event fan-out side channel
	hub := websocket.NewHub()

	// Services
	paymentIntents := service.NewPaymentIntentService(intentRepo, landlordRepo, tenantRepo, darajaClient, v, cfg.DarajaCallbackURL)
	paymentIntents.SetEventPublisher(hub)

	callbackDispatcher := service.NewCallbackDispatcherService(intentRepo, historyRepo, landlordRepo, tenantRepo, callbackLogRepo, activityLogRepo, emailSink)
	callbackDispatcher.SetEventPublisher(hub)

	landlordDaraja := service.NewLandlordDarajaService(landlordRepo, darajaClient, v)

	statementIngest := service.NewStatementIngestService(statementRepo, tenantRepo, archive)
	statementIngest.SetEventPublisher(hub)

	reviewWorkflow := service.NewReviewWorkflowService(matchRepo, statementRepo, historyRepo, tenantRepo)
	reviewWorkflow.SetEventPublisher(hub)

	receipts := service.NewReceiptService(historyRepo, tenantRepo, receiptSink)

	// Identity seam: authentication/authorization is an external
	// collaborator this core consumes, not owns. landlordTokenProvider is the
	// pass-through a real deployment replaces with its own IdP-backed
	// lookup; here the bearer token is itself the landlord ID, gated only
	// on the landlord actually existing.
	tokenProvider := &landlordTokenProvider{landlordRepo: landlordRepo}
	authMiddleware := middleware.NewAuthMiddleware(tokenProvider)
	wsValidator := websocket.NewIdentityValidator(tokenProvider)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentIntents)
	darajaCallbackHandler := handler.NewDarajaCallbackHandler(callbackDispatcher)
	landlordDarajaHandler := handler.NewLandlordDarajaHandler(landlordDaraja)
	statementHandler := handler.NewStatementHandler(statementIngest, matchRepo)
	matchHandler := handler.NewMatchHandler(reviewWorkflow)
	receiptHandler := handler.NewReceiptHandler(receipts)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.RegisterRoutes(e, authMiddleware, paymentHandler, darajaCallbackHandler, landlordDarajaHandler, statementHandler, matchHandler, receiptHandler, wsHandler)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// landlordTokenProvider resolves a bearer token straight to a landlord
// ID, confirming the landlord exists. It implements both
// middleware.LandlordProvider and websocket.LandlordLookup: the core
// never validates tokens itself, it only needs the
// landlord ID a validated token carries, so this is the seam a real
// deployment's identity provider plugs into.
type landlordTokenProvider struct {
	landlordRepo domain.LandlordRepository
}

func (p *landlordTokenProvider) GetLandlordIDForToken(token string) (string, error) {
	landlord, err := p.landlordRepo.GetByID(token)
	if err != nil {
		return "", err
	}
	return landlord.ID, nil
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
