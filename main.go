// main.go
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourvista/config"
	"tourvista/internal/handlers"
	"tourvista/internal/services"
	"tourvista/internal/services/gateway"
	"tourvista/internal/store"
	"tourvista/monitoring"
	"tourvista/security"
	"tourvista/utils"

	_ "tourvista/migrations"
)

func main() {
	app := pocketbase.New()

	cfg := config.LoadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if cfg.Environment == "development" {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	slog.SetDefault(logger)

	// Redis backs the payment sessions and the rate limiter.
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	sessionStore := services.NewSessionStore(redisClient, cfg.PaymentSessionTTL)

	// Gateways. A provider that fails to initialize (bad or missing
	// credentials) is skipped; initiation against it returns 503.
	registry := gateway.NewRegistry(gateway.NewFactory(cfg))
	for _, provider := range []gateway.Provider{gateway.ProviderBkash, gateway.ProviderNagad} {
		if err := registry.Register(context.Background(), provider); err != nil {
			logger.Warn("gateway not available", "provider", provider, "err", err)
		}
	}

	var alerter services.Alerter = services.NoopAlerter{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		alerter = services.NewPubNubAlerter(cfg, logger)
	}

	registrationService := services.NewRegistrationService(
		store.NewPBStore(app),
		sessionStore,
		registry,
		alerter,
		cfg,
		logger,
	)

	paymentHandler := handlers.NewPaymentHandler(app, registrationService, cfg.PaymentResultPath)
	registrationHandler := handlers.NewRegistrationHandler(app, registrationService)
	limiter := security.NewRateLimiter(redisClient, cfg.PaymentRateLimit, cfg.PaymentRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	if cfg.EnableMetrics {
		monitoring.NewMonitor(sessionStore)
		go serveMetrics(cfg.MetricsPort, logger)
	}

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Payment endpoints
		e.Router.POST("/api/payments/submit", paymentHandler.SubmitManual).
			BindFunc(limiter.AntiBot()).
			BindFunc(limiter.PaymentRateLimit())
		e.Router.POST("/api/payments/initiate", paymentHandler.InitiateGateway).
			BindFunc(limiter.AntiBot()).
			BindFunc(limiter.PaymentRateLimit())
		e.Router.GET("/api/payments/{gateway}/callback", paymentHandler.Callback)
		e.Router.GET("/api/payments/my", paymentHandler.GetMyPayments)
		e.Router.GET("/api/payments/{id}", paymentHandler.GetPayment)
		e.Router.GET("/api/payments", paymentHandler.ListPayments)
		e.Router.PUT("/api/payments/{id}/verify", paymentHandler.VerifyPayment)
		e.Router.PUT("/api/payments/{id}/reject", paymentHandler.RejectPayment)

		// Registration endpoints
		e.Router.GET("/api/registrations/my", registrationHandler.GetMyRegistrations)
		e.Router.GET("/api/registrations/check/{eventId}", registrationHandler.CheckRegistration)
		e.Router.GET("/api/registrations", registrationHandler.ListRegistrations)
		e.Router.PUT("/api/registrations/{id}/approve", registrationHandler.Approve)
		e.Router.PUT("/api/registrations/{id}/reject", registrationHandler.Reject)
		e.Router.DELETE("/api/registrations/{id}", registrationHandler.Cancel)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// serveMetrics exposes prometheus metrics on a separate port so the
// public API surface stays clean.
func serveMetrics(port string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("metrics server listening", "port", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Error("metrics server stopped", "err", err)
	}
}
