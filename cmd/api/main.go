package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/cache"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/database"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/events"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/providers/checkout"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/api/handlers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/api/routes"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/providers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/repositories"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/telehealthapi"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	"github.com/zatekoja/Telehealthmarketplace/backend/pkg/config"
	"github.com/zatekoja/Telehealthmarketplace/backend/pkg/secrets"
)

func main() {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vaultResult, vaultErr := secrets.ApplyVaultSecrets(ctx, secrets.LoadVaultConfigFromEnv(""))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Log.Env, cfg.Log.Level)
	logger := observability.GetLogger()

	if vaultErr != nil {
		logger.Warn().Err(vaultErr).Str("path", vaultResult.Path).Msg("failed to load secrets from vault")
	} else if vaultResult.Enabled {
		logger.Info().Int("loaded", vaultResult.Loaded).Int("skipped", vaultResult.Skipped).Msg("vault secrets applied")
	}

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Redis backs cross-instance notifications and in-flight markers; without
	// it a single instance keeps both in memory
	var (
		eventBus providers.EventBus
		guard    services.InFlightGuard
	)
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory notifications")
		} else {
			defer redisClient.Close()
			eventBus = events.NewRedisEventBus(redisClient)
			guard = services.NewCacheInFlightGuard(cache.NewRedisAdapter(redisClient), cfg.Screens.InFlightTTL)
			logger.Info().Msg("redis client initialized")
		}
	}
	if eventBus == nil {
		eventBus = events.NewMemoryEventBus()
		guard = services.NewMemoryInFlightGuard()
	}

	var escalations repositories.PaymentEscalationRepository
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			logger.Warn().Err(err).Msg("postgres unavailable, payment escalations will only be logged")
		} else {
			defer pgClient.Close()
			adapter := database.NewPaymentEscalationAdapter(pgClient)
			if err := adapter.EnsureSchema(ctx); err != nil {
				logger.Fatal().Err(err).Msg("failed to prepare payment escalation table")
			}
			escalations = adapter
			logger.Info().Msg("postgres client initialized")
		}
	}

	api := telehealthapi.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout)
	notifications := services.NewNotificationService(eventBus)

	scriptLoader := checkout.NewHTTPScriptLoader(cfg.Checkout.ScriptURL, &http.Client{Timeout: 30 * time.Second})
	gateway := checkout.NewCallbackGateway(notifications, cfg.Checkout.CallbackTimeout, cfg.Checkout.MerchantName)

	screens := services.NewScreenRegistry()
	dashboards := services.NewDashboardService(api, notifications, metrics)
	dispatcher := services.NewActionDispatcher(api, dashboards, guard, notifications, metrics)
	payments := services.NewPaymentOrchestrator(api, scriptLoader, gateway, escalations, notifications, metrics, cfg.Checkout.PublicKey)
	gateway.OnLateResult(payments.ResolveLate)
	uploads := services.NewUploadService(api, notifications, services.DefaultMaxUploadBytes)

	if cfg.Checkout.PublicKey == "" {
		logger.Warn().Msg("CHECKOUT_PUBLIC_KEY is not set, online payments will fail")
	}

	go screens.Run(ctx, cfg.Screens.PruneInterval, cfg.Screens.IdleTTL)

	router := routes.NewRouter(
		handlers.NewDashboardHandler(screens, dashboards, dispatcher, uploads),
		handlers.NewPaymentHandler(payments, gateway, scriptLoader),
		handlers.NewStreamHandler(eventBus, handlers.DefaultHeartbeatInterval),
		cfg.Server.AllowedOrigins,
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router.SetupRoutes(),
		ReadTimeout: 15 * time.Second,
		// Checkout requests stay open until the overlay reports back and
		// notification streams never finish, so writes are not time-boxed
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer shutdownCancel()

	// Close the bus first so open notification streams end
	if err := eventBus.Close(); err != nil {
		logger.Error().Err(err).Msg("error closing event bus")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Int("pending_checkouts", gateway.Pending()).Msg("server stopped")
}
