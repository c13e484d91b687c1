package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overcooked-payments/config"
	httpapi "overcooked-payments/payment-svc/internal/api/http"
	"overcooked-payments/payment-svc/internal/auth"
	"overcooked-payments/payment-svc/internal/mercadopago"
	"overcooked-payments/payment-svc/internal/service"
	"overcooked-payments/payment-svc/internal/storage"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	db := config.MustInitPostgres(cfg.DB, logger)
	defer db.Close()

	if cfg.MigrationsEnabled {
		if err := storage.RunMigrations(db, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var guard service.WebhookGuard
	redisClient, err := config.NewRedis(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, webhook in-flight guard disabled", zap.Error(err))
	} else {
		guard = storage.NewRedisGuard(redisClient, storage.DefaultGuardTTL)
	}
	defer redisClient.Close()

	kafkaWriter := config.NewKafkaWriter(cfg.Kafka)
	defer kafkaWriter.Close()
	publisher := storage.NewKafkaPublisher(kafkaWriter)

	repo := storage.NewPostgresRepository(db)
	provider := mercadopago.NewClient(mercadopago.Config{
		BaseURL: cfg.MercadoPago.BaseURL,
		Timeout: cfg.MercadoPago.Timeout,
	}, nil, logger)

	resolver := service.NewDelegationResolver(repo, logger)
	lookup := service.NewConfigLookup(resolver, repo)

	configSvc := service.NewConfigAdminService(repo, repo, resolver, lookup, logger)
	checkoutSvc := service.NewCheckoutService(repo, repo, lookup, provider, publisher,
		service.DefaultQRGenerator{}, service.CheckoutConfig{
			PublicBaseURL: cfg.PublicBaseURL,
			FrontendURL:   cfg.FrontendURL,
		}, logger)
	settlementSvc := service.NewSettlementService(lookup, provider, repo,
		service.NewInventoryCascade(repo, logger), repo, guard, publisher,
		cfg.MercadoPago.FallbackAccessToken, logger)

	handler := httpapi.NewHandler(configSvc, checkoutSvc, settlementSvc, auth.NewAuthenticator(cfg.JWTSecret), logger)
	router, err := httpapi.NewRouter(handler, httpapi.RouterConfig{
		CORSOrigins: cfg.CORSOrigins,
		WebhookRate: cfg.WebhookRateLimit,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build router", zap.Error(err))
	}

	server := httpapi.NewServer(":"+cfg.Port, router)
	go func() {
		logger.Info("payment service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("payment service stopped")
}
