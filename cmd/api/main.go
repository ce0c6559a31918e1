package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"btc-fund-manager/config"
	httpHandler "btc-fund-manager/internal/adapter/http/handler"
	"btc-fund-manager/internal/adapter/pricefeed"
	pgStorage "btc-fund-manager/internal/adapter/storage/postgres"
	redisStorage "btc-fund-manager/internal/adapter/storage/redis"
	"btc-fund-manager/internal/core/ports"
	"btc-fund-manager/internal/service"
	"btc-fund-manager/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("BFM_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting BTC fund manager")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	if err := pgStorage.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Repositories
	adminRepo := pgStorage.NewAdminRepo(pool)
	clientRepo := pgStorage.NewClientRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	auditRepo := pgStorage.NewAuditRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Price feed: CoinGecko behind a shared Redis cache
	feed := pricefeed.NewCoinGecko(cfg.Price, &http.Client{Timeout: cfg.Price.Timeout}, logger.Component(log, "pricefeed"))
	prices := service.NewCachedPriceSource(
		feed,
		redisStorage.NewPriceCache(rdb),
		feed.CacheKey(),
		cfg.Price.CacheTTL,
		logger.Component(log, "price_cache"),
	)

	// Services
	hashSvc := service.NewBcryptHashService(service.DefaultBcryptCost)
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	clientSvc := service.NewClientService(clientRepo, txRepo, hashSvc, logger.Component(log, "clients"))
	authSvc := service.NewAuthService(adminRepo, clientRepo, clientSvc, hashSvc, tokenSvc, logger.Component(log, "auth"))
	txSvc := service.NewTransactionService(transactor, clientRepo, txRepo, prices, logger.Component(log, "transactions"))
	balanceSvc := service.NewBalanceService(clientRepo, txRepo, prices, logger.Component(log, "balance"))
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap admin")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		ClientSvc:      clientSvc,
		TransactionSvc: txSvc,
		BalanceSvc:     balanceSvc,
		PriceSource:    prices,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{pgStorage.NewHealthCheck(pool), redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       auditSvc,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := auditSvc.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Pending audit writes dropped")
	}

	log.Info().Msg("Server exited")
}
