package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/larkin/bankview-go/internal/config"
	"github.com/larkin/bankview-go/internal/domain"
	"github.com/larkin/bankview-go/internal/handler"
	"github.com/larkin/bankview-go/internal/infra/cache"
	"github.com/larkin/bankview-go/internal/infra/gateway"
	"github.com/larkin/bankview-go/internal/infra/observability"
	"github.com/larkin/bankview-go/internal/infra/resilience"
	"github.com/larkin/bankview-go/internal/service"
	"github.com/larkin/bankview-go/internal/session"
	"github.com/larkin/bankview-go/internal/store"
	"github.com/larkin/bankview-go/internal/transfer"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("gateway_url", cfg.GatewayURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("session_file", cfg.SessionFile),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "bankview")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("gateway")

	// --- Gateway client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	gw := gateway.NewClient(httpClient, cfg.GatewayURL, cb, resilienceCfg, logger)

	// --- Session-scoped state ---
	creds := session.NewFileCredentialStore(cfg.SessionFile, cfg.SessionSecret)
	sess := session.New(creds, logger)
	accounts := store.New()
	banksCache := cache.New[[]domain.Bank](cfg.CacheTTL)

	// --- Services ---
	accountsSvc := service.NewAccountsService(accounts, sess, gw, metrics, logger)
	banksSvc := service.NewBanksService(sess, gw, banksCache, metrics, logger)
	authSvc := service.NewAuthService(sess, accounts, gw, creds, banksCache, metrics, logger)
	coordinator := transfer.NewCoordinator(accounts, gw, accountsSvc, metrics, logger)

	// Resume a persisted session, if one survives with a live token.
	if authSvc.RestoreOnStart() {
		logger.Info("session restored from persistence",
			zap.String("username", authSvc.Snapshot().Username),
		)
	}

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Auth:          authSvc,
		Accounts:      accountsSvc,
		Banks:         banksSvc,
		Coordinator:   coordinator,
		Session:       sess,
		Metrics:       metrics,
		Logger:        logger,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
