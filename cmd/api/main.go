package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amd-dialer/internal/audit"
	"amd-dialer/internal/auth"
	"amd-dialer/internal/calls"
	"amd-dialer/internal/config"
	"amd-dialer/internal/detect"
	"amd-dialer/internal/httpapi"
	"amd-dialer/internal/llm"
	"amd-dialer/internal/mlinference"
	"amd-dialer/internal/pricing"
	"amd-dialer/internal/reconcile"
	"amd-dialer/internal/reporting"
	"amd-dialer/internal/streaming"
	"amd-dialer/internal/telephony"
	"amd-dialer/pkg/logger"
	"amd-dialer/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	// Call store: postgres when configured, in-memory otherwise. Validate
	// rejects the memory fallback in production.
	var store calls.Store
	if cfg.DB.Host != "" {
		db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		store = calls.NewPostgresStore(db)
	} else {
		log.Warn("DB_HOST unset, call records are volatile")
		store = calls.NewMemoryStore()
	}

	// Concurrency gate: redis-backed when configured, otherwise disabled
	// and every dial is admitted.
	var gate reconcile.ConcurrencyGate
	if cfg.Redis.Host != "" {
		rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		gate = newRedisGate(rdb, cfg.Dialer.MaxConcurrentCalls)
	} else {
		log.Warn("REDIS_HOST unset, concurrent call cap disabled")
	}

	twilio := telephony.NewTwilioDialer(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, cfg.App.PublicBaseURL)
	telnyx := telephony.NewTelnyxDialer(cfg.Telnyx.APIKey, cfg.Telnyx.ConnectionID, cfg.Telnyx.FromNumber, cfg.App.PublicBaseURL)
	mlClient := mlinference.NewClient(cfg.ML.BaseURL)
	llmClient := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)

	native := detect.NewNativeStrategy(twilio)
	sip := detect.NewSIPStrategy(telnyx, native)
	streamML := detect.NewStreamMLStrategy(mlClient, twilio, native)
	llmStrategy := detect.NewLLMStrategy(llmClient, twilio, native)
	registry := detect.NewRegistry(native, sip, streamML, llmStrategy)

	pricingSvc := pricing.NewService(&pricing.MemoryRepo{Minute: pricing.DefaultRates(time.Now().UTC())})
	auditSvc := audit.NewService(audit.NewMemoryRepo())

	deps := reconcile.Deps{
		Store:    store,
		Registry: registry,
		Pricing:  pricingSvc,
		Audit:    auditSvc,
		LLM:      llmStrategy,
		Gate:     gate,
	}
	if mlClient.IsConfigured() {
		deps.ML = mlClient
	}
	reconciler := reconcile.NewService(deps)

	h := httpapi.Handlers{
		Auth:               authManager,
		Reconciler:         reconciler,
		Store:              store,
		Reports:            reporting.NewService(store),
		Twilio:             twilio,
		Telnyx:             telnyx,
		Buffers:            streaming.NewBuffers(),
		PublicBaseURL:      cfg.App.PublicBaseURL,
		DefaultCountryCode: cfg.Dialer.DefaultCountryCode,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, h, auth.RequireToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
