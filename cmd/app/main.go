package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutriplan-backend/internal/config"
	"nutriplan-backend/internal/domain/ports/adapter"
	aiAdapters "nutriplan-backend/internal/infra/adapters/ai"
	"nutriplan-backend/internal/infra/api"
	pg "nutriplan-backend/internal/infra/db/postgres"
	"nutriplan-backend/internal/infra/logging"
	"nutriplan-backend/internal/infra/metrics"
	"nutriplan-backend/internal/infra/notify"
	"nutriplan-backend/internal/infra/payment"
	red "nutriplan-backend/internal/infra/redis"
	"nutriplan-backend/internal/infra/sched"
	"nutriplan-backend/internal/infra/web"
	"nutriplan-backend/internal/infra/worker"
	"nutriplan-backend/internal/usecase"
)

// Overridden at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop billing/AI fallbacks)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	metrics.SetBuildInfo(version, commit)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := pool.Stat()
				metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
			}
		}
	}()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()

	entCache := red.NewEntitlementCache(redisClient, cfg.Redis.TTL.Std(), logger)
	genLock := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)
	sessionStore := red.NewSessionStore(redisClient)

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	recipeRepo := pg.NewRecipeRepo(pool)
	planRepo := pg.NewPlanRepo(pool)
	trialRepo := pg.NewTrialRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	userRepo := pg.NewUserRepo(pool)

	// ---- AI adapter (OpenAI and/or Gemini behind a router) ----
	providers := map[string]adapter.AIServiceAdapter{}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter failed")
		}
		providers["openai"] = oa
	}
	if cfg.AI.GeminiKey != "" {
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxPromptTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter failed")
		}
		providers["gemini"] = ga
	}
	var aiSvc adapter.AIServiceAdapter
	switch len(providers) {
	case 0:
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("no AI provider configured: set ai.openai_key or ai.gemini_key")
		}
		logger.Warn().Msg("no AI provider configured, assistant runs on canned replies")
		aiSvc = aiAdapters.NewNoopAIAdapter()
	default:
		aiSvc = aiAdapters.NewMultiAIAdapter("openai", providers)
	}
	aiSvc = aiAdapters.NewLimitedAI(aiSvc, cfg.Billing.Workers)

	// ---- Billing gateway ----
	var gateway adapter.BillingGateway
	if cfg.Billing.BaseURL != "" {
		gateway = payment.NewCheckoutGateway(cfg.Billing.BaseURL, cfg.Billing.APIKey)
	} else {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("billing.base_url not configured")
		}
		logger.Warn().Msg("no billing provider configured, using noop gateway")
		gateway = payment.NewNoopGateway()
	}

	// ---- Use cases ----
	entUC := usecase.NewEntitlementUseCase(trialRepo, subRepo, entCache, cfg.Trial.Duration.Std(), logger)
	plannerUC := usecase.NewPlannerUseCase(recipeRepo, planRepo, userRepo, entUC, txm, genLock, logger)
	billingUC := usecase.NewBillingUseCase(gateway, subRepo, entUC, logger)
	chatUC := usecase.NewChatUseCase(sessionStore, aiSvc, entUC, rateLimiter,
		cfg.AI.DefaultModel, cfg.AI.MaxPromptTokens, cfg.AI.ChatPerMinute, logger)
	recipeUC := usecase.NewRecipeUseCase(recipeRepo, logger)
	statsUC := usecase.NewStatsUseCase(userRepo, trialRepo, subRepo, planRepo, recipeRepo, logger)

	// ---- Change notifications ----
	hub := notify.NewHub(logger)
	defer hub.Close()
	invalidator := notify.SinkFunc(func(ev notify.Event) {
		if ev.UserID == "" {
			return
		}
		switch ev.Table {
		case "trials", "subscriptions":
			entUC.Invalidate(context.Background(), ev.UserID)
		}
	})
	listener := pg.NewListener(pool, notify.MultiSink{invalidator, hub}, logger)
	go listener.Run(ctx)

	// ---- Background workers ----
	workerPool := worker.NewPool(cfg.Billing.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	reconciler := sched.NewBillingReconciler(billingUC, subRepo, workerPool,
		cfg.Billing.Interval.Std(), cfg.Billing.ExpiryHorizonDays, logger)
	go reconciler.Start(ctx)

	// ---- Client API ----
	clientSrv := api.NewServer(entUC, plannerUC, billingUC, chatUC, hub, logger)
	clientServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: clientSrv.Router([]byte(cfg.Auth.JWTSecret)),
	}
	go func() {
		logger.Info().Str("addr", clientServer.Addr).Msg("client API listening")
		if err := clientServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("client server error")
		}
	}()

	// ---- Admin API ----
	adminMux := http.NewServeMux()
	web.NewServer(recipeUC, statsUC, cfg.Admin.APIKey, logger).RegisterRoutes(adminMux)
	adminServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: adminMux}
	go func() {
		logger.Info().Str("addr", adminServer.Addr).Msg("admin API listening")
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = clientServer.Shutdown(shutdownCtx)
	_ = adminServer.Shutdown(shutdownCtx)
}
