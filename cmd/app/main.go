// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-group-guard/internal/application"
	"telegram-group-guard/internal/config"
	tele "telegram-group-guard/internal/infra/adapters/telegram"
	pg "telegram-group-guard/internal/infra/db/postgres"
	"telegram-group-guard/internal/infra/i18n"
	"telegram-group-guard/internal/infra/logging"
	"telegram-group-guard/internal/infra/metrics"
	red "telegram-group-guard/internal/infra/redis"
	"telegram-group-guard/internal/infra/sched"
	"telegram-group-guard/internal/infra/web"
	"telegram-group-guard/internal/infra/worker"
	"telegram-group-guard/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	settingsCache := red.NewSettingsCache(redisClient, cfg.Redis.TTL)
	broadcastState := red.NewBroadcastStateRepo(redisClient, 10*time.Minute)

	// ---- i18n ----
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Moderation.Locale)
	if err != nil {
		logger.Fatal().Err(err).Str("locale", cfg.Moderation.Locale).Msg("i18n")
	}

	// ---- Repositories ----
	memberRepo := pg.NewMemberRepo(pool)
	groupRepo := pg.NewGroupRepo(pool)
	settingsRepo := pg.NewSettingsRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Telegram adapter (constructed before the usecases that need its
	// ChatClient surface; the facade is attached below) ----
	botAdapter, err := tele.NewRealBotAdapter(&cfg.Bot, &cfg.Moderation, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}

	// ---- Worker pool ----
	pool2 := worker.NewPool(4, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	// ---- Use cases ----
	membershipUC := usecase.NewMembershipUseCase(memberRepo, botAdapter, cfg.Moderation.SmallGroupCutoff, logger)
	moderationUC := usecase.NewModerationUseCase(membershipUC, botAdapter, logger)
	groupUC := usecase.NewGroupUseCase(groupRepo, memberRepo, settingsRepo, txm, logger)
	settingsUC := usecase.NewSettingsUseCase(settingsRepo, settingsCache, logger)
	broadcastUC := usecase.NewBroadcastUseCase(broadcastState, groupRepo, botAdapter, pool2, logger)
	statsUC := usecase.NewStatsUseCase(groupRepo, memberRepo, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(moderationUC, groupUC, settingsUC, broadcastUC, statsUC, translator, cfg.Bot.SuperAdminID)
	botAdapter.AttachFacade(facade)

	if strings.ToLower(cfg.Bot.Mode) != "" && strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP server ----
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	srv := web.NewServer(groupUC, settingsUC, statsUC, broadcastUC, auth, cfg.Admin.APIKey, cfg.Bot.SuperAdminID, logger)
	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: srv.Router()}
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("admin http listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Retention sweep (hourly) ----
	retention := time.Duration(cfg.Moderation.UnverifiedRetentionDays) * 24 * time.Hour
	cleanup := sched.NewCleanupWorker(1*time.Hour, retention, groupUC, logger)
	go func() { _ = cleanup.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	botAdapter.StopPolling()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	cancel()
}
