package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/sme-community/config"
	"github.com/d60-Lab/sme-community/internal/api/handler"
	"github.com/d60-Lab/sme-community/internal/api/router"
	"github.com/d60-Lab/sme-community/internal/cache"
	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/internal/service"
	"github.com/d60-Lab/sme-community/pkg/database"
	"github.com/d60-Lab/sme-community/pkg/logger"
	"github.com/d60-Lab/sme-community/pkg/tracing"
)

// @title SME Community API
// @version 1.0
// @description Community and knowledge-sharing backend for the industrial SME platform.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Mode); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.SampleRate,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg, "sme-community")
	if err != nil {
		logger.Warn("tracing init failed", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() { _ = shutdownTracing(ctx) }()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init db failed", zap.Error(err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.Organization{},
		&model.UseCase{}, &model.Topic{}, &model.Reply{},
		&model.EngagementRecord{}, &model.Bookmark{},
		&model.Notification{}, &model.NotificationOutbox{},
	); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}

	rdb := database.InitRedis(cfg)

	// repositories
	engageRepo := repository.NewEngagementRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	usecaseRepo := repository.NewUseCaseRepository(db)
	forumRepo := repository.NewForumRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifyRepo := repository.NewNotificationRepository(db)
	activityRepo, err := repository.NewShardedActivityRepository(db, cfg.Activity.TableShards)
	if err != nil {
		logger.Error("activity repo failed", zap.Error(err))
		os.Exit(1)
	}
	if err := activityRepo.InitSchema(); err != nil {
		logger.Error("activity schema failed", zap.Error(err))
		os.Exit(1)
	}

	// async workers
	notifier := service.NewMilestoneNotifier(notifyRepo, cfg.Notify.QueueSize)
	stopNotifier := notifier.Start(cfg.Notify.Workers)
	dispatcher := service.NewDispatchWorker(db, userRepo, cfg.Notify.Workers, 500, cfg.Notify.ClaimLimit, cfg.Notify.PollInterval)
	stopDispatcher := dispatcher.Start()

	// services
	viewGate := cache.NewViewGate(rdb, service.TopicViewWindow)
	results := cache.NewResultCache(rdb, time.Minute)
	engageSvc := service.NewEngagementService(db, engageRepo, counterRepo, bookmarkRepo, usecaseRepo, forumRepo, activityRepo, viewGate, notifier)
	discoverySvc := service.NewDiscoveryService(usecaseRepo, forumRepo, results)
	statsSvc := service.NewStatsService(db, engageRepo, counterRepo, forumRepo)
	publisher := service.NewPublisher(db, usecaseRepo, forumRepo, notifyRepo)

	h := handler.New(cfg, engageSvc, discoverySvc, statsSvc, publisher,
		usecaseRepo, forumRepo, bookmarkRepo, notifyRepo, userRepo)
	engine := router.New(cfg, h, userRepo)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = stopNotifier(shutdownCtx)
	_ = stopDispatcher(shutdownCtx)
}
