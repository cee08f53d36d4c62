package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"newsroom/internal/config"
	"newsroom/internal/db"
	"newsroom/internal/repository"
	"newsroom/internal/router"
	"newsroom/internal/services"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel, cfg.LogFormat)

	// Initialize Database
	db.Init(cfg.DatabaseURL, cfg.SeedPublishers)

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	publisherRepo := repository.NewPublisherRepository(db.DB)
	articleRepo := repository.NewArticleRepository(db.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	newsletterRepo := repository.NewNewsletterRepository(db.DB)

	// 审核通过通知
	notifyCfg := cfg.Notify()
	deps := services.DispatcherDeps{
		Articles:      articleRepo,
		Subscriptions: subscriptionRepo,
		Notifications: notificationRepo,
		Media:         services.NewDiskMediaStore(cfg.MediaRoot),
	}
	if notifyCfg.EmailEnabled {
		deps.Mailer = services.NewMailService(cfg.SMTP)
	}
	if notifyCfg.SocialReady() {
		deps.Poster = services.NewTwitterPoster(notifyCfg.SocialCredentials, notifyCfg.SocialTimeout)
	}
	dispatcher := services.NewDispatcher(notifyCfg, deps)

	var (
		notifier services.ApprovalNotifier = dispatcher
		queue    *services.DispatchQueue
	)
	if cfg.DispatchAsync {
		queue = services.NewDispatchQueue(dispatcher, cfg.DispatchQueueSize)
		queue.Start(context.Background(), cfg.DispatchWorkers)
		notifier = queue
	}

	// 补发：启动时和每个周期扫描没有发完的通知
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	redelivery := services.NewRedeliveryService(dispatcher, notifier, articleRepo, notificationRepo)
	redelivery.Interval = cfg.RedeliveryInterval
	redelivery.Grace = cfg.RedeliveryGrace
	redelivery.Start(sweepCtx)

	// Services
	subscriptionService := services.NewSubscriptionService(userRepo, publisherRepo, subscriptionRepo)
	articleService := services.NewArticleService(articleRepo, publisherRepo, notifier)
	svc := router.Services{
		Auth:          services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL),
		Articles:      articleService,
		Importer:      services.NewSyndicationImporter(articleService, articleRepo, true),
		Subscriptions: subscriptionService,
		Publishers:    services.NewPublisherService(publisherRepo, userRepo, subscriptionService),
		Notifications: services.NewNotificationService(notificationRepo),
		Newsletters:   services.NewNewsletterService(newsletterRepo),
		Redelivery:    redelivery,
	}

	// Initialize Gin
	r := gin.Default()
	router.Setup(r, svc, cfg.SessionSecret)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("HTTP server Shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	slog.Info("Newsroom server starting", "port", cfg.Port, "async_dispatch", cfg.DispatchAsync)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}

	<-idleConnsClosed
	stopSweep()
	if queue != nil {
		queue.Close()
	}
	slog.Info("server stopped")
}

func setupLogger(level, format string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
