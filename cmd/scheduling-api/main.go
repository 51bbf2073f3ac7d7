package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Alnumo/IEP-Management-System-sub012/internal/handler"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/middleware"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/repository"
	"github.com/Alnumo/IEP-Management-System-sub012/internal/service"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/cache"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/config"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/database"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/jobs"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/lock"
	"github.com/Alnumo/IEP-Management-System-sub012/pkg/logger"
	corsmiddleware "github.com/Alnumo/IEP-Management-System-sub012/pkg/middleware/cors"
	reqidmiddleware "github.com/Alnumo/IEP-Management-System-sub012/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.AvailabilityCacheTTL, logr, true)

	sessionRepo := repository.NewSessionRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	freezeRecordRepo := repository.NewFreezeRecordRepository(db)
	billingRepo := repository.NewBillingRepository(db)

	notificationQueue := jobs.NewQueue("notifications", service.NotificationHandler(logr), jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationQueue.Start(ctx)
	defer notificationQueue.Stop()
	notifier := service.NewQueueNotifier(notificationQueue, logr)

	locker := lock.NewRedisLocker(redisClient, "scheduling")

	indexSvc := service.NewAvailabilityIndexService(availabilityRepo, sessionRepo, cacheSvc, cfg.Scheduler.AvailabilityCacheTTL, logr)
	capacitySvc := service.NewCapacityService(indexSvc, logr)
	schedulingSvc := service.NewSchedulingService(
		subscriptionRepo, templateRepo, ruleRepo, sessionRepo,
		indexSvc, db, locker, cacheSvc, notifier, metrics,
		service.SchedulingOptions{
			OverGenerationFactor: cfg.Scheduler.OverGenerationFactor,
			MaxSuggestions:       cfg.Scheduler.MaxSuggestions,
			GenerationTimeout:    cfg.Scheduler.GenerationTimeout,
			LockTTL:              cfg.Scheduler.LockTTL,
		}, logr)
	freezeSvc := service.NewFreezeService(
		subscriptionRepo, sessionRepo, freezeRecordRepo, billingRepo,
		indexSvc, db, locker, notifier, metrics,
		service.FreezeOptions{
			RescheduleHorizonDays: cfg.Freeze.RescheduleHorizonDays,
			LockTTL:               cfg.Scheduler.LockTTL,
		}, logr)
	exportSvc := service.NewExportService(sessionRepo, cfg.Exports.Enabled, logr)

	schedulingHandler := handler.NewSchedulingHandler(schedulingSvc, capacitySvc)
	freezeHandler := handler.NewFreezeHandler(freezeSvc)
	exportHandler := handler.NewExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/schedule/validate", schedulingHandler.Validate)
		api.POST("/schedule/generate", schedulingHandler.Generate)
		api.POST("/schedule/capacity-check", schedulingHandler.CheckCapacity)

		api.GET("/subscriptions/:id/freeze/preview", freezeHandler.Preview)
		api.POST("/subscriptions/:id/freeze", freezeHandler.Freeze)
		api.GET("/subscriptions/:id/freeze/history", freezeHandler.History)

		api.GET("/sessions/export", exportHandler.Sessions)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
