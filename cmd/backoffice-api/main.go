package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/oliveandembers/backoffice-api/api/swagger"
	"github.com/oliveandembers/backoffice-api/internal/baseline"
	"github.com/oliveandembers/backoffice-api/internal/handler"
	"github.com/oliveandembers/backoffice-api/internal/middleware"
	"github.com/oliveandembers/backoffice-api/internal/models"
	"github.com/oliveandembers/backoffice-api/internal/repository"
	"github.com/oliveandembers/backoffice-api/internal/service"
	"github.com/oliveandembers/backoffice-api/pkg/cache"
	"github.com/oliveandembers/backoffice-api/pkg/config"
	"github.com/oliveandembers/backoffice-api/pkg/database"
	"github.com/oliveandembers/backoffice-api/pkg/jobs"
	"github.com/oliveandembers/backoffice-api/pkg/logger"
	corsmiddleware "github.com/oliveandembers/backoffice-api/pkg/middleware/cors"
	reqidmiddleware "github.com/oliveandembers/backoffice-api/pkg/middleware/requestid"
	"github.com/oliveandembers/backoffice-api/pkg/storage"
)

// @title Olive & Embers Back Office API
// @version 1.0.0
// @description Config synchronization and change approval service for the catering back office.
// @BasePath /api/v1
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, config cache disabled", "error", err)
		redisClient = nil
	}

	registry, err := baseline.NewRegistry(baseline.CateringProviders(cfg.Sync.PartialSources)...)
	if err != nil {
		logr.Sugar().Fatalw("failed to build baseline registry", "error", err)
	}

	variableRepo := repository.NewVariableRepository(db)
	historyRepo := repository.NewSyncHistoryRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, logr,
		cfg.Cache.KeyPrefix, cfg.Cache.Channel, cfg.Cache.TTL,
		cfg.Cache.Enabled && redisClient != nil)
	diffSvc := service.NewDiffService(variableRepo, registry)
	approvalSvc := service.NewApprovalService(approvalRepo, variableRepo, auditRepo,
		cacheSvc, metricsSvc, logr)
	syncSvc := service.NewSyncService(registry, diffSvc, variableRepo, historyRepo,
		approvalSvc, auditRepo, cacheSvc, metricsSvc, logr,
		cfg.Sync.SourceTimeout, cfg.Sync.SupersedePendingOnForce)
	variableSvc := service.NewVariableService(variableRepo, approvalSvc, auditRepo,
		cacheSvc, logr)
	authSvc := service.NewAuthService(cfg.JWT.Secret)

	reportStorage, err := storage.NewLocalStorage(cfg.Report.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare report storage", "error", err)
	}
	reportSigner := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Report.DownloadTTL)
	reportSvc := service.NewReportService(historyRepo, variableRepo, reportStorage, reportSigner, logr)

	variableHandler := handler.NewVariableHandler(variableSvc)
	approvalHandler := handler.NewApprovalHandler(approvalSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)
	cacheHandler := handler.NewCacheHandler(cacheSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

	syncQueue := jobs.NewQueue("auto-sync", func(ctx context.Context, job jobs.Job) error {
		results, err := syncSvc.AutoSync(ctx, nil, false, "scheduler")
		if err != nil {
			return err
		}
		for _, res := range results {
			if res.Outcome == models.SyncOutcomeFailed {
				logr.Sugar().Warnw("scheduled sync source failed", "source", res.Source, "error", res.Error)
			}
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, MaxRetries: 1, Logger: logr})
	syncQueue.Start(context.Background())
	defer syncQueue.Stop()

	if err := syncQueue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "startup"}); err != nil {
		logr.Sugar().Warnw("failed to enqueue startup sync", "error", err)
	}
	if cfg.Sync.AutoInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Sync.AutoInterval)
			defer ticker.Stop()
			for range ticker.C {
				if err := syncQueue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "scheduled"}); err != nil {
					logr.Sugar().Warnw("failed to enqueue scheduled sync", "error", err)
				}
				if _, err := reportStorage.CleanupOlderThan(cfg.Report.RetentionTTL); err != nil {
					logr.Sugar().Warnw("report cleanup failed", "error", err)
				}
			}
		}()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := variableRepo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	r.GET("/reports/download/:token", reportHandler.Download)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		variables := api.Group("/variables")
		{
			variables.GET("", variableHandler.List)
			variables.GET("/:category/:key", variableHandler.Get)
			variables.PUT("/:category/:key", variableHandler.Update)
		}

		approvals := api.Group("/approvals")
		{
			approvals.POST("", approvalHandler.Create)
			approvals.GET("/pending", approvalHandler.ListPending)

			resolve := approvals.Group("")
			resolve.Use(middleware.RequireRoles(models.RoleOwner, models.RoleAdmin))
			{
				resolve.POST("/:id/approve", approvalHandler.Approve)
				resolve.POST("/:id/reject", approvalHandler.Reject)
			}
		}

		sync := api.Group("/sync")
		{
			sync.GET("/status", syncHandler.Status)
			sync.GET("/diff", syncHandler.Diff)
			sync.GET("/history", syncHandler.History)
			sync.GET("/health", syncHandler.Health)

			run := sync.Group("")
			run.Use(middleware.RequireRoles(models.RoleOwner, models.RoleAdmin, models.RoleService))
			{
				run.POST("/auto", syncHandler.Auto)
				run.POST("/force", syncHandler.Force)
			}
		}

		ops := api.Group("/cache")
		ops.Use(middleware.RequireRoles(models.RoleOwner, models.RoleAdmin))
		{
			ops.POST("/invalidate", cacheHandler.Invalidate)
		}

		reports := api.Group("/reports")
		reports.Use(middleware.RequireRoles(models.RoleOwner, models.RoleAdmin))
		{
			reports.GET("/sync-history", reportHandler.SyncHistory)
			reports.GET("/variables", reportHandler.Variables)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
