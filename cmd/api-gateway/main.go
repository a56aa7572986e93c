package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/sourcehire/talent-api/api/swagger"
	"github.com/sourcehire/talent-api/internal/handler"
	"github.com/sourcehire/talent-api/internal/middleware"
	"github.com/sourcehire/talent-api/internal/models"
	"github.com/sourcehire/talent-api/internal/repository"
	"github.com/sourcehire/talent-api/internal/service"
	"github.com/sourcehire/talent-api/pkg/cache"
	"github.com/sourcehire/talent-api/pkg/config"
	"github.com/sourcehire/talent-api/pkg/database"
	"github.com/sourcehire/talent-api/pkg/logger"
	corsmiddleware "github.com/sourcehire/talent-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sourcehire/talent-api/pkg/middleware/requestid"
)

// @title SourceHire Talent API
// @version 1.0.0
// @description Recruiter talent sourcing: credit-gated resume unlocks, buckets, search history and trends
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, search cache disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Repositories.
	creditRepo := repository.NewCreditRepository(db)
	unlockRepo := repository.NewUnlockRepository(db)
	bucketRepo := repository.NewBucketRepository(db)
	itemRepo := repository.NewBucketItemRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	searchRepo := repository.NewSearchRepository(db)
	resumeRepo := repository.NewResumeRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Search.CacheTTL, logr,
		cfg.Search.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(cfg.JWT)
	creditSvc := service.NewCreditService(creditRepo, cfg.Credits.PeriodLength, metricsSvc, logr)
	unlockSvc := service.NewUnlockService(unlockRepo, creditSvc, resumeRepo,
		cfg.Unlocks.GrantTTL, cfg.Unlocks.BulkLimit, metricsSvc, nil, logr)
	bucketSvc := service.NewBucketService(bucketRepo, itemRepo, resumeRepo, activityRepo, unlockSvc, nil, logr)
	transferSvc := service.NewTransferService(bucketRepo, itemRepo, activityRepo, unlockSvc, nil, logr)
	searchSvc := service.NewSearchService(resumeRepo, searchRepo, unlockSvc, cacheSvc, cfg.Search, nil, logr)
	exportSvc := service.NewExportService(bucketRepo, itemRepo, cfg.Exports, logr)

	// Handlers.
	creditHandler := handler.NewCreditHandler(creditSvc)
	unlockHandler := handler.NewUnlockHandler(unlockSvc)
	bucketHandler := handler.NewBucketHandler(bucketSvc, exportSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/credits", creditHandler.Balance)
		api.POST("/credits/rollover",
			middleware.RequireRoles(models.RoleAdmin), creditHandler.Rollover)

		api.POST("/unlocks", unlockHandler.Unlock)
		api.POST("/unlocks/bulk", unlockHandler.BulkUnlock)
		api.GET("/resumes/:resumeId/status", unlockHandler.Status)
		api.GET("/resumes/:resumeId/reveal", unlockHandler.Reveal)

		api.POST("/buckets", bucketHandler.Create)
		api.GET("/buckets", bucketHandler.List)
		api.GET("/buckets/:bucketId", bucketHandler.Get)
		api.PATCH("/buckets/:bucketId", bucketHandler.Update)
		api.DELETE("/buckets/:bucketId", bucketHandler.Delete)
		api.POST("/buckets/:bucketId/items", bucketHandler.AddItems)
		api.GET("/buckets/:bucketId/items", bucketHandler.ListItems)
		api.PATCH("/buckets/:bucketId/items/:itemId", bucketHandler.UpdateItem)
		api.PUT("/buckets/:bucketId/items/order", bucketHandler.Reorder)
		api.POST("/buckets/:bucketId/items/bulk-remove", transferHandler.BulkRemove)
		api.POST("/buckets/:bucketId/transfer", transferHandler.Transfer)
		api.GET("/buckets/:bucketId/activity", bucketHandler.Activity)
		api.GET("/buckets/:bucketId/export", bucketHandler.Export)

		api.POST("/search", searchHandler.Search)
		api.GET("/search/history", searchHandler.History)
		api.POST("/search/history/:searchId/rerun", searchHandler.Rerun)
		api.GET("/search/history/:searchId/trend", searchHandler.Trend)
		api.DELETE("/search/history/:searchId", searchHandler.Delete)
	}

	if cfg.Trends.Enabled {
		sampler := service.NewTrendSampler(searchRepo, resumeRepo, cacheSvc, cfg.Trends, metricsSvc, logr)
		sampler.Start(context.Background())
		defer sampler.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
