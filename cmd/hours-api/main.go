package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/citopen/hours-api/api/swagger"
	"github.com/citopen/hours-api/internal/handler"
	"github.com/citopen/hours-api/internal/middleware"
	"github.com/citopen/hours-api/internal/repository"
	"github.com/citopen/hours-api/internal/service"
	"github.com/citopen/hours-api/pkg/cache"
	"github.com/citopen/hours-api/pkg/config"
	"github.com/citopen/hours-api/pkg/database"
	"github.com/citopen/hours-api/pkg/logger"
	corsmiddleware "github.com/citopen/hours-api/pkg/middleware/cors"
	reqidmiddleware "github.com/citopen/hours-api/pkg/middleware/requestid"
)

// @title Opening Hours API
// @version 1.0.0
// @description Resolution engine and management API for resource opening hours
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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.OpeningHours.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, resolution cache disabled", zap.Error(err))
			cfg.OpeningHours.CacheEnabled = false
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	resourceRepo := repository.NewResourceRepository(db)
	periodRepo := repository.NewPeriodRepository(db)

	resourceSvc := service.NewResourceService(resourceRepo, validate, logr)
	periodSvc := service.NewPeriodService(periodRepo, resourceRepo, cacheRepo, metricsSvc, validate, logr)
	openingHoursSvc := service.NewOpeningHoursService(periodRepo, resourceRepo, cacheRepo, metricsSvc, validate, logr, service.OpeningHoursOptions{
		CacheEnabled: cfg.OpeningHours.CacheEnabled,
		CacheTTL:     cfg.OpeningHours.CacheTTL,
		MaxRangeDays: cfg.OpeningHours.MaxRangeDays,
		Policy:       service.OverlapPolicyFromString(cfg.OpeningHours.OverlapPolicy),
	})

	resourceHandler := handler.NewResourceHandler(resourceSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	openingHoursHandler := handler.NewOpeningHoursHandler(openingHoursSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		resources := api.Group("/resources")
		resources.GET("", resourceHandler.List)
		resources.POST("", resourceHandler.Create)
		resources.GET("/:id", resourceHandler.Get)
		resources.PUT("/:id", resourceHandler.Update)
		resources.DELETE("/:id", resourceHandler.Delete)

		resources.GET("/:id/date-periods", periodHandler.List)
		resources.POST("/:id/date-periods", periodHandler.Create)
		resources.GET("/:id/date-periods/:periodId", periodHandler.Get)
		resources.PUT("/:id/date-periods/:periodId", periodHandler.Update)
		resources.DELETE("/:id/date-periods/:periodId", periodHandler.Delete)

		resources.GET("/:id/opening-hours", openingHoursHandler.Resolve)
		resources.GET("/:id/opening-hours/export", openingHoursHandler.Export)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
