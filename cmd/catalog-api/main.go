package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/edukite/catalog-api/internal/handler"
	"github.com/edukite/catalog-api/internal/middleware"
	"github.com/edukite/catalog-api/internal/repository"
	"github.com/edukite/catalog-api/internal/service"
	"github.com/edukite/catalog-api/pkg/config"
	"github.com/edukite/catalog-api/pkg/database"
	"github.com/edukite/catalog-api/pkg/logger"
	corsmiddleware "github.com/edukite/catalog-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edukite/catalog-api/pkg/middleware/requestid"
	"github.com/edukite/catalog-api/pkg/pagination"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	bounds := pagination.Bounds{
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	}

	trackRepo := repository.NewTrackRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)

	metricsSvc := service.NewMetricsService()
	trackSvc := service.NewTrackService(trackRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, trackRepo, validate, logr)
	compositeSvc := service.NewModuleCompositeService(db, validate, logr, metricsSvc)
	newsletterSvc := service.NewNewsletterService(subscriberRepo, validate, logr)

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	trackHandler := handler.NewTrackHandler(trackSvc, bounds)
	courseHandler := handler.NewCourseHandler(courseSvc, bounds)
	moduleHandler := handler.NewModuleHandler(compositeSvc, bounds)
	newsletterHandler := handler.NewNewsletterHandler(newsletterSvc, bounds)

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
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/system", metricsHandler.System)

	api := r.Group(cfg.APIPrefix)
	{
		tracks := api.Group("/tracks")
		{
			tracks.GET("", trackHandler.List)
			tracks.POST("", trackHandler.Create)
			tracks.GET("/:id", trackHandler.Get)
			tracks.PATCH("/:id", trackHandler.Update)
			tracks.DELETE("/:id", trackHandler.Delete)
			tracks.POST("/:id/restore", trackHandler.Restore)
		}

		courses := api.Group("/courses")
		{
			courses.GET("", courseHandler.List)
			courses.POST("", courseHandler.Create)
			courses.GET("/:id", courseHandler.Get)
			courses.PATCH("/:id", courseHandler.Update)
			courses.DELETE("/:id", courseHandler.Delete)
		}

		modules := api.Group("/modules")
		{
			modules.GET("", moduleHandler.List)
			modules.POST("", moduleHandler.Create)
			modules.GET("/:id", moduleHandler.Get)
			modules.PATCH("/:id", moduleHandler.Update)
			modules.DELETE("/:id", moduleHandler.Delete)
		}

		newsletter := api.Group("/newsletter")
		{
			newsletter.GET("/subscribers", newsletterHandler.List)
			newsletter.GET("/subscribers/:id", newsletterHandler.Get)
			newsletter.POST("/subscribe", newsletterHandler.Subscribe)
			newsletter.DELETE("/subscribers/:id", newsletterHandler.Unsubscribe)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
