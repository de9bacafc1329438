package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/amly-app/daily-digest-api/api/swagger"
	"github.com/amly-app/daily-digest-api/internal/handler"
	"github.com/amly-app/daily-digest-api/internal/middleware"
	"github.com/amly-app/daily-digest-api/internal/repository"
	"github.com/amly-app/daily-digest-api/internal/service"
	"github.com/amly-app/daily-digest-api/pkg/cache"
	"github.com/amly-app/daily-digest-api/pkg/config"
	"github.com/amly-app/daily-digest-api/pkg/database"
	"github.com/amly-app/daily-digest-api/pkg/logger"
	corsmiddleware "github.com/amly-app/daily-digest-api/pkg/middleware/cors"
	reqidmiddleware "github.com/amly-app/daily-digest-api/pkg/middleware/requestid"
)

// @title Daily Digest API
// @version 1.0.0
// @description Content library, sharing and daily update composition for classroom email digests
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Content.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, content cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Content.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	recordRepo := repository.NewClassRecordRepository(db)
	libraryRepo := repository.NewContentLibraryRepository(db)
	sharingRepo := repository.NewSharingRequestRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "daily-digest-api",
		SingleSession:      false,
	})
	teacherService := service.NewTeacherService(teacherRepo, logr)
	libraryService := service.NewContentLibraryService(libraryRepo, cacheService, cfg.Content.CacheTTL, logr)
	preferenceService := service.NewPreferenceService(preferenceRepo, logr)
	sharingService := service.NewSharingService(sharingRepo, teacherRepo, libraryService, validate, cfg.Sharing.RequestTTL, logr)
	dailyUpdateService := service.NewDailyUpdateService(
		studentRepo,
		recordRepo,
		teacherRepo,
		libraryService,
		preferenceService,
		metricsService,
		cfg.Digest.UpcomingWindow,
		cfg.Digest.SchoolName,
		logr,
	)
	exportService := service.NewDigestExportService(dailyUpdateService, cfg.Digest.ExportEnabled, logr)

	authHandler := handler.NewAuthHandler(authService)
	teacherHandler := handler.NewTeacherHandler(teacherService)
	contentHandler := handler.NewContentHandler(libraryService)
	sharingHandler := handler.NewSharingHandler(sharingService)
	preferenceHandler := handler.NewPreferenceHandler(preferenceService)
	dailyUpdateHandler := handler.NewDailyUpdateHandler(dailyUpdateService, exportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/metrics/snapshot", metricsHandler.Snapshot)

		protected.GET("/teachers", teacherHandler.List)
		protected.GET("/teachers/:id", teacherHandler.Get)

		library := protected.Group("/content-library")
		{
			library.GET("", contentHandler.Get)
			library.POST("/reset", contentHandler.Reset)
			library.POST("/:contentType", contentHandler.AddFragment)
			library.PUT("/:contentType", contentHandler.BulkReplace)
			library.GET("/:contentType/select", contentHandler.Select)
			library.PUT("/:contentType/:index", contentHandler.UpdateFragment)
			library.DELETE("/:contentType/:index", contentHandler.DeleteFragment)
		}

		sharing := protected.Group("/sharing-requests")
		{
			sharing.POST("", sharingHandler.Create)
			sharing.GET("/pending", sharingHandler.ListPending)
			sharing.POST("/:id/accept", sharingHandler.Accept)
			sharing.POST("/:id/reject", sharingHandler.Reject)
		}

		protected.GET("/email-preferences", preferenceHandler.Get)
		protected.PUT("/email-preferences", preferenceHandler.Update)

		daily := protected.Group("/daily-updates")
		{
			daily.GET("", dailyUpdateHandler.Compose)
			daily.GET("/export", dailyUpdateHandler.Export)
			daily.GET("/students/:studentId", dailyUpdateHandler.ComposeStudent)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
