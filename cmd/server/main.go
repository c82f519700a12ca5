package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/garbage_complaint/internal/config"
	"github.com/garbage_complaint/internal/handlers"
	"github.com/garbage_complaint/internal/metrics"
	"github.com/garbage_complaint/internal/repositories"
	"github.com/garbage_complaint/internal/routes"
	"github.com/garbage_complaint/internal/services"
	"github.com/garbage_complaint/pkg/db"
	"github.com/garbage_complaint/pkg/logger"
	"github.com/garbage_complaint/pkg/media"
)

// @title Garbage Complaint API
// @version 1.0
// @description Geotagged garbage complaints: submit with a photo and a map location, list and export what has been filed.
// @BasePath /api/v1
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()

	zapLogger, err := logger.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if envErr != nil {
		zapLogger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}
	if cfg.UsingDefaultSessionSecret() {
		zapLogger.Warn("SESSION_SECRET not set, flash cookies are signed with the built-in development secret")
	}

	// 初始化数据库连接
	gormDB, err := db.Open(cfg.DBPath, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer db.Close(gormDB, zapLogger)

	complaintRepo := repositories.NewGormComplaintRepository(gormDB)
	if err := complaintRepo.EnsureSchema(); err != nil {
		zapLogger.Fatal("failed to create complaints table", zap.Error(err))
	}

	mediaStore := media.New(cfg.MediaRoot)
	if err := mediaStore.EnsureDir(); err != nil {
		zapLogger.Fatal("failed to create image directory", zap.String("dir", mediaStore.Dir()), zap.Error(err))
	}

	complaintService := services.NewComplaintService(complaintRepo, mediaStore, zapLogger.Named("workflow"))
	listingService := services.NewListingService(complaintRepo)
	appMetrics := metrics.New()

	complaintHandler := handlers.NewComplaintHandler(
		complaintService,
		listingService,
		complaintRepo,
		appMetrics,
		zapLogger.Named("http"),
		handlers.MapSettings{Lat: cfg.MapDefaultLat, Lng: cfg.MapDefaultLng, Zoom: cfg.MapDefaultZoom},
		cfg.MaxUploadMB,
	)

	gin.SetMode(gin.ReleaseMode)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// 设置路由
	if err := routes.SetupRoutes(router, cfg, complaintHandler, appMetrics, zapLogger.Named("access"), mediaStore); err != nil {
		zapLogger.Fatal("failed to set up routes", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Info("server starting", zap.String("port", cfg.ServerPort), zap.String("db", cfg.DBPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
