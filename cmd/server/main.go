package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/competiscan/competiscan-go/internal/api"
	"github.com/competiscan/competiscan-go/internal/api/handlers"
	"github.com/competiscan/competiscan-go/internal/cache"
	"github.com/competiscan/competiscan-go/internal/config"
	"github.com/competiscan/competiscan-go/internal/database"
	"github.com/competiscan/competiscan-go/internal/logging"
	"github.com/competiscan/competiscan-go/internal/middleware"
	"github.com/competiscan/competiscan-go/internal/services"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	repository := database.NewChangeEventRepository(db, logger)
	trendService := services.NewTrendService(cfg, repository, logger)
	alertService := services.NewAlertService(repository, cfg.Telegram.BotToken, logger)
	analysisCache := cache.NewAnalysisCache(redis.Client, time.Duration(cfg.Redis.CacheTTL)*time.Second, logger)

	trendsHandler := handlers.NewTrendsHandler(trendService, alertService, analysisCache, cfg.Forecast, logger)
	adminMiddleware := middleware.NewAdminMiddleware(cfg.Server.AdminAPIKey)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, redis, trendsHandler, adminMiddleware)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
