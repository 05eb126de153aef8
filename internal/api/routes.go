package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/competiscan/competiscan-go/internal/api/handlers"
	"github.com/competiscan/competiscan-go/internal/database"
	"github.com/competiscan/competiscan-go/internal/middleware"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Services  Services  `json:"services"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

// SetupRoutes registers the health check, the trend API, and the admin
// endpoints.
func SetupRoutes(router *gin.Engine, db *database.PostgresDB, redis *database.RedisClient, trends *handlers.TrendsHandler, admin *middleware.AdminMiddleware) {
	router.GET("/health", healthCheck(db, redis))

	v1 := router.Group("/api/v1")
	{
		trendRoutes := v1.Group("/trends")
		{
			trendRoutes.GET("/features", trends.GetFeatureTrends)
			trendRoutes.GET("/pricing", trends.GetPricingTrends)
			trendRoutes.GET("/market-share", trends.GetMarketShareTrends)
			trendRoutes.GET("/technology", trends.GetTechnologyTrends)
			trendRoutes.GET("/breakouts", trends.GetBreakouts)
			trendRoutes.POST("/breakouts/notify", admin.RequireAdminAuth(), trends.NotifyBreakouts)
		}

		v1.GET("/forecast", trends.GetForecast)

		adminRoutes := v1.Group("/admin", admin.RequireAdminAuth())
		{
			adminRoutes.POST("/cache/invalidate", trends.InvalidateCache)
			adminRoutes.GET("/cache/stats", trends.GetCacheStats)
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
		}

		if db != nil {
			if err := db.HealthCheck(c.Request.Context()); err != nil {
				response.Services.Database = "error"
				response.Status = "degraded"
			}
		}

		if redis != nil {
			if err := redis.HealthCheck(c.Request.Context()); err != nil {
				response.Services.Redis = "error"
				response.Status = "degraded"
			}
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
