package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pulsemetrics/analytics-api/internal/database"
	"github.com/pulsemetrics/analytics-api/internal/handlers"
	"github.com/pulsemetrics/analytics-api/internal/middleware"
	"github.com/pulsemetrics/analytics-api/internal/ml"
)

const Version = "1.0.0"

var startTime = time.Now()

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Dependencies carries the collaborators the route table wires together.
// DB and Redis may be nil when the backing stores are not configured.
type Dependencies struct {
	Analytics *handlers.AnalyticsHandler
	Models    *ml.Manager
	DB        *database.PostgresDB
	Redis     *database.RedisClient
	Auth      *middleware.AuthMiddleware
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", healthCheck(deps))
	router.GET("/", root)

	v1 := router.Group("/api/v1")

	analytics := v1.Group("/analytics")
	if deps.Auth != nil {
		analytics.Use(deps.Auth.RequireAuth())
	}
	{
		analytics.POST("/upload", deps.Analytics.UploadAnalyticsData)
		analytics.GET("/summary", deps.Analytics.GetAnalyticsSummary)
		analytics.GET("/realtime", deps.Analytics.GetRealtimeMetrics)
		analytics.GET("/predictions", deps.Analytics.GetMLPredictions)
	}
}

// healthCheck reports per-service health. A not-ready model degrades the
// report but never fails it: ingestion stays available without scoring.
func healthCheck(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		services := map[string]string{
			"api":      "healthy",
			"ml_model": "healthy",
			"database": "healthy",
			"redis":    "healthy",
		}
		status := "healthy"

		if deps.Models == nil || !deps.Models.IsReady() {
			services["ml_model"] = "unhealthy"
			status = "degraded"
		}

		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				services["database"] = "unhealthy"
				status = "degraded"
			}
		} else {
			services["database"] = "unhealthy: not configured"
			status = "degraded"
		}

		if deps.Redis != nil {
			if err := deps.Redis.HealthCheck(c.Request.Context()); err != nil {
				services["redis"] = "unhealthy"
				status = "degraded"
			}
		} else {
			services["redis"] = "unhealthy: not configured"
			status = "degraded"
		}

		c.JSON(http.StatusOK, HealthResponse{
			Status:    status,
			Version:   Version,
			Uptime:    fmt.Sprintf("%.2fs", time.Since(startTime).Seconds()),
			Timestamp: time.Now(),
			Services:  services,
		})
	}
}

func root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "ML Analytics Dashboard API",
		"version": Version,
		"status":  "running",
		"health":  "/health",
	})
}
