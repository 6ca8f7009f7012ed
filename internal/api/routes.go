package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/metrics"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler) {
	// Health checks (no /api/v1 prefix for standard health endpoints)
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadinessCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handler.HealthCheck)
		v1.GET("/ready", handler.ReadinessCheck)

		properties := v1.Group("/properties")
		{
			properties.POST("/search", handler.Search) // POST for complex searches
			properties.GET("/search", handler.Search)  // GET for simple searches
			properties.GET("/suggest", handler.Suggest)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("", handler.Analytics)
			analytics.GET("/trends", handler.Trends)
		}

		v1.GET("/users/:id/recommendations", handler.Recommendations)
	}

	// Internal endpoints, driven by the listing service on property changes.
	internal := router.Group("/internal/index")
	{
		internal.POST("/properties/:id", handler.IndexProperty)
		internal.DELETE("/properties/:id", handler.RemoveProperty)
		internal.POST("/rebuild", handler.RebuildIndex)
	}
}
