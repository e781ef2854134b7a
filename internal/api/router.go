package api

import (
	"github.com/gin-gonic/gin"
	"github.com/payperplay/profiles/internal/middleware"
	"github.com/payperplay/profiles/pkg/config"
)

func SetupRouter(
	projectHandler *ProjectHandler,
	profileHandler *ProfileHandler,
	watchHub *ProfileWatchHub,
	healthHandler *HealthHandler,
	prometheusHandler *PrometheusHandler,
	rateLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware (in order)
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestLogger())

	// CORS middleware (for development)
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Probes and scraping are not rate limited
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/stats", healthHandler.StatsCheck)
	router.GET("/metrics", prometheusHandler.MetricsEndpoint)

	api := router.Group("/api")
	if rateLimiter != nil {
		api.Use(middleware.RateLimitMiddleware(rateLimiter))
	}

	api.POST("/projects", projectHandler.CreateProject)

	projects := api.Group("/projects/:id")
	{
		projects.GET("", projectHandler.GetProject)
		projects.GET("/configs", projectHandler.GetProjectConfigs)
		projects.PUT("/configs", projectHandler.RegisterConfig)
		projects.GET("/profile", profileHandler.GetProfile)
		projects.PUT("/profile", profileHandler.PutProfile)
		projects.POST("/profile/sessions", profileHandler.OpenSession)
		projects.GET("/profile/watch", watchHub.HandleConnection)
	}

	sessions := api.Group("/profile-sessions/:token")
	{
		sessions.POST("/preview", profileHandler.Preview)
		sessions.POST("/save", profileHandler.Save)
		sessions.DELETE("", profileHandler.CloseSession)
	}

	return router
}
