package http

import (
	"github.com/gin-gonic/gin"

	"github.com/vendora/backend/config"
	"github.com/vendora/backend/internal/platform/logger"
	"github.com/vendora/backend/internal/platform/metrics"
)

// SetupRouter creates and configures the Gin router. m may be nil, in which
// case /metrics is not mounted.
func SetupRouter(cfg *config.Config, handler *Handler, authMW *AuthMiddleware, m *metrics.Metrics, log *logger.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware(log))
	router.Use(MetricsMiddleware(m))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	if cfg.RateLimit.PerIP > 0 {
		v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst)))
	}
	v1.Use(authMW.RequireAuth())
	{
		products := v1.Group("/products")
		{
			products.POST("/auto-link", authMW.RequirePublisher(), handler.AutoLink)
			products.GET("/suggestions", handler.Suggestions)
			products.POST("/suggestions/feedback", handler.Feedback)
			products.GET("/suggestions/feedback/summary", authMW.RequireAdmin(), handler.FeedbackSummary)
		}

		v1.GET("/catalog/:id", handler.CatalogEntry)
	}

	return router
}
