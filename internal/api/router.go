package api

import (
	"context"
	"net/http"
	"time"

	"github.com/editorial-cms/internal/config"
	"github.com/editorial-cms/internal/metrics"
	"github.com/editorial-cms/internal/ratelimit"
	"github.com/editorial-cms/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether a backing dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router.
// Background cleanup stops when ctx is done. A nil health checker reports the
// process as healthy without probing.
func NewRouter(ctx context.Context, services *service.Services, cfg *config.Config, health HealthChecker, log zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.Media.MaxUploadBytes + 1<<20

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(metrics.Middleware())
	router.Use(corsMiddleware(cfg.Security.CORSOrigins))
	router.Use(securityHeadersMiddleware(cfg))

	// Handlers
	publicHandler := NewPublicHandler(services, log)
	adminHandler := NewAdminHandler(services, cfg, log)

	searchLimiter := ratelimit.NewIPLimiter(cfg.Security.SearchRPS, cfg.Security.SearchBurst)
	go searchLimiter.RunCleanup(ctx, time.Minute, 10*time.Minute)

	// Health check
	router.GET("/health", healthCheck(health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/sitemap.xml", publicHandler.Sitemap)
	router.GET("/robots.txt", publicHandler.Robots)

	// API v1
	v1 := router.Group("/v1")
	{
		// Public endpoints
		v1.GET("/articles", publicHandler.Home)
		v1.GET("/articles/:slug", publicHandler.Article)
		v1.GET("/categories", publicHandler.Categories)
		v1.GET("/categories/:slug/articles", publicHandler.CategoryArchive)
		v1.GET("/search", rateLimitMiddleware(searchLimiter, log), publicHandler.Search)

		// Admin endpoints
		admin := v1.Group("/" + cfg.Security.AdminPath)
		{
			admin.POST("/login", adminHandler.Login)

			secured := admin.Group("", requireSession(services.Auth, log))
			{
				secured.POST("/logout", adminHandler.Logout)
				secured.GET("/dashboard", adminHandler.Dashboard)

				secured.GET("/articles", adminHandler.ListArticles)
				secured.POST("/articles", adminHandler.CreateArticle)
				secured.GET("/articles/:id", adminHandler.GetArticle)
				secured.PUT("/articles/:id", adminHandler.UpdateArticle)
				secured.DELETE("/articles/:id", adminHandler.DeleteArticle)

				secured.GET("/categories", adminHandler.ListCategories)
				secured.POST("/categories", adminHandler.CreateCategory)
				secured.DELETE("/categories/:id", adminHandler.DeleteCategory)

				secured.GET("/tags", adminHandler.ListTags)
				secured.POST("/tags", adminHandler.CreateTag)
				secured.DELETE("/tags/:id", adminHandler.DeleteTag)
			}
		}
	}

	return router
}

// healthCheck returns the health status
func healthCheck(health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if health != nil {
			ctx, cancel := contextWithTimeout(c, 2*time.Second)
			defer cancel()
			if err := health.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "editorial-cms",
		})
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
