package http

import (
	"time"

	"github.com/chemprice/backend/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	limiter := NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst, time.Minute)
	limited := RateLimitMiddleware(limiter)

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", handler.SearchProducts)

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/status", handler.CatalogStatus)
			catalog.POST("/rebuild", limited, handler.RebuildCatalog)
		}

		sources := v1.Group("/sources", limited)
		{
			sources.POST("/costs", handler.UploadCosts)
			sources.POST("/rules", handler.UploadRules)
		}

		v1.POST("/overrides/margin", limited, handler.SetMargin)
	}

	// Paths used by the legacy web front-end
	router.GET("/buscar", handler.SearchProducts)
	router.POST("/subir-precios", limited, handler.UploadCosts)
	router.POST("/subir-reglas", limited, handler.UploadRules)
	router.POST("/api/editar-margen", limited, handler.SetMargin)

	return router
}
