package api

import (
	"github.com/gin-gonic/gin"

	"github.com/rahul-omni/court-scraper/internal/config"
	"github.com/rahul-omni/court-scraper/internal/pipeline"
	"github.com/rahul-omni/court-scraper/internal/site"
	"github.com/rahul-omni/court-scraper/internal/store"
	"github.com/rahul-omni/court-scraper/pkg/logger"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, gormStore *store.GormStore, registry *site.Registry, pl *pipeline.Pipeline, newBrowser BrowserFactory, log *logger.Logger, cfg *config.Config) {
	h := NewHandlers(gormStore, registry, pl, newBrowser, log, cfg)

	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		api.POST("/scrape", h.Scrape)
		api.POST("/documents/backfill", h.BackfillDocuments)

		api.GET("/cases", h.ListCases)
		api.GET("/cases/:id", h.GetCase)
		api.GET("/runs", h.ListRuns)

		api.GET("/cache/stats", h.CacheStats)
	}
}
