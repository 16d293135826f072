package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rahul-omni/court-scraper/internal/config"
	"github.com/rahul-omni/court-scraper/internal/driver"
	"github.com/rahul-omni/court-scraper/internal/pipeline"
	"github.com/rahul-omni/court-scraper/internal/site"
	"github.com/rahul-omni/court-scraper/internal/store"
	"github.com/rahul-omni/court-scraper/pkg/logger"
)

// BrowserFactory opens a fresh browser session for one run.
type BrowserFactory func(selectors driver.Selectors) (driver.Browser, error)

// Handlers holds all HTTP handlers
type Handlers struct {
	store      *store.GormStore
	registry   *site.Registry
	pipeline   *pipeline.Pipeline
	newBrowser BrowserFactory
	logger     *logger.Logger
	cfg        *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(gormStore *store.GormStore, registry *site.Registry, pl *pipeline.Pipeline, newBrowser BrowserFactory, log *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		store:      gormStore,
		registry:   registry,
		pipeline:   pl,
		newBrowser: newBrowser,
		logger:     log,
		cfg:        cfg,
	}
}

type scrapeRequest struct {
	Site   string            `json:"site" binding:"required"`
	Params site.SearchParams `json:"params"`
}

// Scrape triggers one pipeline run and returns its summary.
func (h *Handlers) Scrape(c *gin.Context) {
	var req scrapeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	adapter, err := h.registry.Get(req.Site)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "sites": h.registry.Names()})
		return
	}

	browser, err := h.newBrowser(adapter.Selectors())
	if err != nil {
		h.logger.Error("failed to open browser", "site", req.Site, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open browser session"})
		return
	}
	defer browser.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.ScraperTimeout)
	defer cancel()

	summary := h.pipeline.Run(ctx, adapter, browser, req.Params)
	c.JSON(statusCode(summary.Status), summary)
}

func statusCode(status pipeline.Status) int {
	switch status {
	case pipeline.StatusCompleted, pipeline.StatusNoRecordsFound:
		return http.StatusOK
	case pipeline.StatusCaptchaExhausted:
		return http.StatusBadGateway
	case pipeline.StatusAborted:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ListCases returns recently scraped cases.
func (h *Handlers) ListCases(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	cases, err := h.store.ListCases(limit)
	if err != nil {
		h.logger.Error("failed to list cases", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list cases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cases": cases, "count": len(cases)})
}

// GetCase returns one case with its orders.
func (h *Handlers) GetCase(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return
	}

	record, err := h.store.GetCase(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListRuns returns recent scrape-run summaries.
func (h *Handlers) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}

	runs, err := h.store.ListRuns(limit)
	if err != nil {
		h.logger.Error("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// BackfillDocuments retries uploads for orders missing a document ref.
func (h *Handlers) BackfillDocuments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.ScraperTimeout)
	defer cancel()

	filled, err := h.pipeline.BackfillDocuments(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "filled": filled})
		return
	}
	c.JSON(http.StatusOK, gin.H{"filled": filled})
}

// CacheStats reports natural-key lookup cache statistics.
func (h *Handlers) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Stats())
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"sites":  h.registry.Names(),
	})
}
