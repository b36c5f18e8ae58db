package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nkosyan/dealradar/app/catalog"
	"github.com/nkosyan/dealradar/app/database"
	"github.com/nkosyan/dealradar/app/deals"
	"github.com/nkosyan/dealradar/app/tasks"
)

func NewHandler(reader *catalog.Reader, dealRepo database.DealRepository,
	runRepo database.RunRepository, orchestrator *tasks.Orchestrator,
	defaultMinSavingsPct float64) *Handler {
	return &Handler{
		reader:               reader,
		dealRepo:             dealRepo,
		runRepo:              runRepo,
		orchestrator:         orchestrator,
		defaultMinSavingsPct: defaultMinSavingsPct,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) GetCategories(c *gin.Context) {
	categories, err := h.reader.ListCategories(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories)})
}

func (h *Handler) GetCountries(c *gin.Context) {
	countries, err := h.reader.ListCountries(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "list_countries", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"countries": countries, "total": len(countries)})
}

func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("q")
	countryCode := c.DefaultQuery("country", "US")
	categoryID := c.Query("category")

	products, err := h.reader.SearchProducts(c.Request.Context(), query, countryCode, categoryID)
	if err != nil {
		slog.Error("Database error", "operation", "search_products", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// GetFeaturedDeals returns the materialized deal ranking for a scope.
// country is optional; without it the global scope is served.
func (h *Handler) GetFeaturedDeals(c *gin.Context) {
	countryCode := c.Query("country")

	dealRows, err := h.reader.GetFeaturedDeals(c.Request.Context(), countryCode)
	if err != nil {
		slog.Error("Database error", "operation", "get_featured_deals", "country", countryCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deals": dealRows, "total": len(dealRows)})
}

// PreviewDeals computes a deal ranking on demand without persisting it.
// Lets the storefront show a "best deals" list at a looser threshold than
// the materialized featured set.
func (h *Handler) PreviewDeals(c *gin.Context) {
	countryCode := c.Query("country")

	minPct := h.defaultMinSavingsPct
	if raw := c.Query("min_savings"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_savings parameter"})
			return
		}
		minPct = parsed
	}

	prices, err := h.dealRepo.GetAggregationPrices(c.Request.Context(), countryCode)
	if err != nil {
		slog.Error("Database error", "operation", "preview_deals", "country", countryCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ranked := deals.Compute(prices, deals.Params{
		CountryCode:   countryCode,
		MinSavingsPct: minPct,
		TopN:          10,
	})

	c.JSON(http.StatusOK, gin.H{"deals": ranked, "total": len(ranked), "min_savings": minPct})
}

func (h *Handler) GetPriceHistory(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing product id"})
		return
	}

	countryCode := c.DefaultQuery("country", "US")

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid days parameter"})
			return
		}
		days = parsed
	}

	points, err := h.reader.GetPriceHistory(c.Request.Context(), productID, countryCode, days)
	if err != nil {
		slog.Error("Database error", "operation", "get_price_history", "product_id", productID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": points, "total": len(points)})
}

// TriggerOrchestrator starts a manual run. A run already in flight is
// rejected with 409 rather than queued.
func (h *Handler) TriggerOrchestrator(c *gin.Context) {
	runID, err := h.orchestrator.TriggerRun(c.Request.Context(), "manual")
	if err != nil {
		if errors.Is(err, tasks.ErrRunActive) {
			c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
			return
		}
		slog.Error("Failed to trigger run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start run"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID, "status": "running"})
}

func (h *Handler) ListRuns(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	runs, err := h.runRepo.ListRuns(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if runs == nil {
		runs = []database.SchedulerRun{}
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs, "total": len(runs)})
}
