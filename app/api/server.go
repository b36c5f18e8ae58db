package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, version string, debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Middleware
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware so storefront frontends can call the API directly
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, version)

	return r
}

// setupRoutes configures all the application routes
func setupRoutes(r *gin.Engine, handler *Handler, version string) {
	// Catalog read endpoints
	r.GET("/categories", handler.GetCategories)
	r.GET("/countries", handler.GetCountries)
	r.GET("/products", handler.SearchProducts)
	r.GET("/products/:id/history", handler.GetPriceHistory)

	// Deal endpoints
	r.GET("/deals", handler.GetFeaturedDeals)
	r.GET("/deals/preview", handler.PreviewDeals)

	// Pipeline endpoints
	r.POST("/orchestrate", handler.TriggerOrchestrator)
	r.GET("/runs", handler.ListRuns)

	// Health endpoint
	r.GET("/health", handler.GetHealth)

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "Deal Radar",
			"version":     version,
			"description": "Price comparison backend with deal ranking and history tracking",
			"endpoints": map[string]string{
				"categories":  "/categories",
				"countries":   "/countries",
				"products":    "/products?q=<query>&country=<code>&category=<id>",
				"history":     "/products/<id>/history?country=<code>&days=<n>",
				"deals":       "/deals?country=<code>",
				"preview":     "/deals/preview?country=<code>&min_savings=<pct>",
				"orchestrate": "/orchestrate (POST)",
				"runs":        "/runs?limit=<n>",
				"health":      "/health",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}
