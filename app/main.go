package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nkosyan/dealradar/app/api"
	"github.com/nkosyan/dealradar/app/cache"
	"github.com/nkosyan/dealradar/app/catalog"
	"github.com/nkosyan/dealradar/app/cfg"
	"github.com/nkosyan/dealradar/app/database"
	"github.com/nkosyan/dealradar/app/deals"
	"github.com/nkosyan/dealradar/app/history"
	"github.com/nkosyan/dealradar/app/ingest"
	"github.com/nkosyan/dealradar/app/sources"
	"github.com/nkosyan/dealradar/app/tasks"
)

// backfillSeed keeps synthetic history generation reproducible across
// restarts so re-running the backfill never rewrites existing curves.
const backfillSeed = 1847

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Deal Radar server", "version", appCfg.Version)

	// Database connection
	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName, appCfg.DBSSLMode)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	// Load the discovery catalog
	loader := sources.NewLoader(appCfg.CatalogDir)
	productCatalog, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load catalog", "dir", appCfg.CatalogDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Catalog loaded",
		"countries", len(productCatalog.Countries),
		"categories", len(productCatalog.Categories))

	// Initialize repositories
	productRepo := database.NewProductRepository(db)
	retailerRepo := database.NewRetailerRepository(db)
	priceRepo := database.NewPriceRepository(db)
	dealRepo := database.NewDealRepository(db)
	runRepo := database.NewRunRepository(db)
	catalogRepo := database.NewCatalogRepository(db)

	// Register catalog countries in the database
	registered := 0
	for _, cc := range productCatalog.Countries {
		country := database.Country{
			Code:     cc.Code,
			Name:     cc.Name,
			Currency: cc.Currency,
			IsActive: true,
		}
		if err := catalogRepo.UpsertCountry(context.Background(), country); err != nil {
			slog.Warn("Failed to register country", "code", cc.Code, "error", err)
			continue
		}
		registered++
	}
	slog.Info("Registered countries", "count", registered, "total", len(productCatalog.Countries))

	// Read-side cache (optional)
	var readCache *cache.Cache
	if appCfg.CacheEnabled {
		readCache, err = cache.New(appCfg.RedisAddr, time.Duration(appCfg.CacheTTL)*time.Second)
		if err != nil {
			slog.Warn("Cache unavailable, continuing without it", "addr", appCfg.RedisAddr, "error", err)
			readCache = nil
		} else {
			slog.Info("Cache connected", "addr", appCfg.RedisAddr)
		}
	}

	// Initialize core components
	source := sources.NewSimulatedSource(time.Now().UnixNano())
	ingester := ingest.NewIngester(productRepo, retailerRepo, priceRepo, "scheduled_discovery")
	backfiller := history.NewBackfiller(priceRepo, history.SynthConfig{
		WindowDays: appCfg.BackfillWindowDays,
		FloorRatio: appCfg.BackfillFloorRatio,
		CeilRatio:  appCfg.BackfillCeilRatio,
	}, appCfg.BackfillSkipPoints, backfillSeed)
	dealEngine := deals.NewEngine(dealRepo)
	reader := catalog.NewReader(catalogRepo, dealRepo, priceRepo, readCache)

	// Task roster, critical tasks run first and gate the run verdict
	defs := []tasks.Definition{
		{Task: tasks.NewDiscoveryTask(productCatalog, source, ingester, catalogRepo), Priority: 1, Critical: true},
		{Task: tasks.NewBackfillTask(backfiller), Priority: 2, Critical: true},
		{Task: tasks.NewDealRefreshTask(dealEngine, catalogRepo, readCache,
			appCfg.FeaturedMinSavingsPct, appCfg.CountryMinSavingsPct,
			appCfg.TopDeals, time.Duration(appCfg.DealExpiryHours)*time.Hour), Priority: 3, Critical: true},
		{Task: tasks.NewPruneTask(priceRepo, appCfg.HistoryRetentionDays), Priority: 4, Critical: false},
	}

	orchestrator := tasks.NewOrchestrator(runRepo, defs,
		time.Duration(appCfg.InterTaskDelay)*time.Millisecond,
		time.Duration(appCfg.TaskTimeout)*time.Second)

	if appCfg.SchedulerInterval > 0 {
		slog.Info("Starting orchestrator schedule", "interval_seconds", appCfg.SchedulerInterval)
		orchestrator.Start(time.Duration(appCfg.SchedulerInterval) * time.Second)
	} else {
		slog.Info("Scheduled runs disabled, orchestrator available via POST /orchestrate")
	}
	defer orchestrator.Stop()

	// Initialize HTTP server
	apiHandler := api.NewHandler(reader, dealRepo, runRepo, orchestrator, appCfg.GlobalMinSavingsPct)
	server := api.NewServer(apiHandler, appCfg.Version, appCfg.Debug)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Deal Radar server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	// Graceful shutdown
	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	if readCache != nil {
		if err := readCache.Close(); err != nil {
			slog.Warn("Cache close error", "error", err)
		}
	}

	slog.Info("Shutdown complete")
}
