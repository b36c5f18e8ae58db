package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"dealradar" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"dealradar" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"dealradar" description:"Database name"`
	DBSSLMode  string `long:"db-sslmode" env:"DB_SSLMODE" default:"disable" description:"Database SSL mode"`

	// Redis configuration
	RedisAddr string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address for the read-side cache (optional, empty disables caching)"`
	CacheTTL  int    `long:"cache-ttl" env:"CACHE_TTL" default:"300" description:"Cache TTL in seconds for catalog reads"`

	// Application configuration
	CatalogDir        string `long:"catalog-dir" env:"CATALOG_DIR" default:"./catalog" description:"Directory containing discovery catalog YAML files"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"86400" description:"Seconds between automatic orchestrator runs (0 disables)"`
	InterTaskDelay    int    `long:"inter-task-delay" env:"INTER_TASK_DELAY" default:"1500" description:"Milliseconds to pause between orchestrator tasks"`
	TaskTimeout       int    `long:"task-timeout" env:"TASK_TIMEOUT" default:"600" description:"Timeout in seconds for a single orchestrator task"`

	// Deal aggregation tuning
	FeaturedMinSavingsPct float64 `long:"featured-min-savings" env:"FEATURED_MIN_SAVINGS" default:"30" description:"Minimum savings percentage for top featured deals"`
	CountryMinSavingsPct  float64 `long:"country-min-savings" env:"COUNTRY_MIN_SAVINGS" default:"15" description:"Minimum savings percentage for country-scoped deals"`
	GlobalMinSavingsPct   float64 `long:"global-min-savings" env:"GLOBAL_MIN_SAVINGS" default:"10" description:"Minimum savings percentage for the global deal list"`
	TopDeals              int     `long:"top-deals" env:"TOP_DEALS" default:"10" description:"Number of featured deals kept per scope"`
	DealExpiryHours       int     `long:"deal-expiry-hours" env:"DEAL_EXPIRY_HOURS" default:"24" description:"Hours until a materialized deal expires"`

	// Price history tuning
	BackfillWindowDays   int     `long:"backfill-window-days" env:"BACKFILL_WINDOW_DAYS" default:"365" description:"Days of synthetic history generated per product/retailer pair"`
	BackfillSkipPoints   int     `long:"backfill-skip-points" env:"BACKFILL_SKIP_POINTS" default:"30" description:"Existing history points above which backfill skips a pair"`
	BackfillFloorRatio   float64 `long:"backfill-floor-ratio" env:"BACKFILL_FLOOR_RATIO" default:"0.65" description:"Lower clamp for synthetic prices as a ratio of the current price"`
	BackfillCeilRatio    float64 `long:"backfill-ceil-ratio" env:"BACKFILL_CEIL_RATIO" default:"2.0" description:"Upper clamp for synthetic prices as a ratio of the current price"`
	HistoryRetentionDays int     `long:"history-retention-days" env:"HISTORY_RETENTION_DAYS" default:"365" description:"Days of price history kept before pruning"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:                raw.DBHost,
		DBPort:                raw.DBPort,
		DBUser:                raw.DBUser,
		DBPassword:            raw.DBPassword,
		DBName:                raw.DBName,
		DBSSLMode:             raw.DBSSLMode,
		RedisAddr:             raw.RedisAddr,
		CacheTTL:              raw.CacheTTL,
		CacheEnabled:          raw.RedisAddr != "",
		CatalogDir:            raw.CatalogDir,
		Port:                  raw.Port,
		SchedulerInterval:     raw.SchedulerInterval,
		InterTaskDelay:        raw.InterTaskDelay,
		TaskTimeout:           raw.TaskTimeout,
		FeaturedMinSavingsPct: raw.FeaturedMinSavingsPct,
		CountryMinSavingsPct:  raw.CountryMinSavingsPct,
		GlobalMinSavingsPct:   raw.GlobalMinSavingsPct,
		TopDeals:              raw.TopDeals,
		DealExpiryHours:       raw.DealExpiryHours,
		BackfillWindowDays:    raw.BackfillWindowDays,
		BackfillSkipPoints:    raw.BackfillSkipPoints,
		BackfillFloorRatio:    raw.BackfillFloorRatio,
		BackfillCeilRatio:     raw.BackfillCeilRatio,
		HistoryRetentionDays:  raw.HistoryRetentionDays,
		Timezone:              raw.Timezone,
		Debug:                 raw.Debug,
		Version:               GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
