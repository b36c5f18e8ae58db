package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration (optional read-side cache)
	RedisAddr    string
	CacheTTL     int // seconds
	CacheEnabled bool

	// Application configuration
	CatalogDir        string
	Port              string
	SchedulerInterval int // seconds between automatic orchestrator runs, 0 disables
	InterTaskDelay    int // milliseconds between orchestrator tasks
	TaskTimeout       int // seconds per task invocation

	// Deal aggregation tuning
	FeaturedMinSavingsPct float64
	CountryMinSavingsPct  float64
	GlobalMinSavingsPct   float64
	TopDeals              int
	DealExpiryHours       int

	// Price history tuning
	BackfillWindowDays   int
	BackfillSkipPoints   int
	BackfillFloorRatio   float64
	BackfillCeilRatio    float64
	HistoryRetentionDays int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
