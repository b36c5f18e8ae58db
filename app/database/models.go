package database

import (
	"time"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Country struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Retailer struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	WebsiteURL string    `json:"website_url,omitempty"`
	LogoURL    string    `json:"logo_url,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Model       string  `json:"model,omitempty"`
	Description string  `json:"description,omitempty"`
	CategoryID  *string `json:"category_id,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	// schemaless, attributes vary per category
	Specifications map[string]interface{} `json:"specifications,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type Price struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	RetailerID   string    `json:"retailer_id"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	ProductURL   string    `json:"product_url,omitempty"`
	Availability string    `json:"availability"` // in_stock, limited_stock, out_of_stock
	LastChecked  time.Time `json:"last_checked"`
	CreatedAt    time.Time `json:"created_at"`
}

type PriceHistoryEntry struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"product_id"`
	RetailerID         string    `json:"retailer_id"`
	Price              float64   `json:"price"`
	Currency           string    `json:"currency"`
	PriceChangePercent *float64  `json:"price_change_percent,omitempty"` // vs. the immediately preceding point
	DealScore          *float64  `json:"deal_score,omitempty"`           // 0..10, higher is closer to the series minimum
	IsDeal             bool      `json:"is_deal"`
	RecordedAt         time.Time `json:"recorded_at"`
}

type FeaturedDeal struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	CountryCode       string    `json:"country_code,omitempty"` // empty string is the global scope
	SavingsAmount     float64   `json:"savings_amount"`
	SavingsPercentage float64   `json:"savings_percentage"`
	LowestPrice       float64   `json:"lowest_price"`
	HighestPrice      float64   `json:"highest_price"`
	DealRank          int       `json:"deal_rank"`
	ExpiresAt         time.Time `json:"expires_at"`
	CreatedAt         time.Time `json:"created_at"`
}

type SchedulerRun struct {
	ID                   string                 `json:"id"`
	RunType              string                 `json:"run_type"`
	Status               string                 `json:"status"` // running, completed, completed_with_errors, failed
	StartedAt            time.Time              `json:"started_at"`
	CompletedAt          *time.Time             `json:"completed_at,omitempty"`
	ExecutionTimeSeconds *float64               `json:"execution_time_seconds,omitempty"`
	TasksCompleted       int                    `json:"tasks_completed"`
	TasksFailed          int                    `json:"tasks_failed"`
	Summary              map[string]interface{} `json:"summary,omitempty"`
	ErrorDetails         string                 `json:"error_details,omitempty"`
}

// PriceWithRetailer is a current price joined with its retailer row.
type PriceWithRetailer struct {
	Price
	RetailerName string `json:"retailer_name"`
	RetailerLogo string `json:"retailer_logo,omitempty"`
}

// ProductWithPrices is the read-side shape consumed by the storefront.
type ProductWithPrices struct {
	Product
	Prices []PriceWithRetailer `json:"prices"`
}

// DealWithProduct is a featured deal joined with its product.
type DealWithProduct struct {
	FeaturedDeal
	Product Product `json:"product"`
}

// DailyPricePoint is one calendar day of aggregated price history.
type DailyPricePoint struct {
	Date          time.Time `json:"date"`
	MinPrice      float64   `json:"min_price"`
	MaxPrice      float64   `json:"max_price"`
	AvgPrice      float64   `json:"avg_price"`
	RetailerCount int       `json:"retailer_count"`
}
