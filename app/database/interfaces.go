package database

import (
	"context"
	"time"
)

// AggregationPrice is one current price row as seen by the deal engine.
type AggregationPrice struct {
	ProductID string
	Price     float64
}

// PricePair identifies a (product, retailer) series with its current price.
type PricePair struct {
	ProductID    string
	RetailerID   string
	CurrentPrice float64
	Currency     string
}

type ProductRepository interface {
	GetProductByNameBrand(ctx context.Context, name, brand string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) (string, error)
	UpdateProductDetails(ctx context.Context, id, description string, specifications map[string]interface{}) error
	LogDiscovery(ctx context.Context, productID, source, countryCode string, initialPrice float64, metadata map[string]interface{}) error
}

type RetailerRepository interface {
	GetRetailerByName(ctx context.Context, name string) (*Retailer, error)
	CreateRetailer(ctx context.Context, name, websiteURL string) (string, error)
	LinkRetailerCountry(ctx context.Context, retailerID, countryCode, websiteURL string) error
}

type PriceRepository interface {
	GetPrice(ctx context.Context, productID, retailerID string) (*Price, error)
	UpsertPrice(ctx context.Context, p Price) error
	InsertHistory(ctx context.Context, e PriceHistoryEntry) error
	InsertHistoryBatch(ctx context.Context, entries []PriceHistoryEntry) error
	CountHistoryPoints(ctx context.Context, productID, retailerID string) (int, error)
	GetCurrentPairs(ctx context.Context, limit int) ([]PricePair, error)
	PruneHistory(ctx context.Context, olderThan time.Time) (int64, error)
	GetDailyHistory(ctx context.Context, productID, countryCode string, days int) ([]DailyPricePoint, error)
}

type DealRepository interface {
	GetAggregationPrices(ctx context.Context, countryCode string) ([]AggregationPrice, error)
	ReplaceDeals(ctx context.Context, countryCode string, deals []FeaturedDeal) error
	GetFeaturedDeals(ctx context.Context, countryCode string) ([]DealWithProduct, error)
}

type RunRepository interface {
	CreateRun(ctx context.Context, runType string) (string, error)
	FinishRun(ctx context.Context, id, status string, tasksCompleted, tasksFailed int, executionSeconds float64, summary map[string]interface{}, errorDetails string) error
	GetActiveRunID(ctx context.Context) (string, error)
	ListRuns(ctx context.Context, limit int) ([]SchedulerRun, error)
}

type CatalogRepository interface {
	UpsertCountry(ctx context.Context, c Country) error
	UpsertCategory(ctx context.Context, name, slug, description string) (string, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListCountries(ctx context.Context) ([]Country, error)
	SearchProducts(ctx context.Context, query, countryCode, categoryID string, limit int) ([]ProductWithPrices, error)
}
