package catalog

import (
	"context"
	"log/slog"

	"github.com/nkosyan/dealradar/app/cache"
	"github.com/nkosyan/dealradar/app/database"
)

const searchLimit = 50

// Reader serves the storefront's read interface. Deal and history reads go
// through the cache when one is configured; everything degrades to direct
// database reads. Absent data comes back as empty slices, never errors.
type Reader struct {
	catalogRepo database.CatalogRepository
	dealRepo    database.DealRepository
	priceRepo   database.PriceRepository
	cache       *cache.Cache
}

func NewReader(catalogRepo database.CatalogRepository, dealRepo database.DealRepository,
	priceRepo database.PriceRepository, c *cache.Cache) *Reader {
	return &Reader{
		catalogRepo: catalogRepo,
		dealRepo:    dealRepo,
		priceRepo:   priceRepo,
		cache:       c,
	}
}

func (r *Reader) ListCategories(ctx context.Context) ([]database.Category, error) {
	return r.catalogRepo.ListCategories(ctx)
}

func (r *Reader) ListCountries(ctx context.Context) ([]database.Country, error) {
	return r.catalogRepo.ListCountries(ctx)
}

func (r *Reader) SearchProducts(ctx context.Context, query, countryCode, categoryID string) ([]database.ProductWithPrices, error) {
	products, err := r.catalogRepo.SearchProducts(ctx, query, countryCode, categoryID, searchLimit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []database.ProductWithPrices{}
	}
	return products, nil
}

func (r *Reader) GetFeaturedDeals(ctx context.Context, countryCode string) ([]database.DealWithProduct, error) {
	key := cache.DealsKey(countryCode)

	var cached []database.DealWithProduct
	if hit, err := r.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	deals, err := r.dealRepo.GetFeaturedDeals(ctx, countryCode)
	if err != nil {
		return nil, err
	}
	if deals == nil {
		deals = []database.DealWithProduct{}
	}

	if err := r.cache.Set(ctx, key, deals); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}

	return deals, nil
}

func (r *Reader) GetPriceHistory(ctx context.Context, productID, countryCode string, days int) ([]database.DailyPricePoint, error) {
	key := cache.HistoryKey(productID, countryCode, days)

	var cached []database.DailyPricePoint
	if hit, err := r.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	points, err := r.priceRepo.GetDailyHistory(ctx, productID, countryCode, days)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = []database.DailyPricePoint{}
	}

	if err := r.cache.Set(ctx, key, points); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}

	return points, nil
}
