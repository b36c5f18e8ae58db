package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/nkosyan/dealradar/app/cache"
	"github.com/nkosyan/dealradar/app/database"
	"github.com/nkosyan/dealradar/app/deals"
)

// DealRefreshTask rebuilds the featured deals: the global scope at the
// featured threshold, then every active country at the country threshold.
// A failing country scope is recorded and the rest still refresh.
type DealRefreshTask struct {
	Task
	engine      *deals.Engine
	catalogRepo database.CatalogRepository
	cache       *cache.Cache
	featuredPct float64
	countryPct  float64
	topN        int
	expiry      time.Duration
}

func NewDealRefreshTask(engine *deals.Engine, catalogRepo database.CatalogRepository, c *cache.Cache,
	featuredPct, countryPct float64, topN int, expiry time.Duration) *DealRefreshTask {
	return &DealRefreshTask{
		Task:        NewTask(TaskTypeDealRefresh, "Featured Deals Update"),
		engine:      engine,
		catalogRepo: catalogRepo,
		cache:       c,
		featuredPct: featuredPct,
		countryPct:  countryPct,
		topN:        topN,
		expiry:      expiry,
	}
}

func (t *DealRefreshTask) Execute(ctx context.Context) (map[string]interface{}, error) {
	totalDeals := 0
	scopesFailed := 0

	ranked, err := t.refreshScope(ctx, "", t.featuredPct)
	if err != nil {
		return nil, err // global scope failing means the pass produced nothing useful
	}
	totalDeals += ranked

	countries, err := t.catalogRepo.ListCountries(ctx)
	if err != nil {
		return nil, err
	}

	for _, country := range countries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ranked, err := t.refreshScope(ctx, country.Code, t.countryPct)
		if err != nil {
			slog.Warn("Deal refresh failed for country", "country", country.Code, "error", err)
			scopesFailed++
			continue
		}
		totalDeals += ranked
	}

	slog.Info("Task completed", "type", string(t.Type),
		"deals_updated", totalDeals,
		"countries", len(countries),
		"scopes_failed", scopesFailed,
		"duration", t.GetDuration())

	return map[string]interface{}{
		"deals_updated":     totalDeals,
		"countries_updated": len(countries) - scopesFailed,
		"scopes_failed":     scopesFailed,
	}, nil
}

func (t *DealRefreshTask) refreshScope(ctx context.Context, countryCode string, minPct float64) (int, error) {
	ranked, err := t.engine.Refresh(ctx, deals.Params{
		CountryCode:   countryCode,
		MinSavingsPct: minPct,
		TopN:          t.topN,
		Expiry:        t.expiry,
	})
	if err != nil {
		return 0, err
	}

	if err := t.cache.InvalidateDeals(ctx, countryCode); err != nil {
		slog.Warn("Deal cache invalidation failed", "country", countryCode, "error", err)
	}

	return len(ranked), nil
}
