package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nkosyan/dealradar/app/database"
	"github.com/nkosyan/dealradar/app/ingest"
	"github.com/nkosyan/dealradar/app/sources"
)

// DiscoveryTask walks every category of every active country, pulls
// observations from the source, and feeds them through ingestion. A failing
// category/country combination is logged and counted, never fatal.
type DiscoveryTask struct {
	Task
	catalog     *sources.Catalog
	source      sources.Source
	ingester    *ingest.Ingester
	catalogRepo database.CatalogRepository
}

func NewDiscoveryTask(catalog *sources.Catalog, source sources.Source,
	ingester *ingest.Ingester, catalogRepo database.CatalogRepository) *DiscoveryTask {
	return &DiscoveryTask{
		Task:        NewTask(TaskTypeDiscovery, "Product Discovery"),
		catalog:     catalog,
		source:      source,
		ingester:    ingester,
		catalogRepo: catalogRepo,
	}
}

func (t *DiscoveryTask) Execute(ctx context.Context) (map[string]interface{}, error) {
	categoryIDs, err := t.syncCategories(ctx)
	if err != nil {
		return nil, err
	}

	var total ingest.Result
	combosFailed := 0

	for _, country := range t.catalog.Countries {
		for _, entry := range t.catalog.Categories {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			observations, err := t.source.Discover(ctx, entry, country)
			if err != nil {
				slog.Warn("Discovery failed",
					"category", entry.Category.Slug, "country", country.Code, "error", err)
				combosFailed++
				continue
			}

			result, err := t.ingester.Ingest(ctx, observations, categoryIDs)
			total.ProductsCreated += result.ProductsCreated
			total.PricesUpdated += result.PricesUpdated
			total.Failures += result.Failures
			if err != nil {
				return summary(total, combosFailed, len(t.catalog.Countries), len(t.catalog.Categories)), err
			}
		}
	}

	slog.Info("Task completed", "type", string(t.Type),
		"products_created", total.ProductsCreated,
		"prices_updated", total.PricesUpdated,
		"failures", total.Failures,
		"duration", t.GetDuration())

	return summary(total, combosFailed, len(t.catalog.Countries), len(t.catalog.Categories)), nil
}

func (t *DiscoveryTask) syncCategories(ctx context.Context) (map[string]string, error) {
	categoryIDs := make(map[string]string)
	for _, entry := range t.catalog.Categories {
		id, err := t.catalogRepo.UpsertCategory(ctx, entry.Category.Name, entry.Category.Slug, entry.Category.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to sync category %s: %w", entry.Category.Slug, err)
		}
		categoryIDs[entry.Category.Slug] = id
	}
	return categoryIDs, nil
}

func summary(r ingest.Result, combosFailed, countries, categories int) map[string]interface{} {
	return map[string]interface{}{
		"countries_processed":  countries,
		"categories_processed": categories,
		"products_created":     r.ProductsCreated,
		"prices_updated":       r.PricesUpdated,
		"observation_failures": r.Failures,
		"combos_failed":        combosFailed,
	}
}
