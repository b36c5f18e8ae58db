package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/currency"

	"github.com/nkosyan/dealradar/app/database"
	"github.com/nkosyan/dealradar/app/sources"
)

// Result summarizes one ingestion batch.
type Result struct {
	ProductsCreated int
	PricesUpdated   int
	Failures        int
}

// Ingester applies price observations to the catalog store. One failing
// observation is counted and skipped; the batch always runs to the end.
type Ingester struct {
	productRepo  database.ProductRepository
	retailerRepo database.RetailerRepository
	priceRepo    database.PriceRepository
	source       string // provenance tag for the discovery log
}

func NewIngester(productRepo database.ProductRepository, retailerRepo database.RetailerRepository,
	priceRepo database.PriceRepository, source string) *Ingester {
	return &Ingester{
		productRepo:  productRepo,
		retailerRepo: retailerRepo,
		priceRepo:    priceRepo,
		source:       source,
	}
}

// Ingest processes a batch of observations. categoryIDs maps category slugs
// to their database ids.
func (i *Ingester) Ingest(ctx context.Context, observations []sources.Observation, categoryIDs map[string]string) (Result, error) {
	var result Result

	// retailer ids resolved once per batch
	retailerIDs := make(map[string]string)

	for _, obs := range observations {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if err := i.ingestOne(ctx, obs, categoryIDs, retailerIDs, &result); err != nil {
			slog.Warn("Observation ingest failed",
				"product", obs.ProductName, "retailer", obs.RetailerName, "error", err)
			result.Failures++
		}
	}

	return result, nil
}

func (i *Ingester) ingestOne(ctx context.Context, obs sources.Observation,
	categoryIDs, retailerIDs map[string]string, result *Result) error {

	if obs.Price <= 0 {
		return fmt.Errorf("non-positive price %.2f", obs.Price)
	}

	unit, err := currency.ParseISO(obs.Currency)
	if err != nil {
		return fmt.Errorf("invalid currency code %q: %w", obs.Currency, err)
	}
	code := unit.String()

	productID, created, err := i.resolveProduct(ctx, obs, categoryIDs)
	if err != nil {
		return err
	}
	if created {
		result.ProductsCreated++
	}

	retailerID, err := i.resolveRetailer(ctx, obs, retailerIDs)
	if err != nil {
		return err
	}

	// Archive the prior value before it is overwritten. Skipping this step
	// would lose the point the trend computation depends on.
	current, err := i.priceRepo.GetPrice(ctx, productID, retailerID)
	if err != nil {
		return err
	}
	if current != nil {
		entry := archiveEntry(current, obs.Price)
		if err := i.priceRepo.InsertHistory(ctx, entry); err != nil {
			return err
		}
	}

	if err := i.priceRepo.UpsertPrice(ctx, database.Price{
		ProductID:    productID,
		RetailerID:   retailerID,
		Price:        obs.Price,
		Currency:     code,
		ProductURL:   obs.ProductURL,
		Availability: obs.Availability,
		LastChecked:  time.Now().UTC(),
	}); err != nil {
		return err
	}

	result.PricesUpdated++
	return nil
}

func (i *Ingester) resolveProduct(ctx context.Context, obs sources.Observation, categoryIDs map[string]string) (string, bool, error) {
	product, err := i.productRepo.GetProductByNameBrand(ctx, obs.ProductName, obs.Brand)
	if err != nil {
		return "", false, err
	}

	if product != nil {
		if err := i.productRepo.UpdateProductDetails(ctx, product.ID, obs.Description, obs.Specifications); err != nil {
			return "", false, err
		}
		return product.ID, false, nil
	}

	var categoryID *string
	if id, ok := categoryIDs[obs.CategorySlug]; ok {
		categoryID = &id
	}

	productID, err := i.productRepo.CreateProduct(ctx, &database.Product{
		Name:           obs.ProductName,
		Brand:          obs.Brand,
		Model:          obs.Model,
		Description:    obs.Description,
		CategoryID:     categoryID,
		ImageURL:       obs.ImageURL,
		Specifications: obs.Specifications,
	})
	if err != nil {
		return "", false, err
	}

	if err := i.productRepo.LogDiscovery(ctx, productID, i.source, obs.CountryCode, obs.Price, map[string]interface{}{
		"retailer": obs.RetailerName,
		"category": obs.CategorySlug,
	}); err != nil {
		// provenance only, the product itself is already stored
		slog.Warn("Discovery log write failed", "product", obs.ProductName, "error", err)
	}

	return productID, true, nil
}

func (i *Ingester) resolveRetailer(ctx context.Context, obs sources.Observation, retailerIDs map[string]string) (string, error) {
	if id, ok := retailerIDs[obs.RetailerName]; ok {
		if err := i.retailerRepo.LinkRetailerCountry(ctx, id, obs.CountryCode, obs.RetailerURL); err != nil {
			return "", err
		}
		return id, nil
	}

	retailer, err := i.retailerRepo.GetRetailerByName(ctx, obs.RetailerName)
	if err != nil {
		return "", err
	}

	var id string
	if retailer != nil {
		id = retailer.ID
	} else {
		id, err = i.retailerRepo.CreateRetailer(ctx, obs.RetailerName, obs.RetailerURL)
		if err != nil {
			return "", err
		}
	}

	if err := i.retailerRepo.LinkRetailerCountry(ctx, id, obs.CountryCode, obs.RetailerURL); err != nil {
		return "", err
	}

	retailerIDs[obs.RetailerName] = id
	return id, nil
}

// archiveEntry builds the history row for a price about to be overwritten.
// The change percent is computed against the incoming price so the archived
// point records how the series moved away from it.
func archiveEntry(current *database.Price, newPrice float64) database.PriceHistoryEntry {
	entry := database.PriceHistoryEntry{
		ProductID:  current.ProductID,
		RetailerID: current.RetailerID,
		Price:      current.Price,
		Currency:   current.Currency,
		RecordedAt: time.Now().UTC(),
	}

	if current.Price > 0 {
		change := (newPrice - current.Price) / current.Price * 100
		change = round2(change)
		entry.PriceChangePercent = &change

		score := 5 + change*-0.5
		if score < 0 {
			score = 0
		}
		if score > 10 {
			score = 10
		}
		score = round2(score)
		entry.DealScore = &score
		entry.IsDeal = change < -10 || change > 10
	}

	return entry
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
