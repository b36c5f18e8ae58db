package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nkosyan/dealradar/app/database"
	"github.com/nkosyan/dealradar/app/sources"
)

// MockProductRepository implements a simple mock for testing
type MockProductRepository struct {
	products      map[string]*database.Product // keyed by name+brand
	nextID        int
	created       []*database.Product
	updated       []string
	discoveryLogs int
	createErr     error
}

var _ database.ProductRepository = (*MockProductRepository)(nil)

func newMockProductRepo() *MockProductRepository {
	return &MockProductRepository{products: make(map[string]*database.Product)}
}

func productKey(name, brand string) string {
	return name + "/" + brand
}

func (m *MockProductRepository) GetProductByNameBrand(ctx context.Context, name, brand string) (*database.Product, error) {
	return m.products[productKey(name, brand)], nil
}

func (m *MockProductRepository) CreateProduct(ctx context.Context, p *database.Product) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	id := fmt.Sprintf("prod-%d", m.nextID)
	p.ID = id
	m.products[productKey(p.Name, p.Brand)] = p
	m.created = append(m.created, p)
	return id, nil
}

func (m *MockProductRepository) UpdateProductDetails(ctx context.Context, id, description string, specifications map[string]interface{}) error {
	m.updated = append(m.updated, id)
	return nil
}

func (m *MockProductRepository) LogDiscovery(ctx context.Context, productID, source, countryCode string, initialPrice float64, metadata map[string]interface{}) error {
	m.discoveryLogs++
	return nil
}

// MockRetailerRepository implements a simple mock for testing
type MockRetailerRepository struct {
	retailers map[string]string // name -> id
	nextID    int
	created   []string
	links     []string // "retailerID/countryCode"
}

var _ database.RetailerRepository = (*MockRetailerRepository)(nil)

func newMockRetailerRepo() *MockRetailerRepository {
	return &MockRetailerRepository{retailers: make(map[string]string)}
}

func (m *MockRetailerRepository) GetRetailerByName(ctx context.Context, name string) (*database.Retailer, error) {
	if id, ok := m.retailers[name]; ok {
		return &database.Retailer{ID: id, Name: name}, nil
	}
	return nil, nil
}

func (m *MockRetailerRepository) CreateRetailer(ctx context.Context, name, websiteURL string) (string, error) {
	m.nextID++
	id := fmt.Sprintf("ret-%d", m.nextID)
	m.retailers[name] = id
	m.created = append(m.created, name)
	return id, nil
}

func (m *MockRetailerRepository) LinkRetailerCountry(ctx context.Context, retailerID, countryCode, websiteURL string) error {
	m.links = append(m.links, retailerID+"/"+countryCode)
	return nil
}

// MockPriceRepository implements a simple mock for testing, recording the
// order of archive and upsert calls.
type MockPriceRepository struct {
	current    map[string]*database.Price // "productID/retailerID"
	callOrder  []string
	archived   []database.PriceHistoryEntry
	upserted   []database.Price
	historyErr error
}

var _ database.PriceRepository = (*MockPriceRepository)(nil)

func newMockPriceRepo() *MockPriceRepository {
	return &MockPriceRepository{current: make(map[string]*database.Price)}
}

func priceKey(productID, retailerID string) string {
	return productID + "/" + retailerID
}

func (m *MockPriceRepository) GetPrice(ctx context.Context, productID, retailerID string) (*database.Price, error) {
	return m.current[priceKey(productID, retailerID)], nil
}

func (m *MockPriceRepository) UpsertPrice(ctx context.Context, p database.Price) error {
	m.callOrder = append(m.callOrder, "upsert")
	m.upserted = append(m.upserted, p)
	m.current[priceKey(p.ProductID, p.RetailerID)] = &p
	return nil
}

func (m *MockPriceRepository) InsertHistory(ctx context.Context, e database.PriceHistoryEntry) error {
	if m.historyErr != nil {
		return m.historyErr
	}
	m.callOrder = append(m.callOrder, "archive")
	m.archived = append(m.archived, e)
	return nil
}

func (m *MockPriceRepository) InsertHistoryBatch(ctx context.Context, entries []database.PriceHistoryEntry) error {
	return nil
}

func (m *MockPriceRepository) CountHistoryPoints(ctx context.Context, productID, retailerID string) (int, error) {
	return 0, nil
}

func (m *MockPriceRepository) GetCurrentPairs(ctx context.Context, limit int) ([]database.PricePair, error) {
	return nil, nil
}

func (m *MockPriceRepository) PruneHistory(ctx context.Context, olderThan time.Time) (int64, error) {
	return 0, nil
}

func (m *MockPriceRepository) GetDailyHistory(ctx context.Context, productID, countryCode string, days int) ([]database.DailyPricePoint, error) {
	return nil, nil
}

func testObservation() sources.Observation {
	return sources.Observation{
		ProductName:  "Galaxy S25 Ultra",
		Brand:        "Samsung",
		Model:        "SM-S938",
		CategorySlug: "smartphones",
		RetailerName: "Amazon",
		RetailerURL:  "https://www.amazon.com",
		CountryCode:  "US",
		Price:        1199.99,
		Currency:     "USD",
		ProductURL:   "https://www.amazon.com/galaxy-s25-ultra",
		Availability: "in_stock",
	}
}

func newTestIngester(productRepo *MockProductRepository, retailerRepo *MockRetailerRepository,
	priceRepo *MockPriceRepository) *Ingester {
	return NewIngester(productRepo, retailerRepo, priceRepo, "test_discovery")
}

func TestIngestCreatesNewProductAndRetailer(t *testing.T) {
	productRepo := newMockProductRepo()
	retailerRepo := newMockRetailerRepo()
	priceRepo := newMockPriceRepo()
	ing := newTestIngester(productRepo, retailerRepo, priceRepo)

	result, err := ing.Ingest(context.Background(), []sources.Observation{testObservation()},
		map[string]string{"smartphones": "cat-1"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.ProductsCreated != 1 {
		t.Errorf("Expected 1 product created, got %d", result.ProductsCreated)
	}
	if result.PricesUpdated != 1 {
		t.Errorf("Expected 1 price updated, got %d", result.PricesUpdated)
	}
	if result.Failures != 0 {
		t.Errorf("Expected no failures, got %d", result.Failures)
	}

	if len(productRepo.created) != 1 {
		t.Fatalf("Expected 1 created product, got %d", len(productRepo.created))
	}
	if productRepo.created[0].CategoryID == nil || *productRepo.created[0].CategoryID != "cat-1" {
		t.Error("Expected category id 'cat-1' on the created product")
	}
	if productRepo.discoveryLogs != 1 {
		t.Errorf("Expected 1 discovery log entry, got %d", productRepo.discoveryLogs)
	}

	if len(retailerRepo.created) != 1 || retailerRepo.created[0] != "Amazon" {
		t.Errorf("Expected retailer 'Amazon' to be created, got %v", retailerRepo.created)
	}
	if len(retailerRepo.links) != 1 {
		t.Errorf("Expected 1 retailer-country link, got %d", len(retailerRepo.links))
	}
}

func TestIngestExistingProductUpdatesDetails(t *testing.T) {
	productRepo := newMockProductRepo()
	productRepo.products[productKey("Galaxy S25 Ultra", "Samsung")] = &database.Product{
		ID: "prod-existing", Name: "Galaxy S25 Ultra", Brand: "Samsung",
	}
	retailerRepo := newMockRetailerRepo()
	priceRepo := newMockPriceRepo()
	ing := newTestIngester(productRepo, retailerRepo, priceRepo)

	result, err := ing.Ingest(context.Background(), []sources.Observation{testObservation()}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.ProductsCreated != 0 {
		t.Errorf("Expected no products created, got %d", result.ProductsCreated)
	}
	if len(productRepo.updated) != 1 || productRepo.updated[0] != "prod-existing" {
		t.Errorf("Expected details update for 'prod-existing', got %v", productRepo.updated)
	}
	if productRepo.discoveryLogs != 0 {
		t.Errorf("Expected no discovery log for an existing product, got %d", productRepo.discoveryLogs)
	}
}

func TestIngestArchivesBeforeOverwrite(t *testing.T) {
	productRepo := newMockProductRepo()
	productRepo.products[productKey("Galaxy S25 Ultra", "Samsung")] = &database.Product{
		ID: "prod-1", Name: "Galaxy S25 Ultra", Brand: "Samsung",
	}
	retailerRepo := newMockRetailerRepo()
	retailerRepo.retailers["Amazon"] = "ret-1"
	priceRepo := newMockPriceRepo()
	priceRepo.current[priceKey("prod-1", "ret-1")] = &database.Price{
		ProductID: "prod-1", RetailerID: "ret-1", Price: 1000.0, Currency: "USD",
	}
	ing := newTestIngester(productRepo, retailerRepo, priceRepo)

	obs := testObservation()
	obs.Price = 900.0

	result, err := ing.Ingest(context.Background(), []sources.Observation{obs}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.PricesUpdated != 1 {
		t.Fatalf("Expected 1 price updated, got %d", result.PricesUpdated)
	}

	if len(priceRepo.callOrder) != 2 {
		t.Fatalf("Expected 2 price repo calls, got %v", priceRepo.callOrder)
	}
	if priceRepo.callOrder[0] != "archive" || priceRepo.callOrder[1] != "upsert" {
		t.Errorf("Expected archive before upsert, got %v", priceRepo.callOrder)
	}

	archived := priceRepo.archived[0]
	if archived.Price != 1000.0 {
		t.Errorf("Expected the prior price 1000.0 archived, got %f", archived.Price)
	}
	if archived.PriceChangePercent == nil {
		t.Fatal("Expected change percent on the archived entry")
	}
	// (900-1000)/1000*100 = -10%
	if *archived.PriceChangePercent != -10.0 {
		t.Errorf("Expected change percent -10.0, got %f", *archived.PriceChangePercent)
	}
	if archived.DealScore == nil {
		t.Fatal("Expected deal score on the archived entry")
	}
	// 5 + (-10 * -0.5) = 10
	if *archived.DealScore != 10.0 {
		t.Errorf("Expected deal score 10.0, got %f", *archived.DealScore)
	}
	// -10% is at the boundary, not beyond it
	if archived.IsDeal {
		t.Error("Expected is_deal false at exactly -10%")
	}

	if priceRepo.upserted[0].Price != 900.0 {
		t.Errorf("Expected upserted price 900.0, got %f", priceRepo.upserted[0].Price)
	}
}

func TestIngestFirstObservationSkipsArchive(t *testing.T) {
	productRepo := newMockProductRepo()
	retailerRepo := newMockRetailerRepo()
	priceRepo := newMockPriceRepo()
	ing := newTestIngester(productRepo, retailerRepo, priceRepo)

	if _, err := ing.Ingest(context.Background(), []sources.Observation{testObservation()}, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(priceRepo.archived) != 0 {
		t.Errorf("Expected no archive entry for a first observation, got %d", len(priceRepo.archived))
	}
	if len(priceRepo.upserted) != 1 {
		t.Errorf("Expected 1 upsert, got %d", len(priceRepo.upserted))
	}
}

func TestIngestRejectsInvalidObservations(t *testing.T) {
	productRepo := newMockProductRepo()
	retailerRepo := newMockRetailerRepo()
	priceRepo := newMockPriceRepo()
	ing := newTestIngester(productRepo, retailerRepo, priceRepo)

	badPrice := testObservation()
	badPrice.Price = 0

	badCurrency := testObservation()
	badCurrency.Currency = "XYZ123"

	good := testObservation()

	result, err := ing.Ingest(context.Background(),
		[]sources.Observation{badPrice, badCurrency, good}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Failures != 2 {
		t.Errorf("Expected 2 failures, got %d", result.Failures)
	}
	if result.PricesUpdated != 1 {
		t.Errorf("Expected the valid observation to be ingested, got %d updates", result.PricesUpdated)
	}
}

func TestIngestContinuesAfterProductError(t *testing.T) {
	productRepo := newMockProductRepo()
	productRepo.createErr = errors.New("mock create failure")
	retailerRepo := newMockRetailerRepo()
	priceRepo := newMockPriceRepo()
	ing := newTestIngester(productRepo, retailerRepo, priceRepo)

	result, err := ing.Ingest(context.Background(),
		[]sources.Observation{testObservation(), testObservation()}, nil)
	if err != nil {
		t.Fatalf("Expected per-observation errors to be absorbed, got: %v", err)
	}

	if result.Failures != 2 {
		t.Errorf("Expected 2 failures, got %d", result.Failures)
	}
	if result.PricesUpdated != 0 {
		t.Errorf("Expected no price updates, got %d", result.PricesUpdated)
	}
}

func TestIngestResolvesRetailerOncePerBatch(t *testing.T) {
	productRepo := newMockProductRepo()
	retailerRepo := newMockRetailerRepo()
	priceRepo := newMockPriceRepo()
	ing := newTestIngester(productRepo, retailerRepo, priceRepo)

	first := testObservation()
	second := testObservation()
	second.ProductName = "Galaxy A56"

	if _, err := ing.Ingest(context.Background(), []sources.Observation{first, second}, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(retailerRepo.created) != 1 {
		t.Errorf("Expected the retailer to be created once, got %d creations", len(retailerRepo.created))
	}
}
