package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// CatalogRepositoryImpl handles the read-side catalog queries consumed by
// the storefront, plus the reference rows seeded from configuration.
type CatalogRepositoryImpl struct {
	db *DB
}

var _ CatalogRepository = (*CatalogRepositoryImpl)(nil)

func NewCatalogRepository(db *DB) *CatalogRepositoryImpl {
	return &CatalogRepositoryImpl{db: db}
}

func (r *CatalogRepositoryImpl) UpsertCountry(ctx context.Context, c Country) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO countries (code, name, currency, is_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			currency = EXCLUDED.currency,
			is_active = EXCLUDED.is_active
	`, c.Code, c.Name, c.Currency, c.IsActive)
	if err != nil {
		return fmt.Errorf("failed to upsert country: %w", err)
	}

	return nil
}

func (r *CatalogRepositoryImpl) UpsertCategory(ctx context.Context, name, slug, description string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description
		RETURNING id
	`, name, slug, description).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert category: %w", err)
	}

	return id, nil
}

func (r *CatalogRepositoryImpl) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, description, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

func (r *CatalogRepositoryImpl) ListCountries(ctx context.Context) ([]Country, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, name, currency, is_active, created_at
		FROM countries
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	var countries []Country
	for rows.Next() {
		var c Country
		if err := rows.Scan(&c.Code, &c.Name, &c.Currency, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}

	return countries, rows.Err()
}

// SearchProducts returns products matching the query (name, brand, or
// description, case-insensitive) together with their current prices from
// retailers linked to countryCode. Products without any price in the
// country are omitted.
func (r *CatalogRepositoryImpl) SearchProducts(ctx context.Context, query, countryCode, categoryID string, limit int) ([]ProductWithPrices, error) {
	sqlQuery := `
		SELECT p.id, p.name, p.brand, p.model, p.description, p.category_id, p.image_url,
		       p.specifications, p.created_at, p.updated_at,
		       pr.id, pr.product_id, pr.retailer_id, pr.price, pr.currency, pr.product_url,
		       pr.availability, pr.last_checked, pr.created_at,
		       ret.name, ret.logo_url
		FROM products p
		JOIN prices pr ON pr.product_id = p.id
		JOIN retailers ret ON ret.id = pr.retailer_id AND ret.is_active
		JOIN retailer_countries rc ON rc.retailer_id = pr.retailer_id AND rc.country_code = $1
		WHERE 1=1
	`
	args := []interface{}{countryCode}

	if query != "" {
		args = append(args, "%"+query+"%")
		n := len(args)
		sqlQuery += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.brand ILIKE $%d OR p.description ILIKE $%d)", n, n, n)
	}
	if categoryID != "" {
		args = append(args, categoryID)
		sqlQuery += fmt.Sprintf(" AND p.category_id = $%d", len(args))
	}

	args = append(args, limit)
	sqlQuery += fmt.Sprintf(" ORDER BY p.name, pr.price LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*ProductWithPrices)
	var order []string

	for rows.Next() {
		var p Product
		var pr PriceWithRetailer
		var specsJSON []byte

		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Model, &p.Description, &p.CategoryID,
			&p.ImageURL, &specsJSON, &p.CreatedAt, &p.UpdatedAt,
			&pr.ID, &pr.ProductID, &pr.RetailerID, &pr.Price.Price, &pr.Currency, &pr.ProductURL,
			&pr.Availability, &pr.LastChecked, &pr.Price.CreatedAt,
			&pr.RetailerName, &pr.RetailerLogo); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}

		existing, ok := byID[p.ID]
		if !ok {
			if err := json.Unmarshal(specsJSON, &p.Specifications); err != nil {
				return nil, fmt.Errorf("failed to unmarshal specifications: %w", err)
			}
			existing = &ProductWithPrices{Product: p}
			byID[p.ID] = existing
			order = append(order, p.ID)
		}
		existing.Prices = append(existing.Prices, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	products := make([]ProductWithPrices, 0, len(order))
	for _, id := range order {
		products = append(products, *byID[id])
	}

	return products, nil
}
