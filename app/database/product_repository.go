package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ProductRepositoryImpl handles database operations for products
type ProductRepositoryImpl struct {
	db *DB
}

var _ ProductRepository = (*ProductRepositoryImpl)(nil)

func NewProductRepository(db *DB) *ProductRepositoryImpl {
	return &ProductRepositoryImpl{db: db}
}

// GetProductByNameBrand looks up a product by exact (name, brand) match.
// Returns nil without error when no product matches.
func (r *ProductRepositoryImpl) GetProductByNameBrand(ctx context.Context, name, brand string) (*Product, error) {
	var p Product
	var specsJSON []byte

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, brand, model, description, category_id, image_url, specifications, created_at, updated_at
		FROM products
		WHERE name = $1 AND brand = $2
	`, name, brand).Scan(&p.ID, &p.Name, &p.Brand, &p.Model, &p.Description,
		&p.CategoryID, &p.ImageURL, &specsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if err := json.Unmarshal(specsJSON, &p.Specifications); err != nil {
		return nil, fmt.Errorf("failed to unmarshal specifications: %w", err)
	}

	return &p, nil
}

func (r *ProductRepositoryImpl) CreateProduct(ctx context.Context, p *Product) (string, error) {
	specsJSON, err := json.Marshal(p.Specifications)
	if err != nil {
		return "", fmt.Errorf("failed to marshal specifications: %w", err)
	}

	var id string
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO products (name, brand, model, description, category_id, image_url, specifications)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, p.Name, p.Brand, p.Model, p.Description, p.CategoryID, p.ImageURL, specsJSON).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}

	return id, nil
}

// UpdateProductDetails refreshes the description and specifications of an
// existing product. Ingestion is the only caller.
func (r *ProductRepositoryImpl) UpdateProductDetails(ctx context.Context, id, description string, specifications map[string]interface{}) error {
	specsJSON, err := json.Marshal(specifications)
	if err != nil {
		return fmt.Errorf("failed to marshal specifications: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE products
		SET description = $2, specifications = $3, updated_at = NOW()
		WHERE id = $1
	`, id, description, specsJSON)
	if err != nil {
		return fmt.Errorf("failed to update product details: %w", err)
	}

	return nil
}

func (r *ProductRepositoryImpl) LogDiscovery(ctx context.Context, productID, source, countryCode string, initialPrice float64, metadata map[string]interface{}) error {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO product_discovery_log (product_id, source, country_code, initial_price, metadata)
		VALUES ($1, $2, $3, $4, $5)
	`, productID, source, countryCode, initialPrice, metaJSON)
	if err != nil {
		return fmt.Errorf("failed to log product discovery: %w", err)
	}

	return nil
}
