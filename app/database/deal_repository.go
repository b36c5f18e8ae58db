package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// DealRepositoryImpl handles database operations for featured deals
type DealRepositoryImpl struct {
	db *DB
}

var _ DealRepository = (*DealRepositoryImpl)(nil)

func NewDealRepository(db *DB) *DealRepositoryImpl {
	return &DealRepositoryImpl{db: db}
}

// GetAggregationPrices returns every usable current price for deal
// computation: positive, in stock, active retailer. When countryCode is
// non-empty the retailer must also be linked to that country.
func (r *DealRepositoryImpl) GetAggregationPrices(ctx context.Context, countryCode string) ([]AggregationPrice, error) {
	query := `
		SELECT p.product_id, p.price
		FROM prices p
		JOIN retailers ret ON ret.id = p.retailer_id AND ret.is_active
		WHERE p.availability = 'in_stock' AND p.price > 0
	`
	args := []interface{}{}
	if countryCode != "" {
		query += ` AND EXISTS (
			SELECT 1 FROM retailer_countries rc
			WHERE rc.retailer_id = p.retailer_id AND rc.country_code = $1
		)`
		args = append(args, countryCode)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregation prices: %w", err)
	}
	defer rows.Close()

	var prices []AggregationPrice
	for rows.Next() {
		var p AggregationPrice
		if err := rows.Scan(&p.ProductID, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan aggregation price: %w", err)
		}
		prices = append(prices, p)
	}

	return prices, rows.Err()
}

// ReplaceDeals swaps the featured deals for one scope in a single
// transaction: delete everything in the scope, then insert the new set.
func (r *DealRepositoryImpl) ReplaceDeals(ctx context.Context, countryCode string, deals []FeaturedDeal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM featured_deals WHERE country_code = $1`, countryCode); err != nil {
		return fmt.Errorf("failed to clear featured deals: %w", err)
	}

	for _, d := range deals {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO featured_deals (product_id, country_code, savings_amount, savings_percentage,
				lowest_price, highest_price, deal_rank, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, d.ProductID, countryCode, d.SavingsAmount, d.SavingsPercentage,
			d.LowestPrice, d.HighestPrice, d.DealRank, d.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to insert featured deal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit deal replacement: %w", err)
	}

	return nil
}

func (r *DealRepositoryImpl) GetFeaturedDeals(ctx context.Context, countryCode string) ([]DealWithProduct, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.product_id, d.country_code, d.savings_amount, d.savings_percentage,
		       d.lowest_price, d.highest_price, d.deal_rank, d.expires_at, d.created_at,
		       p.id, p.name, p.brand, p.model, p.description, p.category_id, p.image_url,
		       p.specifications, p.created_at, p.updated_at
		FROM featured_deals d
		JOIN products p ON p.id = d.product_id
		WHERE d.country_code = $1
		ORDER BY d.deal_rank
	`, countryCode)
	if err != nil {
		return nil, fmt.Errorf("failed to query featured deals: %w", err)
	}
	defer rows.Close()

	var deals []DealWithProduct
	for rows.Next() {
		var d DealWithProduct
		var specsJSON []byte
		if err := rows.Scan(&d.ID, &d.ProductID, &d.CountryCode, &d.SavingsAmount, &d.SavingsPercentage,
			&d.LowestPrice, &d.HighestPrice, &d.DealRank, &d.ExpiresAt, &d.CreatedAt,
			&d.Product.ID, &d.Product.Name, &d.Product.Brand, &d.Product.Model, &d.Product.Description,
			&d.Product.CategoryID, &d.Product.ImageURL, &specsJSON,
			&d.Product.CreatedAt, &d.Product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan featured deal: %w", err)
		}
		if err := json.Unmarshal(specsJSON, &d.Product.Specifications); err != nil {
			return nil, fmt.Errorf("failed to unmarshal specifications: %w", err)
		}
		deals = append(deals, d)
	}

	return deals, rows.Err()
}
