package database

import (
	"context"
	"database/sql"
	"fmt"
)

// RetailerRepositoryImpl handles database operations for retailers
type RetailerRepositoryImpl struct {
	db *DB
}

var _ RetailerRepository = (*RetailerRepositoryImpl)(nil)

func NewRetailerRepository(db *DB) *RetailerRepositoryImpl {
	return &RetailerRepositoryImpl{db: db}
}

func (r *RetailerRepositoryImpl) GetRetailerByName(ctx context.Context, name string) (*Retailer, error) {
	var ret Retailer

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, website_url, logo_url, is_active, created_at
		FROM retailers
		WHERE name = $1
	`, name).Scan(&ret.ID, &ret.Name, &ret.WebsiteURL, &ret.LogoURL, &ret.IsActive, &ret.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retailer: %w", err)
	}

	return &ret, nil
}

func (r *RetailerRepositoryImpl) CreateRetailer(ctx context.Context, name, websiteURL string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO retailers (name, website_url, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (name) DO UPDATE SET website_url = EXCLUDED.website_url
		RETURNING id
	`, name, websiteURL).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create retailer: %w", err)
	}

	return id, nil
}

func (r *RetailerRepositoryImpl) LinkRetailerCountry(ctx context.Context, retailerID, countryCode, websiteURL string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO retailer_countries (retailer_id, country_code, website_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (retailer_id, country_code) DO NOTHING
	`, retailerID, countryCode, websiteURL)
	if err != nil {
		return fmt.Errorf("failed to link retailer to country: %w", err)
	}

	return nil
}
