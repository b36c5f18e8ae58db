package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PriceRepositoryImpl handles database operations for current prices and
// the price history time series.
type PriceRepositoryImpl struct {
	db *DB
}

var _ PriceRepository = (*PriceRepositoryImpl)(nil)

func NewPriceRepository(db *DB) *PriceRepositoryImpl {
	return &PriceRepositoryImpl{db: db}
}

func (r *PriceRepositoryImpl) GetPrice(ctx context.Context, productID, retailerID string) (*Price, error) {
	var p Price

	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, retailer_id, price, currency, product_url, availability, last_checked, created_at
		FROM prices
		WHERE product_id = $1 AND retailer_id = $2
	`, productID, retailerID).Scan(&p.ID, &p.ProductID, &p.RetailerID, &p.Price, &p.Currency,
		&p.ProductURL, &p.Availability, &p.LastChecked, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price: %w", err)
	}

	return &p, nil
}

// UpsertPrice inserts or replaces the current price row for the
// (product, retailer) pair. Callers must archive the prior value first.
func (r *PriceRepositoryImpl) UpsertPrice(ctx context.Context, p Price) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prices (product_id, retailer_id, price, currency, product_url, availability, last_checked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id, retailer_id) DO UPDATE SET
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			product_url = EXCLUDED.product_url,
			availability = EXCLUDED.availability,
			last_checked = EXCLUDED.last_checked
	`, p.ProductID, p.RetailerID, p.Price, p.Currency, p.ProductURL, p.Availability, p.LastChecked)
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}

	return nil
}

func (r *PriceRepositoryImpl) InsertHistory(ctx context.Context, e PriceHistoryEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO price_history (product_id, retailer_id, price, currency, price_change_percent, deal_score, is_deal, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ProductID, e.RetailerID, e.Price, e.Currency, e.PriceChangePercent, e.DealScore, e.IsDeal, e.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	return nil
}

// InsertHistoryBatch writes a batch of history points in one transaction.
func (r *PriceRepositoryImpl) InsertHistoryBatch(ctx context.Context, entries []PriceHistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_history (product_id, retailer_id, price, currency, price_change_percent, deal_score, is_deal, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ProductID, e.RetailerID, e.Price, e.Currency,
			e.PriceChangePercent, e.DealScore, e.IsDeal, e.RecordedAt); err != nil {
			return fmt.Errorf("failed to insert history batch entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history batch: %w", err)
	}

	return nil
}

func (r *PriceRepositoryImpl) CountHistoryPoints(ctx context.Context, productID, retailerID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM price_history
		WHERE product_id = $1 AND retailer_id = $2
	`, productID, retailerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count history points: %w", err)
	}

	return count, nil
}

// GetCurrentPairs lists (product, retailer) pairs that have a current price,
// joined to active retailers only. Used by the backfill task.
func (r *PriceRepositoryImpl) GetCurrentPairs(ctx context.Context, limit int) ([]PricePair, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.product_id, p.retailer_id, p.price, p.currency
		FROM prices p
		JOIN retailers r ON r.id = p.retailer_id AND r.is_active
		ORDER BY p.created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list current pairs: %w", err)
	}
	defer rows.Close()

	var pairs []PricePair
	for rows.Next() {
		var pair PricePair
		if err := rows.Scan(&pair.ProductID, &pair.RetailerID, &pair.CurrentPrice, &pair.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan price pair: %w", err)
		}
		pairs = append(pairs, pair)
	}

	return pairs, rows.Err()
}

func (r *PriceRepositoryImpl) PruneHistory(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM price_history WHERE recorded_at < $1
	`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	return res.RowsAffected()
}

// GetDailyHistory groups a product's history by calendar day and aggregates
// min/max/avg price with the distinct retailer count, scoped to the
// retailers linked to countryCode. Ascending by day.
func (r *PriceRepositoryImpl) GetDailyHistory(ctx context.Context, productID, countryCode string, days int) ([]DailyPricePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('day', ph.recorded_at) AS day,
		       MIN(ph.price), MAX(ph.price), AVG(ph.price),
		       COUNT(DISTINCT ph.retailer_id)
		FROM price_history ph
		JOIN retailer_countries rc ON rc.retailer_id = ph.retailer_id AND rc.country_code = $2
		WHERE ph.product_id = $1
		  AND ph.recorded_at >= NOW() - ($3::text || ' days')::interval
		GROUP BY day
		ORDER BY day
	`, productID, countryCode, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily history: %w", err)
	}
	defer rows.Close()

	var points []DailyPricePoint
	for rows.Next() {
		var p DailyPricePoint
		if err := rows.Scan(&p.Date, &p.MinPrice, &p.MaxPrice, &p.AvgPrice, &p.RetailerCount); err != nil {
			return nil, fmt.Errorf("failed to scan daily history point: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}
