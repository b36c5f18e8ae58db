package history

import (
	"context"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"time"

	"github.com/nkosyan/dealradar/app/database"
)

const historyBatchSize = 50

// Backfiller fills empty price history series with synthetic data so trend
// charts and deal scores have something to work with before real
// observations accumulate.
type Backfiller struct {
	priceRepo  database.PriceRepository
	cfg        SynthConfig
	skipPoints int
	seed       int64
}

// Result summarizes one backfill pass.
type Result struct {
	PairsProcessed int
	PairsSkipped   int
	PointsWritten  int
	BatchesFailed  int
}

func NewBackfiller(priceRepo database.PriceRepository, cfg SynthConfig, skipPoints int, seed int64) *Backfiller {
	return &Backfiller{
		priceRepo:  priceRepo,
		cfg:        cfg,
		skipPoints: skipPoints,
		seed:       seed,
	}
}

// BackfillPair synthesizes history for a single (product, retailer) pair.
// A pair that already has more than skipPoints entries is left alone, which
// makes repeated runs no-ops.
func (b *Backfiller) BackfillPair(ctx context.Context, pair database.PricePair) (int, error) {
	count, err := b.priceRepo.CountHistoryPoints(ctx, pair.ProductID, pair.RetailerID)
	if err != nil {
		return 0, err
	}
	if count > b.skipPoints {
		return 0, nil
	}

	rng := rand.New(rand.NewSource(b.seed ^ pairSeed(pair.ProductID, pair.RetailerID)))
	entries := Synthesize(pair, b.cfg, time.Now(), rng)

	written := 0
	for start := 0; start < len(entries); start += historyBatchSize {
		end := start + historyBatchSize
		if end > len(entries) {
			end = len(entries)
		}

		if err := b.priceRepo.InsertHistoryBatch(ctx, entries[start:end]); err != nil {
			// an isolated batch failure leaves a gap, not a broken series
			slog.Warn("History batch insert failed",
				"product_id", pair.ProductID, "retailer_id", pair.RetailerID, "error", err)
			continue
		}
		written += end - start
	}

	return written, nil
}

// Run backfills every current (product, retailer) pair, bounded by limit.
func (b *Backfiller) Run(ctx context.Context, limit int) (Result, error) {
	var result Result

	pairs, err := b.priceRepo.GetCurrentPairs(ctx, limit)
	if err != nil {
		return result, err
	}

	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		written, err := b.BackfillPair(ctx, pair)
		if err != nil {
			slog.Warn("Backfill failed for pair",
				"product_id", pair.ProductID, "retailer_id", pair.RetailerID, "error", err)
			result.BatchesFailed++
			continue
		}

		if written == 0 {
			result.PairsSkipped++
		} else {
			result.PairsProcessed++
			result.PointsWritten += written
		}
	}

	return result, nil
}

func pairSeed(productID, retailerID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(productID))
	h.Write([]byte{0})
	h.Write([]byte(retailerID))
	return int64(h.Sum64())
}
