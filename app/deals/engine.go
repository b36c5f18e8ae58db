package deals

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/nkosyan/dealradar/app/database"
)

// nearTieTolerance is the percentage-point band inside which two deals are
// considered equivalent and ranked by absolute savings instead. Keeps ranks
// stable against floating-point noise between near-identical deals.
const nearTieTolerance = 1.0

// Deal is one computed cross-retailer savings record, before persistence.
type Deal struct {
	ProductID         string  `json:"product_id"`
	SavingsAmount     float64 `json:"savings_amount"`
	SavingsPercentage float64 `json:"savings_percentage"`
	LowestPrice       float64 `json:"lowest_price"`
	HighestPrice      float64 `json:"highest_price"`
	DealRank          int     `json:"deal_rank"`
}

// Params controls one aggregation pass.
type Params struct {
	CountryCode   string // empty string computes the global scope
	MinSavingsPct float64
	TopN          int
	Expiry        time.Duration
}

// Engine computes savings per product and materializes the ranked top-N
// into the featured deals table, replacing the scope's prior contents.
type Engine struct {
	dealRepo database.DealRepository
}

func NewEngine(dealRepo database.DealRepository) *Engine {
	return &Engine{dealRepo: dealRepo}
}

// Compute ranks the current prices into at most TopN deals. Pure with
// respect to the prices slice; persistence happens in Refresh.
func Compute(prices []database.AggregationPrice, params Params) []Deal {
	byProduct := make(map[string][]float64)
	for _, p := range prices {
		byProduct[p.ProductID] = append(byProduct[p.ProductID], p.Price)
	}

	var candidates []Deal
	for productID, productPrices := range byProduct {
		if len(productPrices) < 2 {
			continue // nothing to compare
		}

		lowest, highest := productPrices[0], productPrices[0]
		for _, price := range productPrices[1:] {
			if price < lowest {
				lowest = price
			}
			if price > highest {
				highest = price
			}
		}

		// no spread means no deal, and guards the division below
		if highest <= 0 || lowest >= highest {
			continue
		}

		savings := highest - lowest
		pct := savings / highest * 100
		if pct < params.MinSavingsPct {
			continue
		}

		candidates = append(candidates, Deal{
			ProductID:         productID,
			SavingsAmount:     savings,
			SavingsPercentage: pct,
			LowestPrice:       lowest,
			HighestPrice:      highest,
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		da, db := candidates[a], candidates[b]
		if math.Abs(da.SavingsPercentage-db.SavingsPercentage) < nearTieTolerance {
			return da.SavingsAmount > db.SavingsAmount
		}
		return da.SavingsPercentage > db.SavingsPercentage
	})

	if params.TopN > 0 && len(candidates) > params.TopN {
		candidates = candidates[:params.TopN]
	}

	for i := range candidates {
		candidates[i].DealRank = i + 1
	}

	return candidates
}

// Refresh recomputes the scope's featured deals and swaps them in. An empty
// result still replaces the scope, clearing stale deals.
func (e *Engine) Refresh(ctx context.Context, params Params) ([]Deal, error) {
	prices, err := e.dealRepo.GetAggregationPrices(ctx, params.CountryCode)
	if err != nil {
		return nil, err
	}

	ranked := Compute(prices, params)

	expiresAt := time.Now().UTC().Add(params.Expiry)
	rows := make([]database.FeaturedDeal, len(ranked))
	for i, d := range ranked {
		rows[i] = database.FeaturedDeal{
			ProductID:         d.ProductID,
			CountryCode:       params.CountryCode,
			SavingsAmount:     d.SavingsAmount,
			SavingsPercentage: d.SavingsPercentage,
			LowestPrice:       d.LowestPrice,
			HighestPrice:      d.HighestPrice,
			DealRank:          d.DealRank,
			ExpiresAt:         expiresAt,
		}
	}

	if err := e.dealRepo.ReplaceDeals(ctx, params.CountryCode, rows); err != nil {
		return nil, err
	}

	return ranked, nil
}
