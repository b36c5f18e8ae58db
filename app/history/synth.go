package history

import (
	"math"
	"math/rand"
	"time"

	"github.com/nkosyan/dealradar/app/database"
)

// SynthConfig shapes the generated series.
type SynthConfig struct {
	WindowDays int
	FloorRatio float64 // lower clamp as a ratio of the current price
	CeilRatio  float64 // upper clamp as a ratio of the current price
}

const (
	yearlyAmplitude = 0.10
	weeklyAmplitude = 0.03
	noiseAmplitude  = 0.05
	driftAmplitude  = 0.15 // consumer electronics: older prices sit higher
	dealScoreCutoff = 7.0
)

// Synthesize generates one daily point per day over the window, anchored so
// the newest point lands near the current price. Deterministic for a given
// rng seed. Points are ordered oldest first.
func Synthesize(pair database.PricePair, cfg SynthConfig, now time.Time, rng *rand.Rand) []database.PriceHistoryEntry {
	if cfg.WindowDays <= 0 || pair.CurrentPrice <= 0 {
		return nil
	}

	day := now.UTC().Truncate(24 * time.Hour)
	prices := make([]float64, cfg.WindowDays)

	floor := pair.CurrentPrice * cfg.FloorRatio
	ceil := pair.CurrentPrice * cfg.CeilRatio

	for i := 0; i < cfg.WindowDays; i++ {
		age := cfg.WindowDays - 1 - i // days before now; 0 for the newest point
		date := day.AddDate(0, 0, -age)

		yearly := 1 + yearlyAmplitude*math.Sin(2*math.Pi*float64(date.YearDay())/365)
		weekly := 1 + weeklyAmplitude*math.Sin(2*math.Pi*float64(date.Weekday())/7)
		noise := 1 + (rng.Float64()*2-1)*noiseAmplitude
		drift := 1 + driftAmplitude*float64(age)/float64(cfg.WindowDays)

		price := pair.CurrentPrice * yearly * weekly * noise * drift
		if price < floor {
			price = floor
		}
		if price > ceil {
			price = ceil
		}
		prices[i] = round2(price)
	}

	minPrice, maxPrice := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minPrice {
			minPrice = p
		}
		if p > maxPrice {
			maxPrice = p
		}
	}

	entries := make([]database.PriceHistoryEntry, cfg.WindowDays)
	for i, price := range prices {
		age := cfg.WindowDays - 1 - i
		entry := database.PriceHistoryEntry{
			ProductID:  pair.ProductID,
			RetailerID: pair.RetailerID,
			Price:      price,
			Currency:   pair.Currency,
			RecordedAt: day.AddDate(0, 0, -age),
		}

		if i > 0 && prices[i-1] > 0 {
			change := round2((price - prices[i-1]) / prices[i-1] * 100)
			entry.PriceChangePercent = &change
		}

		score := dealScore(price, minPrice, maxPrice)
		entry.DealScore = &score
		entry.IsDeal = score >= dealScoreCutoff

		entries[i] = entry
	}

	return entries
}

// dealScore maps a price onto [0,10]: 10 at the series minimum, 0 at the
// maximum. A flat series scores a neutral 5.
func dealScore(price, minPrice, maxPrice float64) float64 {
	if maxPrice <= minPrice {
		return 5
	}
	return round2(10 * (maxPrice - price) / (maxPrice - minPrice))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
