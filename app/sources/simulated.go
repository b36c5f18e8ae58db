package sources

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
)

// Source produces price observations for one category in one country.
// The simulated implementation below stands in for real retailer scrapers.
type Source interface {
	Discover(ctx context.Context, entry CategoryEntry, country CountryConfig) ([]Observation, error)
}

// SimulatedSource generates observations from catalog templates with
// per-retailer price jitter. Outputs are deterministic for a given seed,
// so repeated runs within one seed epoch produce comparable prices.
type SimulatedSource struct {
	seed int64
}

var _ Source = (*SimulatedSource)(nil)

func NewSimulatedSource(seed int64) *SimulatedSource {
	return &SimulatedSource{seed: seed}
}

func (s *SimulatedSource) Discover(ctx context.Context, entry CategoryEntry, country CountryConfig) ([]Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(country.Retailers) == 0 {
		return nil, nil
	}

	var observations []Observation
	for _, product := range entry.Products {
		rng := rand.New(rand.NewSource(s.seed ^ pairSeed(product.Name, country.Code)))

		// 3-5 retailers per product, chosen from the country roster
		count := 3 + rng.Intn(3)
		if count > len(country.Retailers) {
			count = len(country.Retailers)
		}
		picked := rng.Perm(len(country.Retailers))[:count]

		for _, idx := range picked {
			retailer := country.Retailers[idx]

			// ±15% spread around the localized base price
			jitter := 0.85 + rng.Float64()*0.3
			price := round2(product.BasePrice * country.Multiplier * jitter)

			observations = append(observations, Observation{
				ProductName:    product.Name,
				Brand:          product.Brand,
				Model:          product.Model,
				Description:    product.Description,
				ImageURL:       product.ImageURL,
				CategorySlug:   entry.Category.Slug,
				Specifications: product.Specifications,
				RetailerName:   retailer.Name,
				RetailerURL:    retailer.WebsiteURL,
				CountryCode:    country.Code,
				Price:          price,
				Currency:       country.Currency,
				ProductURL:     productURL(retailer, product.Model),
				Availability:   pickAvailability(rng),
			})
		}
	}

	return observations, nil
}

func pickAvailability(rng *rand.Rand) string {
	roll := rng.Float64()
	switch {
	case roll < 0.85:
		return "in_stock"
	case roll < 0.95:
		return "limited_stock"
	default:
		return "out_of_stock"
	}
}

func productURL(retailer RetailerConfig, model string) string {
	base := retailer.WebsiteURL
	if base == "" {
		slug := strings.ToLower(strings.ReplaceAll(retailer.Name, " ", ""))
		base = fmt.Sprintf("https://%s.example.com", slug)
	}
	return fmt.Sprintf("%s/product/%s", strings.TrimSuffix(base, "/"), strings.ToLower(model))
}

func pairSeed(productName, countryCode string) int64 {
	h := fnv.New64a()
	h.Write([]byte(productName))
	h.Write([]byte{0})
	h.Write([]byte(countryCode))
	return int64(h.Sum64())
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
