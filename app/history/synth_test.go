package history

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/nkosyan/dealradar/app/database"
)

func testPair() database.PricePair {
	return database.PricePair{
		ProductID:    "prod-1",
		RetailerID:   "ret-1",
		CurrentPrice: 500.0,
		Currency:     "USD",
	}
}

func testSynthConfig() SynthConfig {
	return SynthConfig{
		WindowDays: 365,
		FloorRatio: 0.65,
		CeilRatio:  2.0,
	}
}

func TestSynthesizePointCount(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := Synthesize(testPair(), testSynthConfig(), now, rand.New(rand.NewSource(1)))

	if len(entries) != 365 {
		t.Fatalf("Expected 365 entries, got %d", len(entries))
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	cfg := testSynthConfig()

	first := Synthesize(testPair(), cfg, now, rand.New(rand.NewSource(42)))
	second := Synthesize(testPair(), cfg, now, rand.New(rand.NewSource(42)))

	if len(first) != len(second) {
		t.Fatalf("Expected equal lengths, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Price != second[i].Price {
			t.Fatalf("Expected identical prices at index %d, got %f and %f",
				i, first[i].Price, second[i].Price)
		}
	}
}

func TestSynthesizeDifferentSeedsDiffer(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	cfg := testSynthConfig()

	first := Synthesize(testPair(), cfg, now, rand.New(rand.NewSource(1)))
	second := Synthesize(testPair(), cfg, now, rand.New(rand.NewSource(2)))

	same := true
	for i := range first {
		if first[i].Price != second[i].Price {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected different seeds to produce different series")
	}
}

func TestSynthesizeClampBounds(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	pair := testPair()
	cfg := testSynthConfig()

	entries := Synthesize(pair, cfg, now, rand.New(rand.NewSource(7)))

	floor := pair.CurrentPrice * cfg.FloorRatio
	ceil := pair.CurrentPrice * cfg.CeilRatio
	for i, e := range entries {
		if e.Price < floor-0.01 || e.Price > ceil+0.01 {
			t.Errorf("Entry %d price %f outside clamp [%f, %f]", i, e.Price, floor, ceil)
		}
	}
}

func TestSynthesizeOrderedOldestFirst(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := Synthesize(testPair(), testSynthConfig(), now, rand.New(rand.NewSource(1)))

	for i := 1; i < len(entries); i++ {
		if !entries[i].RecordedAt.After(entries[i-1].RecordedAt) {
			t.Fatalf("Expected strictly increasing timestamps, got %v then %v",
				entries[i-1].RecordedAt, entries[i].RecordedAt)
		}
	}

	newest := entries[len(entries)-1].RecordedAt
	expected := now.UTC().Truncate(24 * time.Hour)
	if !newest.Equal(expected) {
		t.Errorf("Expected newest point at %v, got %v", expected, newest)
	}
}

func TestSynthesizeChangePercent(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := Synthesize(testPair(), testSynthConfig(), now, rand.New(rand.NewSource(1)))

	if entries[0].PriceChangePercent != nil {
		t.Error("Expected no change percent on the first entry")
	}

	for i := 1; i < len(entries); i++ {
		if entries[i].PriceChangePercent == nil {
			t.Fatalf("Expected change percent on entry %d", i)
		}
		prev := entries[i-1].Price
		want := math.Round((entries[i].Price-prev)/prev*100*100) / 100
		if *entries[i].PriceChangePercent != want {
			t.Errorf("Entry %d: expected change %f, got %f", i, want, *entries[i].PriceChangePercent)
		}
	}
}

func TestSynthesizeDealScores(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := Synthesize(testPair(), testSynthConfig(), now, rand.New(rand.NewSource(1)))

	minPrice, maxPrice := entries[0].Price, entries[0].Price
	for _, e := range entries {
		if e.Price < minPrice {
			minPrice = e.Price
		}
		if e.Price > maxPrice {
			maxPrice = e.Price
		}
	}

	for i, e := range entries {
		if e.DealScore == nil {
			t.Fatalf("Expected deal score on entry %d", i)
		}
		score := *e.DealScore
		if score < 0 || score > 10 {
			t.Errorf("Entry %d: score %f outside [0,10]", i, score)
		}
		if e.Price == minPrice && score != 10 {
			t.Errorf("Expected score 10 at the series minimum, got %f", score)
		}
		if e.Price == maxPrice && score != 0 {
			t.Errorf("Expected score 0 at the series maximum, got %f", score)
		}
		if e.IsDeal != (score >= 7.0) {
			t.Errorf("Entry %d: is_deal %v inconsistent with score %f", i, e.IsDeal, score)
		}
	}
}

func TestSynthesizeOlderPricesTrendHigher(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entries := Synthesize(testPair(), testSynthConfig(), now, rand.New(rand.NewSource(1)))

	// drift should make the oldest quarter average above the newest quarter
	quarter := len(entries) / 4
	var oldSum, newSum float64
	for i := 0; i < quarter; i++ {
		oldSum += entries[i].Price
		newSum += entries[len(entries)-1-i].Price
	}

	if oldSum <= newSum {
		t.Errorf("Expected older prices to average higher, got old sum %f vs new sum %f", oldSum, newSum)
	}
}

func TestSynthesizeRejectsInvalidInput(t *testing.T) {
	now := time.Now()

	if got := Synthesize(testPair(), SynthConfig{WindowDays: 0}, now, rand.New(rand.NewSource(1))); got != nil {
		t.Errorf("Expected nil for zero window, got %d entries", len(got))
	}

	pair := testPair()
	pair.CurrentPrice = 0
	if got := Synthesize(pair, testSynthConfig(), now, rand.New(rand.NewSource(1))); got != nil {
		t.Errorf("Expected nil for non-positive price, got %d entries", len(got))
	}
}

func TestDealScoreFlatSeries(t *testing.T) {
	if got := dealScore(100, 100, 100); got != 5 {
		t.Errorf("Expected neutral score 5 for a flat series, got %f", got)
	}
}
