package cache

import (
	"context"
	"testing"
)

func TestDealsKey(t *testing.T) {
	if got := DealsKey("DE"); got != "deals:DE" {
		t.Errorf("Expected 'deals:DE', got '%s'", got)
	}
	if got := DealsKey(""); got != "deals:global" {
		t.Errorf("Expected 'deals:global' for the empty scope, got '%s'", got)
	}
}

func TestHistoryKey(t *testing.T) {
	got := HistoryKey("prod-1", "US", 30)
	if got != "history:prod-1:US:30" {
		t.Errorf("Expected 'history:prod-1:US:30', got '%s'", got)
	}
}

func TestNilCacheIsNoOp(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var dest []string
	hit, err := c.Get(ctx, "anything", &dest)
	if err != nil {
		t.Errorf("Expected nil cache Get to succeed, got: %v", err)
	}
	if hit {
		t.Error("Expected a miss from the nil cache")
	}

	if err := c.Set(ctx, "anything", []string{"v"}); err != nil {
		t.Errorf("Expected nil cache Set to succeed, got: %v", err)
	}
	if err := c.InvalidateDeals(ctx, "US"); err != nil {
		t.Errorf("Expected nil cache InvalidateDeals to succeed, got: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected nil cache Close to succeed, got: %v", err)
	}
}
