package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

func testCache(t *testing.T) *TradeCache {
	t.Helper()
	cache, err := NewTradeCache(filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("NewTradeCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func sampleTrade(id string, ts int64) models.RawTrade {
	return models.RawTrade{
		ID:        id,
		Timestamp: ts,
		Symbol:    "BTC/USDT",
		Side:      "buy",
		Price:     100,
		Amount:    1,
		Cost:      100,
		Fee:       models.Fee{Cost: 0.1, Currency: "USDT"},
		Segment:   models.SegmentSpot,
		Info:      map[string]any{"traderId": "T1", "copy": true},
	}
}

func TestSaveAndGetTrades(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	trades := []models.RawTrade{
		sampleTrade("1", 1000),
		sampleTrade("2", 2000),
		sampleTrade("3", 3000),
	}
	if err := cache.SaveTrades(ctx, trades); err != nil {
		t.Fatalf("SaveTrades: %v", err)
	}

	got, err := cache.GetTrades(ctx, 1000, 2500)
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 trades in window, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("expected oldest-first order, got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestMetadataSurvivesRoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	if err := cache.SaveTrades(ctx, []models.RawTrade{sampleTrade("1", 1000)}); err != nil {
		t.Fatalf("SaveTrades: %v", err)
	}

	got, err := cache.GetTrades(ctx, 0, 5000)
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(got))
	}
	if got[0].Info["traderId"] != "T1" {
		t.Errorf("traderId lost in round trip: %v", got[0].Info)
	}
	if v, ok := got[0].Info["copy"].(bool); !ok || !v {
		t.Errorf("copy flag lost in round trip: %v", got[0].Info)
	}
}

func TestSaveTradesDeduplicates(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	first := sampleTrade("1", 1000)
	if err := cache.SaveTrades(ctx, []models.RawTrade{first}); err != nil {
		t.Fatalf("SaveTrades: %v", err)
	}

	updated := first
	updated.Price = 105
	if err := cache.SaveTrades(ctx, []models.RawTrade{updated}); err != nil {
		t.Fatalf("SaveTrades again: %v", err)
	}

	n, err := cache.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row after re-save, got %d", n)
	}

	got, _ := cache.GetTrades(ctx, 0, 5000)
	if got[0].Price != 105 {
		t.Errorf("re-save must replace, got price %v", got[0].Price)
	}
}

func TestSameIDAcrossSegments(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	spot := sampleTrade("42", 1000)
	swap := sampleTrade("42", 2000)
	swap.Segment = models.SegmentSwap

	if err := cache.SaveTrades(ctx, []models.RawTrade{spot, swap}); err != nil {
		t.Fatalf("SaveTrades: %v", err)
	}

	n, _ := cache.Count(ctx)
	if n != 2 {
		t.Errorf("segments must not collide on id, got %d rows", n)
	}
}

func TestSyncWatermark(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	last, err := cache.LastSync(ctx, models.SegmentSpot)
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if last != 0 {
		t.Errorf("fresh cache must report 0, got %d", last)
	}

	if err := cache.SetLastSync(ctx, models.SegmentSpot, 1700000000000); err != nil {
		t.Fatalf("SetLastSync: %v", err)
	}
	if err := cache.SetLastSync(ctx, models.SegmentSpot, 1700000005000); err != nil {
		t.Fatalf("SetLastSync update: %v", err)
	}

	last, err = cache.LastSync(ctx, models.SegmentSpot)
	if err != nil {
		t.Fatalf("LastSync: %v", err)
	}
	if last != 1700000005000 {
		t.Errorf("LastSync = %d, want 1700000005000", last)
	}

	other, _ := cache.LastSync(ctx, models.SegmentSwap)
	if other != 0 {
		t.Errorf("watermarks must be per segment, got %d", other)
	}
}
