package pnl

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

func rawSell(date int64, cost float64, feeCost float64, feeCcy string) models.RawTrade {
	return models.RawTrade{
		ID:        "t",
		Timestamp: date,
		Symbol:    "BTC/USDT",
		Side:      "sell",
		Price:     1,
		Amount:    cost,
		Cost:      cost,
		Fee:       models.Fee{Cost: feeCost, Currency: feeCcy},
		Segment:   models.SegmentSpot,
	}
}

const (
	day1 = int64(1700000000000) // 2023-11-14 UTC
	day2 = int64(1700100000000) // 2023-11-16 UTC
)

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := []models.RawTrade{
		rawSell(day1, 100, 1, "usdt"),
		{ID: "x", Timestamp: day2, Symbol: "ETH/USDT", Side: "BUY", Price: 2, Amount: 3, Cost: 6},
		{ID: "y", Side: "hold", Info: map[string]any{"traderId": "A"}},
	}

	first := Normalize(raw)
	second := Normalize(raw)

	if len(first) != len(raw) {
		t.Fatalf("expected %d normalized trades, got %d", len(raw), len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization is not idempotent:\n%v\n%v", first, second)
	}
}

func TestNormalizeFieldRules(t *testing.T) {
	raw := []models.RawTrade{
		{ID: "1", Timestamp: day1, Side: "SELL", Fee: models.Fee{Currency: "usdt"}},
		{ID: "2", Timestamp: day1, Side: "hold"},
		{ID: "3", Side: "buy"}, // no timestamp
		{ID: "4", Timestamp: day1, Side: "buy", Price: math.NaN(), Cost: math.Inf(1)},
	}

	got := Normalize(raw)

	if got[0].Side != models.SideSell || got[0].FeeCurrency != "USDT" {
		t.Errorf("sell normalization wrong: %+v", got[0])
	}
	if got[0].Date != "2023-11-14" {
		t.Errorf("expected UTC date 2023-11-14, got %q", got[0].Date)
	}
	// Anything that is not exactly a sell counts as a buy.
	if got[1].Side != models.SideBuy {
		t.Errorf("unrecognized side should normalize to buy, got %q", got[1].Side)
	}
	if got[2].Date != "" {
		t.Errorf("missing timestamp should leave the date empty, got %q", got[2].Date)
	}
	if got[3].Price != 0 || got[3].Cost != 0 {
		t.Errorf("non-finite numerics should default to zero: %+v", got[3])
	}
}

func TestClassifyCopyIndependence(t *testing.T) {
	tests := []struct {
		name       string
		info       map[string]any
		wantCopy   bool
		wantTrader string
	}{
		{"no metadata", nil, false, ""},
		{"flag only", map[string]any{"copyFlag": true}, true, ""},
		{"follow id only", map[string]any{"followId": "99"}, true, ""},
		{"trader id", map[string]any{"traderId": "A"}, true, "A"},
		{"numeric trader id", map[string]any{"leaderId": float64(42)}, true, "42"},
		{"priority order", map[string]any{"strategyName": "s", "traderId": "A"}, true, "A"},
		{"strategy id sets both", map[string]any{"strategyId": "S1"}, true, "S1"},
		{"unrelated keys", map[string]any{"orderId": "1", "isMaker": true}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isCopy, trader := classifyCopy(tt.info)
			if isCopy != tt.wantCopy || trader != tt.wantTrader {
				t.Errorf("classifyCopy(%v) = (%v, %q), want (%v, %q)",
					tt.info, isCopy, trader, tt.wantCopy, tt.wantTrader)
			}
		})
	}
}

func TestCashFlowSignAndFees(t *testing.T) {
	tests := []struct {
		name  string
		trade models.NormalizedTrade
		want  float64
	}{
		{"sell adds cost", models.NormalizedTrade{Side: "sell", Cost: 100}, 100},
		{"buy subtracts cost", models.NormalizedTrade{Side: "buy", Cost: 100}, -100},
		{"stable fee deducted", models.NormalizedTrade{Side: "sell", Cost: 100, FeeCost: 1, FeeCurrency: "USDT"}, 99},
		{"usd fee deducted", models.NormalizedTrade{Side: "sell", Cost: 100, FeeCost: 1, FeeCurrency: "USD"}, 99},
		{"other fee ignored", models.NormalizedTrade{Side: "sell", Cost: 100, FeeCost: 1, FeeCurrency: "BTC"}, 100},
		{"buy with stable fee", models.NormalizedTrade{Side: "buy", Cost: 100, FeeCost: 1, FeeCurrency: "USDT"}, -101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CashFlow(tt.trade); got != tt.want {
				t.Errorf("CashFlow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDailyGroupsAndSorts(t *testing.T) {
	trades := []models.NormalizedTrade{
		{Date: "2024-02-02", Side: "sell", Cost: 30},
		{Date: "2024-02-01", Side: "sell", Cost: 100},
		{Date: "2024-02-01", Side: "buy", Cost: 40},
		{Date: "", Side: "sell", Cost: 999}, // undated, excluded
	}

	got := Daily(trades)
	want := []models.DailyPnL{
		{Date: "2024-02-01", PnLUSDT: 60},
		{Date: "2024-02-02", PnLUSDT: 30},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Daily() = %v, want %v", got, want)
	}
}

func TestDailyEmptyInput(t *testing.T) {
	if got := Daily(nil); len(got) != 0 {
		t.Errorf("expected empty series, got %v", got)
	}
}

func TestReconstructEquityAnchorsToNow(t *testing.T) {
	daily := []models.DailyPnL{
		{Date: "2024-02-01", PnLUSDT: 50},
		{Date: "2024-02-02", PnLUSDT: -20},
	}

	got := ReconstructEquity(daily, 1000)
	want := []models.EquityPoint{
		{Date: "2024-02-01", EquityUSDT: 1020},
		{Date: "2024-02-02", EquityUSDT: 1000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReconstructEquity() = %v, want %v", got, want)
	}
	if got[len(got)-1].EquityUSDT != 1000 {
		t.Errorf("last point must equal the anchor equity")
	}
}

func TestReconstructEquityWithoutAnchor(t *testing.T) {
	daily := []models.DailyPnL{{Date: "2024-02-01", PnLUSDT: 50}}

	got := ReconstructEquity(daily, math.NaN())
	if len(got) != 1 || got[0].EquityUSDT != 50 {
		t.Errorf("expected zero-anchored curve, got %v", got)
	}
}

func TestComputeROI(t *testing.T) {
	daily := []models.DailyPnL{{Date: "2024-02-01", PnLUSDT: 30}}

	tests := []struct {
		name    string
		daily   []models.DailyPnL
		eqNow   float64
		valid   bool
		wantPct float64
	}{
		{"normal", daily, 1000, true, 100 * 30.0 / 970.0},
		{"empty series", nil, 1000, false, 0},
		{"anchor unavailable", daily, math.NaN(), false, 0},
		{"start equity negative", []models.DailyPnL{{Date: "d", PnLUSDT: 50}}, 10, false, 0},
		{"start equity zero", []models.DailyPnL{{Date: "d", PnLUSDT: 10}}, 10, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeROI(tt.daily, tt.eqNow)
			if got.Valid != tt.valid {
				t.Fatalf("ComputeROI() valid = %v, want %v", got.Valid, tt.valid)
			}
			if tt.valid && math.Abs(got.Pct-tt.wantPct) > 1e-9 {
				t.Errorf("ComputeROI() = %v, want %v", got.Pct, tt.wantPct)
			}
			if !tt.valid && got.String() != "–" {
				t.Errorf("unavailable ROI must render as a dash, got %q", got.String())
			}
		})
	}
}

func TestAggregateCopyTrades(t *testing.T) {
	trades := []models.NormalizedTrade{
		{Date: "d", Side: "sell", Cost: 100, IsCopy: true, CopyTrader: "A"},
		{Date: "d", Side: "buy", Cost: 30, IsCopy: true, CopyTrader: "A"},
		{Date: "d", Side: "sell", Cost: 10, IsCopy: true}, // flag only, no identity
		{Date: "d", Side: "sell", Cost: 500},              // not a copy trade
	}

	got := AggregateCopyTrades(trades)
	want := []models.TraderAggregate{
		{Trader: "A", Trades: 2, PnLUSDT: 70},
		{Trader: UnknownTrader, Trades: 1, PnLUSDT: 10},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AggregateCopyTrades() = %v, want %v", got, want)
	}
}

func TestAggregateCopyTradesTiebreak(t *testing.T) {
	trades := []models.NormalizedTrade{
		{Date: "d", Side: "sell", Cost: 10, IsCopy: true, CopyTrader: "B"},
		{Date: "d", Side: "sell", Cost: 10, IsCopy: true, CopyTrader: "A"},
	}

	got := AggregateCopyTrades(trades)
	if got[0].Trader != "A" || got[1].Trader != "B" {
		t.Errorf("equal PnL must rank by trader key, got %v", got)
	}
}

func TestRunEmptyInput(t *testing.T) {
	snap := Run(Config{Days: 14, EURPerUSD: 0.92}, nil, models.EquitySnapshot{})

	if snap.Status != models.StatusDegraded {
		t.Errorf("missing anchor must flag the snapshot, got %q", snap.Status)
	}
	if len(snap.Daily) != 0 || len(snap.Equity) != 0 || len(snap.CopyTraders) != 0 {
		t.Errorf("empty input must produce empty series: %+v", snap)
	}
	if snap.ROI.Valid {
		t.Errorf("ROI must be unavailable on empty input")
	}
	if snap.Summary.ROIText != "–" {
		t.Errorf("unavailable ROI must render as a dash, got %q", snap.Summary.ROIText)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	raw := []models.RawTrade{
		rawSell(day1, 100, 1, "USDT"),
		{ID: "b", Timestamp: day2, Symbol: "ETH/USDT", Side: "buy", Cost: 40,
			Info: map[string]any{"traderId": "A"}},
	}
	eq := models.EquitySnapshot{TotalUSDT: 1000, Available: true}
	cfg := Config{Days: 14, EURPerUSD: 0.9, Now: time.Unix(1700200000, 0).UTC()}

	a := Run(cfg, raw, eq)
	b := Run(cfg, raw, eq)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs must produce identical snapshots")
	}

	if a.Status != models.StatusOK {
		t.Errorf("expected ok status, got %q", a.Status)
	}
	if last := a.Equity[len(a.Equity)-1]; math.Abs(last.EquityUSDT-1000) > 1e-9 {
		t.Errorf("equity curve must end at the anchor, got %v", last.EquityUSDT)
	}
	if a.Summary.EquityEUR != 900 {
		t.Errorf("EUR conversion wrong: %v", a.Summary.EquityEUR)
	}
}
