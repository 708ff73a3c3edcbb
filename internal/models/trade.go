// Package models provides domain models for the report generator.
package models

import "time"

// Segment represents a MEXC market segment.
type Segment string

const (
	SegmentSpot Segment = "spot"
	SegmentSwap Segment = "swap" // USDT-margined linear perpetuals
)

// Side values after normalization.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Fee is the fee attached to a single fill.
type Fee struct {
	Cost     float64
	Currency string
}

// RawTrade is one fill as returned by the exchange, before normalization.
// Info carries the venue-specific metadata bag verbatim; its schema is
// undocumented and differs between segments.
type RawTrade struct {
	ID        string
	Timestamp int64 // epoch milliseconds, 0 when the venue omitted it
	Symbol    string
	Side      string
	Price     float64
	Amount    float64
	Cost      float64
	Fee       Fee
	Segment   Segment
	Info      map[string]any
}

// NormalizedTrade is the uniform record the aggregators consume.
// Created once per raw trade and never mutated afterwards.
type NormalizedTrade struct {
	Date        string  `csv:"date" json:"date"` // YYYY-MM-DD in UTC, empty when the timestamp was missing
	Symbol      string  `csv:"symbol" json:"symbol"`
	Side        string  `csv:"side" json:"side"`
	Price       float64 `csv:"price" json:"price"`
	Amount      float64 `csv:"amount" json:"amount"`
	Cost        float64 `csv:"cost" json:"cost"`
	FeeCost     float64 `csv:"fee_cost" json:"fee_cost"`
	FeeCurrency string  `csv:"fee_ccy" json:"fee_ccy"`
	IsCopy      bool    `csv:"is_copy" json:"is_copy"`
	CopyTrader  string  `csv:"copy_trader" json:"copy_trader,omitempty"`
	Segment     Segment `csv:"segment" json:"segment"`
}

// DailyPnL is the signed USDT cash flow attributed to one calendar day.
type DailyPnL struct {
	Date    string  `csv:"date" json:"date"`
	PnLUSDT float64 `csv:"pnl_usdt" json:"pnl_usdt"`
}

// EquityPoint is one point of the reconstructed equity curve.
type EquityPoint struct {
	Date       string  `csv:"date" json:"date"`
	EquityUSDT float64 `csv:"equity_usdt" json:"equity_usdt"`
}

// TraderAggregate sums the copy trades attributed to one leader.
type TraderAggregate struct {
	Trader  string  `csv:"trader" json:"trader"`
	Trades  int     `csv:"trades" json:"trades"`
	PnLUSDT float64 `csv:"pnl_usdt" json:"pnl_usdt"`
}

// PositionValue is one asset position valued in USDT at fetch time.
type PositionValue struct {
	Segment   Segment `csv:"type" json:"type"`
	Asset     string  `csv:"asset" json:"asset"`
	Quantity  float64 `csv:"qty" json:"qty"`
	PriceUSDT float64 `csv:"price_usdt" json:"price_usdt"`
	ValueUSDT float64 `csv:"value_usdt" json:"value_usdt"`
}

// EquitySnapshot is the current account value in USDT terms, as reported by
// the balance collaborator. Available is false when no segment could be
// queried; TotalUSDT is meaningless in that case.
type EquitySnapshot struct {
	TotalUSDT float64
	Positions []PositionValue
	FetchedAt time.Time
	Available bool
}
