package models

import (
	"fmt"
	"time"
)

// SnapshotStatus describes how trustworthy a generated snapshot is.
type SnapshotStatus string

const (
	// StatusOK means trades and the equity anchor were both available.
	StatusOK SnapshotStatus = "ok"
	// StatusDegraded means the equity anchor was unavailable; the curve is
	// anchored at zero and ROI is unavailable.
	StatusDegraded SnapshotStatus = "degraded"
	// StatusNoKeys means no credentials were configured and nothing was
	// fetched; all series are empty.
	StatusNoKeys SnapshotStatus = "no_api_keys"
)

// ROI is a simple-return percentage that may be unavailable. It is
// unavailable when the PnL series is empty, the equity anchor is unknown,
// or the reconstructed start equity is not positive.
type ROI struct {
	Pct   float64
	Valid bool
}

// String renders the ROI for user-facing text, with a dash when unavailable.
func (r ROI) String() string {
	if !r.Valid {
		return "–"
	}
	return fmt.Sprintf("%.2f %%", r.Pct)
}

// Summary holds the headline figures shown at the top of the dashboard.
type Summary struct {
	EquityUSDT   float64 `json:"eq_now_usdt"`
	EquityEUR    float64 `json:"eq_now_eur"`
	TotalPnLUSDT float64 `json:"total_pnl_usdt"`
	TotalPnLEUR  float64 `json:"total_pnl_eur"`
	ROIText      string  `json:"roi_pct"`
}

// Snapshot is the complete output of one pipeline run: everything the
// renderers need, nothing they have to compute themselves.
type Snapshot struct {
	GeneratedAt time.Time      `json:"updated_at"`
	Status      SnapshotStatus `json:"status"`
	Days        int            `json:"days"`

	EquityUSDT float64 `json:"equity_usdt"`
	EquityEUR  float64 `json:"equity_eur"`
	EURPerUSD  float64 `json:"eur_per_usdt"`

	ROI     ROI     `json:"-"`
	Summary Summary `json:"summary"`

	Daily       []DailyPnL        `json:"pnl_daily"`
	Cumulative  []DailyPnL        `json:"pnl_cum"`
	Equity      []EquityPoint     `json:"equity_curve"`
	CopyTraders []TraderAggregate `json:"copytrades"`

	Trades    []NormalizedTrade `json:"-"`
	Positions []PositionValue   `json:"-"`
}

// TotalPnLUSDT returns the sum over the daily series.
func (s *Snapshot) TotalPnLUSDT() float64 {
	var total float64
	for _, d := range s.Daily {
		total += d.PnLUSDT
	}
	return total
}
