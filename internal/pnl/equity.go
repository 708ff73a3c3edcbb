package pnl

import (
	"math"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

// ReconstructEquity back-computes an equity curve from the daily PnL series
// and the known present equity:
//
//	start    = eqNow - Σ pnl
//	equity_i = start + Σ pnl[0..i]
//
// The last point therefore equals eqNow by construction. When eqNow is NaN
// (anchor unavailable) the curve is anchored at zero instead; callers must
// flag that snapshot as degraded rather than present it as real equity.
func ReconstructEquity(daily []models.DailyPnL, eqNow float64) []models.EquityPoint {
	if len(daily) == 0 {
		return nil
	}

	start := 0.0
	if !math.IsNaN(eqNow) {
		start = eqNow - Total(daily)
	}

	out := make([]models.EquityPoint, 0, len(daily))
	run := start
	for _, d := range daily {
		run += d.PnLUSDT
		out = append(out, models.EquityPoint{Date: d.Date, EquityUSDT: run})
	}
	return out
}

// ComputeROI returns the simple return over the window:
//
//	roi = 100 · Σ pnl / start
//
// It is unavailable when the series is empty, the anchor is unknown, or the
// reconstructed start equity is not positive (a start ≤ 0 would make the
// percentage a meaningless artifact).
func ComputeROI(daily []models.DailyPnL, eqNow float64) models.ROI {
	if len(daily) == 0 || math.IsNaN(eqNow) {
		return models.ROI{}
	}

	total := Total(daily)
	start := eqNow - total
	if start <= 0 {
		return models.ROI{}
	}

	return models.ROI{Pct: 100 * total / start, Valid: true}
}
