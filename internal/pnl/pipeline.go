package pnl

import (
	"math"
	"time"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

// Config carries the pipeline inputs that do not come from the exchange.
// The caller constructs it once; nothing in this package reads process
// state.
type Config struct {
	Days      int
	EURPerUSD float64
	Now       time.Time // snapshot timestamp; zero means time.Now()
}

// Run executes the full pipeline on one batch of raw trades and a balance
// snapshot and packages the result for the renderers. It never fails:
// missing or malformed data degrades to empty series and an "unavailable"
// ROI, reflected in the snapshot status.
func Run(cfg Config, raw []models.RawTrade, equity models.EquitySnapshot) *models.Snapshot {
	now := cfg.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	eqNow := math.NaN()
	status := models.StatusDegraded
	if equity.Available {
		eqNow = equity.TotalUSDT
		status = models.StatusOK
	}

	trades := Normalize(raw)
	daily := Daily(trades)

	snap := &models.Snapshot{
		GeneratedAt: now,
		Status:      status,
		Days:        cfg.Days,
		EURPerUSD:   cfg.EURPerUSD,
		ROI:         ComputeROI(daily, eqNow),
		Daily:       daily,
		Cumulative:  Cumulative(daily),
		Equity:      ReconstructEquity(daily, eqNow),
		CopyTraders: AggregateCopyTrades(trades),
		Trades:      trades,
		Positions:   equity.Positions,
	}

	if equity.Available {
		snap.EquityUSDT = equity.TotalUSDT
		snap.EquityEUR = equity.TotalUSDT * cfg.EURPerUSD
	}

	total := Total(daily)
	snap.Summary = models.Summary{
		EquityUSDT:   snap.EquityUSDT,
		EquityEUR:    snap.EquityEUR,
		TotalPnLUSDT: total,
		TotalPnLEUR:  total * cfg.EURPerUSD,
		ROIText:      snap.ROI.String(),
	}

	return snap
}
