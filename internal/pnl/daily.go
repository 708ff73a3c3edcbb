package pnl

import (
	"sort"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

// CashFlow returns the signed USDT cash flow of one trade: a sell adds the
// reported cost, a buy subtracts it, and a fee paid in a stable coin is
// deducted. Fees in any other currency are ignored, not converted.
//
// This is a cash-flow proxy for PnL, not lot-matched realized profit: it
// conflates principal movement with profit and is only meaningful in
// aggregate over enough buy/sell round trips.
func CashFlow(t models.NormalizedTrade) float64 {
	cash := t.Cost
	if t.Side != models.SideSell {
		cash = -cash
	}
	if isStableCoin(t.FeeCurrency) {
		cash -= t.FeeCost
	}
	return cash
}

func isStableCoin(currency string) bool {
	return currency == "USDT" || currency == "USD"
}

// Daily folds normalized trades into a per-day PnL series, ascending by
// date, one entry per distinct date present in the input. Trades without a
// date are skipped. An empty input yields an empty series.
func Daily(trades []models.NormalizedTrade) []models.DailyPnL {
	byDate := make(map[string]float64)
	for _, t := range trades {
		if t.Date == "" {
			continue
		}
		byDate[t.Date] += CashFlow(t)
	}

	out := make([]models.DailyPnL, 0, len(byDate))
	for date, pnl := range byDate {
		out = append(out, models.DailyPnL{Date: date, PnLUSDT: pnl})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Cumulative returns the running sum of a daily series, same dates, same
// order.
func Cumulative(daily []models.DailyPnL) []models.DailyPnL {
	out := make([]models.DailyPnL, 0, len(daily))
	var run float64
	for _, d := range daily {
		run += d.PnLUSDT
		out = append(out, models.DailyPnL{Date: d.Date, PnLUSDT: run})
	}
	return out
}

// Total sums a daily series.
func Total(daily []models.DailyPnL) float64 {
	var total float64
	for _, d := range daily {
		total += d.PnLUSDT
	}
	return total
}
