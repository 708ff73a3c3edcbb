package pnl

import (
	"sort"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

// UnknownTrader keys copy trades whose metadata carried no recognizable
// trader identity.
const UnknownTrader = "(unknown)"

// AggregateCopyTrades groups copy-flagged trades by leader and sums trade
// count and cash-flow PnL per leader, using the same sign and fee rules as
// the daily series. The ranking is by PnL descending, trader key ascending
// as the deterministic tiebreak.
func AggregateCopyTrades(trades []models.NormalizedTrade) []models.TraderAggregate {
	byTrader := make(map[string]*models.TraderAggregate)
	for _, t := range trades {
		if !t.IsCopy {
			continue
		}

		key := t.CopyTrader
		if key == "" {
			key = UnknownTrader
		}

		agg, ok := byTrader[key]
		if !ok {
			agg = &models.TraderAggregate{Trader: key}
			byTrader[key] = agg
		}
		agg.Trades++
		agg.PnLUSDT += CashFlow(t)
	}

	out := make([]models.TraderAggregate, 0, len(byTrader))
	for _, agg := range byTrader {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PnLUSDT != out[j].PnLUSDT {
			return out[i].PnLUSDT > out[j].PnLUSDT
		}
		return out[i].Trader < out[j].Trader
	})
	return out
}

// FilterCopyTrades returns only the copy-flagged trades, preserving order.
// The renderers export these separately.
func FilterCopyTrades(trades []models.NormalizedTrade) []models.NormalizedTrade {
	var out []models.NormalizedTrade
	for _, t := range trades {
		if t.IsCopy {
			out = append(out, t)
		}
	}
	return out
}
