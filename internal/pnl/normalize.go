// Package pnl implements the PnL and equity reconstruction pipeline: it
// turns raw exchange fills into a daily cash-flow PnL series, an equity
// curve anchored to the current account value, a simple ROI figure and a
// per-leader copy-trade ranking.
//
// Everything in this package is pure and deterministic: no I/O, no shared
// state, identical inputs produce identical outputs.
package pnl

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kugelfisch1984/mexc-report/internal/models"
)

// copyFlagKeys marks a trade as a copy trade when any of them is present in
// the venue metadata, regardless of value. The schema is undocumented and
// differs between segments, so this is best effort.
var copyFlagKeys = []string{
	"copy", "isCopy", "copyFlag", "strategyId",
	"traderId", "leaderId", "followerId", "followId",
}

// copyTraderKeys are scanned in priority order; the first present key's
// value becomes the trader identity.
var copyTraderKeys = []string{
	"traderId", "leaderId", "strategyId",
	"strategyName", "leaderName", "traderName",
}

// Normalize converts raw fills into the uniform shape the aggregators
// consume. It is total: one output per input, in input order, and it never
// fails — malformed fields degrade to zero values instead.
//
// A side other than "sell" is treated as a buy, matching the sign rule of
// the aggregators. Trades without a timestamp keep an empty date and are
// excluded from all date-keyed series downstream.
func Normalize(raw []models.RawTrade) []models.NormalizedTrade {
	out := make([]models.NormalizedTrade, 0, len(raw))
	for _, t := range raw {
		out = append(out, normalizeOne(t))
	}
	return out
}

func normalizeOne(t models.RawTrade) models.NormalizedTrade {
	n := models.NormalizedTrade{
		Symbol:      t.Symbol,
		Side:        normalizeSide(t.Side),
		Price:       finiteOrZero(t.Price),
		Amount:      finiteOrZero(t.Amount),
		Cost:        finiteOrZero(t.Cost),
		FeeCost:     finiteOrZero(t.Fee.Cost),
		FeeCurrency: strings.ToUpper(t.Fee.Currency),
		Segment:     t.Segment,
	}

	if t.Timestamp > 0 {
		n.Date = time.UnixMilli(t.Timestamp).UTC().Format("2006-01-02")
	}

	n.IsCopy, n.CopyTrader = classifyCopy(t.Info)
	return n
}

func normalizeSide(side string) string {
	if strings.ToLower(side) == models.SideSell {
		return models.SideSell
	}
	return models.SideBuy
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// classifyCopy scans the metadata bag for copy-trade markers. The two scans
// are independent: a trade can be flagged as a copy trade without any
// recognizable trader identity.
func classifyCopy(info map[string]any) (isCopy bool, trader string) {
	if len(info) == 0 {
		return false, ""
	}

	for _, k := range copyFlagKeys {
		if _, ok := info[k]; ok {
			isCopy = true
			break
		}
	}

	for _, k := range copyTraderKeys {
		if v, ok := info[k]; ok {
			trader = stringify(v)
			break
		}
	}

	return isCopy, trader
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// JSON numbers decode as float64; IDs are integral in practice.
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%v", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
