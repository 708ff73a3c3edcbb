package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kugelfisch1984/mexc-report/internal/exchange"
	"github.com/kugelfisch1984/mexc-report/internal/logging"
	"github.com/kugelfisch1984/mexc-report/internal/models"
	"github.com/kugelfisch1984/mexc-report/internal/pnl"
	"github.com/kugelfisch1984/mexc-report/pkg/utils"
)

func newReportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the dashboard site",
		Long: `Fetches fills and balances, reconstructs the PnL and equity history
and writes index.html, data/latest.json and CSV exports.

Without API keys the report is built from the local trade cache when it
covers the window; otherwise an empty snapshot with status "no_api_keys"
is written so the published page degrades visibly instead of going stale.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				days = app.Config.Report.Days
			}
			outDir, _ := cmd.Flags().GetString("out")
			if outDir == "" {
				outDir = app.Config.Report.OutDir
			}
			offline, _ := cmd.Flags().GetBool("offline")
			offline = offline || app.Config.Report.Offline

			ctx := cmd.Context()
			now := time.Now().UTC()
			window := exchange.LastDays(days, now)

			raw, equity, status := app.collectData(ctx, window, offline)

			rate := app.resolveRate(ctx, offline)
			snapshot := pnl.Run(pnl.Config{Days: days, EURPerUSD: rate, Now: now}, raw, equity)
			if status != "" {
				snapshot.Status = status
			}
			logging.LogSnapshot(app.Logger, string(snapshot.Status), len(snapshot.Trades), snapshot.Days, snapshot.EquityUSDT)

			if err := app.Renderer.Render(snapshot, outDir); err != nil {
				output.Error("Rendering failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(snapshot)
			}
			printReportSummary(output, snapshot, outDir)
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "lookback window in days (default from config)")
	cmd.Flags().String("out", "", "output directory (default from config)")
	cmd.Flags().Bool("offline", false, "build from the local trade cache only")
	return cmd
}

// collectData gathers raw fills and the equity anchor for the window. The
// returned status overrides the pipeline's own when non-empty (the
// no-credentials case, which the pipeline cannot distinguish from a
// transient equity failure).
func (a *App) collectData(ctx context.Context, window exchange.Window, offline bool) ([]models.RawTrade, models.EquitySnapshot, models.SnapshotStatus) {
	if offline {
		return a.cachedTrades(ctx, window), models.EquitySnapshot{}, ""
	}

	if !a.Config.Credentials.HasKeys() {
		cached := a.cachedTrades(ctx, window)
		if len(cached) == 0 {
			return nil, models.EquitySnapshot{}, models.StatusNoKeys
		}
		a.Logger.Warn().Msg("No API keys, building report from cache only")
		return cached, models.EquitySnapshot{}, ""
	}

	raw, err := a.syncTrades(ctx, window)
	if err != nil {
		a.Logger.Error().Err(err).Msg("Trade fetch failed, falling back to cache")
		raw = a.cachedTrades(ctx, window)
	}

	equity, err := a.Balances.FetchEquity(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Equity fetch failed, snapshot will be degraded")
		equity = models.EquitySnapshot{}
	}
	return raw, equity, ""
}

// syncTrades fetches fills for the window, persists them and returns the
// cache's view of the window so re-runs and overlapping fetches dedupe.
func (a *App) syncTrades(ctx context.Context, window exchange.Window) ([]models.RawTrade, error) {
	fetchWindow := window
	if a.Cache != nil {
		// Incremental sync: skip the part of the window already covered.
		// Both segments share one fetch window, so the older watermark
		// bounds what must be re-fetched.
		last := a.oldestWatermark(ctx)
		if last > fetchWindow.SinceMillis() {
			since := time.UnixMilli(last + 1)
			if since.Before(fetchWindow.Until) {
				fetchWindow.Since = since
			}
		}
	}

	result, err := a.Trades.FetchMyTrades(ctx, fetchWindow)
	if err != nil {
		return nil, err
	}

	if a.Cache == nil {
		return result.Trades, nil
	}

	if err := a.Cache.SaveTrades(ctx, result.Trades); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to persist fetched trades")
		return result.Trades, nil
	}

	// A segment's watermark only advances when its fetch ran to the end of
	// the window, and only to that segment's own newest fill; an incomplete
	// segment keeps its old watermark so the next run re-fetches the gap.
	newest := make(map[models.Segment]int64)
	for _, t := range result.Trades {
		if t.Timestamp > newest[t.Segment] {
			newest[t.Segment] = t.Timestamp
		}
	}
	for segment, ts := range newest {
		if !result.Complete[segment] {
			continue
		}
		if err := a.Cache.SetLastSync(ctx, segment, ts); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to update sync watermark")
		}
	}

	return a.Cache.GetTrades(ctx, window.SinceMillis(), window.Until.UnixMilli())
}

// oldestWatermark returns the older of the two segment sync watermarks,
// 0 when either segment has never been synced.
func (a *App) oldestWatermark(ctx context.Context) int64 {
	oldest := int64(-1)
	for _, segment := range []models.Segment{models.SegmentSpot, models.SegmentSwap} {
		last, err := a.Cache.LastSync(ctx, segment)
		if err != nil {
			return 0
		}
		if oldest < 0 || last < oldest {
			oldest = last
		}
	}
	if oldest < 0 {
		return 0
	}
	return oldest
}

func (a *App) cachedTrades(ctx context.Context, window exchange.Window) []models.RawTrade {
	if a.Cache == nil {
		return nil
	}
	trades, err := a.Cache.GetTrades(ctx, window.SinceMillis(), window.Until.UnixMilli())
	if err != nil {
		a.Logger.Error().Err(err).Msg("Trade cache read failed")
		return nil
	}
	return trades
}

// resolveRate looks up the EUR rate, or goes straight to the fallback in
// offline mode.
func (a *App) resolveRate(ctx context.Context, offline bool) float64 {
	if offline {
		return a.Config.FX.FallbackRate
	}
	return a.Rates.EURPerUSD(ctx)
}

func printReportSummary(output *Output, snapshot *models.Snapshot, outDir string) {
	output.Bold("MEXC Report")
	output.Printf("  Status:   %s\n", snapshot.Status)
	output.Printf("  Window:   %d days, %d trades\n", snapshot.Days, len(snapshot.Trades))
	if snapshot.Status == models.StatusOK {
		output.Printf("  Equity:   %s (%s)\n", utils.FormatUSDT(snapshot.EquityUSDT), utils.FormatEUR(snapshot.EquityEUR))
	}
	total := snapshot.Summary.TotalPnLUSDT
	output.Printf("  PnL:      %s\n", output.Signed(total, utils.FormatPnL(total)))
	output.Printf("  ROI:      %s\n", snapshot.Summary.ROIText)
	output.Success("Report written to %s", outDir)
}
