package cli

import (
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/kugelfisch1984/mexc-report/internal/errors"
	"github.com/kugelfisch1984/mexc-report/internal/exchange"
	"github.com/kugelfisch1984/mexc-report/internal/models"
	"github.com/kugelfisch1984/mexc-report/internal/pnl"
)

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "List normalized fills",
		Long:  "Fetches fills for the lookback window and prints them normalized, newest last.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			days, _ := cmd.Flags().GetInt("days")
			if days <= 0 {
				days = app.Config.Report.Days
			}
			offline, _ := cmd.Flags().GetBool("offline")
			copyOnly, _ := cmd.Flags().GetBool("copy")

			ctx := cmd.Context()
			window := exchange.LastDays(days, time.Now().UTC())

			var raw []models.RawTrade
			if offline || !app.Config.Credentials.HasKeys() {
				raw = app.cachedTrades(ctx, window)
				if raw == nil && !app.Config.Credentials.HasKeys() {
					output.Error("No API keys and no cached trades")
					return apperrors.ErrNoCredentials
				}
			} else {
				var err error
				if raw, err = app.syncTrades(ctx, window); err != nil {
					output.Error("Trade fetch failed: %v", err)
					return err
				}
			}

			trades := pnl.Normalize(raw)
			if copyOnly {
				trades = pnl.FilterCopyTrades(trades)
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			printTrades(output, trades, days)
			return nil
		},
	}

	cmd.Flags().Int("days", 0, "lookback window in days (default from config)")
	cmd.Flags().Bool("offline", false, "read from the local trade cache only")
	cmd.Flags().Bool("copy", false, "only trades with copy-trade metadata")
	return cmd
}

func printTrades(output *Output, trades []models.NormalizedTrade, days int) {
	if len(trades) == 0 {
		output.Warning("No trades in the last %d days", days)
		return
	}

	output.Bold("%-12s %-14s %-5s %12s %12s %10s %-5s %s",
		"DATE", "SYMBOL", "SIDE", "COST", "FEE", "FEE CCY", "COPY", "TRADER")
	for _, t := range trades {
		copyMark := ""
		if t.IsCopy {
			copyMark = "yes"
		}
		date := t.Date
		if date == "" {
			date = "(no date)"
		}
		output.Printf("%-12s %-14s %-5s %12.2f %12.4f %10s %-5s %s\n",
			date, t.Symbol, t.Side, t.Cost, t.FeeCost, t.FeeCurrency, copyMark, t.CopyTrader)
	}
	output.Println()
	output.Dim("%d trades", len(trades))
}
