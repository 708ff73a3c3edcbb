package cli

import (
	"github.com/spf13/cobra"

	"github.com/kugelfisch1984/mexc-report/internal/logging"
	"github.com/kugelfisch1984/mexc-report/pkg/utils"
)

func newBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the current account value",
		Long:  "Values all spot balances and swap assets in USDT at current market prices.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			equity, err := app.Balances.FetchEquity(ctx)
			if err != nil {
				output.Error("Balance fetch failed: %v", err)
				return err
			}
			ctxLogger := logging.FromContext(ctx)
			ctxLogger.Debug().
				Int("positions", len(equity.Positions)).
				Float64("total_usdt", equity.TotalUSDT).
				Msg("Equity fetched")

			rate := app.Rates.EURPerUSD(ctx)

			if output.IsJSON() {
				return output.JSON(map[string]any{
					"total_usdt":   equity.TotalUSDT,
					"total_eur":    equity.TotalUSDT * rate,
					"eur_per_usdt": rate,
					"positions":    equity.Positions,
					"fetched_at":   equity.FetchedAt,
				})
			}

			output.Bold("%-6s %-10s %16s %14s %16s", "TYPE", "ASSET", "QTY", "PRICE", "VALUE (USDT)")
			for _, p := range equity.Positions {
				output.Printf("%-6s %-10s %16.6f %14.4f %16.2f\n",
					p.Segment, p.Asset, p.Quantity, p.PriceUSDT, p.ValueUSDT)
			}
			output.Println()
			output.Printf("Total: %s (%s)\n",
				utils.FormatUSDT(equity.TotalUSDT), utils.FormatEUR(equity.TotalUSDT*rate))
			return nil
		},
	}
}
