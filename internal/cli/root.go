package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kugelfisch1984/mexc-report/internal/config"
	"github.com/kugelfisch1984/mexc-report/internal/exchange"
	"github.com/kugelfisch1984/mexc-report/internal/exchange/mexc"
	"github.com/kugelfisch1984/mexc-report/internal/fx"
	"github.com/kugelfisch1984/mexc-report/internal/logging"
	"github.com/kugelfisch1984/mexc-report/internal/report"
	"github.com/kugelfisch1984/mexc-report/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Trades   exchange.TradeSource
	Balances exchange.BalanceSource
	Rates    *fx.Converter
	Cache    *store.TradeCache
	Renderer *report.Renderer
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	client := mexc.New(cfg.Exchange, cfg.Credentials, logger)

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Trades:   client,
		Balances: client,
		Rates:    fx.New(cfg.FX, logger),
		Renderer: report.NewRenderer(logger),
	}

	cache, err := store.NewTradeCache(cfg.Report.CacheDB)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open trade cache, offline mode unavailable")
	} else {
		app.Cache = cache
		logger.Debug().Str("path", cfg.Report.CacheDB).Msg("Trade cache opened")
	}

	rootCmd := &cobra.Command{
		Use:   "mexc-report",
		Short: "MEXC account report generator",
		Long: `mexc-report reconstructs a MEXC account's PnL history from its fills
and renders a static dashboard: equity curve, daily PnL, copy-trade
attribution and CSV exports.

It covers the spot and USDT-margined swap segments. Fetched fills are
cached locally so reports can be rebuilt offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/mexc-report)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newReportCmd(app))
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newBalanceCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("mexc-report v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Report")
	output.Printf("  Days:      %d\n", cfg.Report.Days)
	output.Printf("  Out dir:   %s\n", cfg.Report.OutDir)
	output.Printf("  Cache DB:  %s\n", cfg.Report.CacheDB)
	output.Println()

	output.Bold("Exchange")
	output.Printf("  Spot URL:  %s\n", cfg.Exchange.SpotBaseURL)
	output.Printf("  Swap URL:  %s\n", cfg.Exchange.SwapBaseURL)
	output.Printf("  Rate:      %.1f req/s\n", cfg.Exchange.RequestsPerSec)
	output.Printf("  Max fills: %d\n", cfg.Exchange.MaxTrades)
	output.Println()

	output.Bold("Credentials")
	if cfg.Credentials.HasKeys() {
		output.Success("  API keys configured")
	} else {
		output.Warning("  No API keys (set MEXC_KEY / MEXC_SECRET or edit credentials.toml)")
	}
	return nil
}
