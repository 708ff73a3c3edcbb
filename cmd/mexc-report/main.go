// Command mexc-report generates a static PnL dashboard for a MEXC account.
// It loads configuration, wires the exchange client, cache and renderers,
// and hands control to the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kugelfisch1984/mexc-report/internal/cli"
	"github.com/kugelfisch1984/mexc-report/internal/config"
	"github.com/kugelfisch1984/mexc-report/internal/logging"
)

func main() {
	// A local .env can carry MEXC_KEY / MEXC_SECRET, matching how the
	// scheduled CI run injects credentials. Missing file is fine.
	_ = godotenv.Load()

	configDir := configDirFromArgs(os.Args[1:])

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDirFromArgs pre-parses the --config flag: the directory is needed
// before cobra runs, because loading it decides how the CLI is wired.
func configDirFromArgs(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case len(arg) > len("--config=") && arg[:len("--config=")] == "--config=":
			return arg[len("--config="):]
		}
	}
	return ""
}
