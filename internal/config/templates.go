package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# MEXC Report Configuration

[report]
# Lookback window for trade history, in days
days = 14
# Output directory for the dashboard and data files (GitHub Pages friendly)
out_dir = "site"
# Build the report from the local trade cache without contacting the exchange
offline = false

[exchange]
spot_base_url = "https://api.mexc.com"
swap_base_url = "https://contract.mexc.com"
# Request pacing against the exchange API
requests_per_sec = 5.0
# Hard cap on fills fetched per run
max_trades = 10000
# Fills per myTrades page (exchange maximum is 1000)
page_limit = 200

[fx]
rate_url = "https://api.exchangerate.host/latest?base=USD&symbols=EUR"
# EUR per USD when the rate service is unreachable
fallback_rate = 0.92
`

const credentialsTemplate = `# MEXC API Credentials
# Prefer the MEXC_KEY / MEXC_SECRET environment variables in CI; this file
# is for local use only.

api_key = ""
api_secret = ""
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	// Credentials are secrets; restrict the file mode.
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}
	return nil
}
