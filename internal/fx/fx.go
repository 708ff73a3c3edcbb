// Package fx converts the report's USDT figures into EUR for display. The
// conversion is cosmetic, so any failure to reach the rate service degrades
// to a fixed fallback rate instead of failing the report.
package fx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kugelfisch1984/mexc-report/internal/config"
)

// FallbackEURPerUSD is used whenever the live rate cannot be fetched.
const FallbackEURPerUSD = 0.92

const requestTimeout = 10 * time.Second

// Converter resolves the EUR per USD rate, treating USDT as 1:1 with USD.
type Converter struct {
	cfg    config.FXConfig
	http   *http.Client
	logger zerolog.Logger
}

// New creates a Converter.
func New(cfg config.FXConfig, logger zerolog.Logger) *Converter {
	return &Converter{
		cfg:    cfg,
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger.With().Str("component", "fx").Logger(),
	}
}

type rateResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// EURPerUSD returns the current EUR per USD rate. Any failure, a missing
// EUR entry or a non-positive rate falls back to the configured rate, or
// FallbackEURPerUSD when none is configured.
func (c *Converter) EURPerUSD(ctx context.Context) float64 {
	rate, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Float64("fallback", c.fallback()).Msg("EUR rate unavailable, using fallback")
		return c.fallback()
	}
	return rate
}

func (c *Converter) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.RateURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, err
	}

	var decoded rateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return 0, err
	}

	rate, ok := decoded.Rates["EUR"]
	if !ok || rate <= 0 {
		return 0, errNoRate
	}
	return rate, nil
}

func (c *Converter) fallback() float64 {
	if c.cfg.FallbackRate > 0 {
		return c.cfg.FallbackRate
	}
	return FallbackEURPerUSD
}
