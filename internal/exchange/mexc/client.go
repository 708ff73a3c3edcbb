// Package mexc implements the exchange contracts against the MEXC REST
// API, covering the spot and USDT-margined swap segments. It owns request
// signing, pagination, pacing and retries so the pipeline never has to.
package mexc

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/kugelfisch1984/mexc-report/internal/config"
	apperrors "github.com/kugelfisch1984/mexc-report/internal/errors"
	"github.com/kugelfisch1984/mexc-report/internal/exchange"
	"github.com/kugelfisch1984/mexc-report/internal/models"
	"github.com/kugelfisch1984/mexc-report/internal/resilience"
	"github.com/kugelfisch1984/mexc-report/pkg/utils"
)

const requestTimeout = 20 * time.Second

// Client talks to the MEXC REST API. It implements exchange.TradeSource
// and exchange.BalanceSource.
type Client struct {
	cfg    config.ExchangeConfig
	creds  config.Credentials
	http   *http.Client
	logger zerolog.Logger

	limiter *rate.Limiter
	retry   utils.RetryConfig
	spotCB  *resilience.CircuitBreaker
	swapCB  *resilience.CircuitBreaker
}

// New creates a MEXC client.
func New(cfg config.ExchangeConfig, creds config.Credentials, logger zerolog.Logger) *Client {
	return &Client{
		cfg:     cfg,
		creds:   creds,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger.With().Str("component", "mexc").Logger(),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		retry:   utils.DefaultRetryConfig(),
		spotCB:  resilience.NewCircuitBreaker("mexc-spot", resilience.DefaultConfig()),
		swapCB:  resilience.NewCircuitBreaker("mexc-swap", resilience.DefaultConfig()),
	}
}

// FetchMyTrades returns all fills within the window across both segments.
// A segment or symbol that fails transiently is skipped with a warning and
// the segment is marked incomplete in the result; only fatal errors (bad
// credentials, rejected signature, cancelled context) abort the run.
func (c *Client) FetchMyTrades(ctx context.Context, window exchange.Window) (exchange.FetchResult, error) {
	if !c.creds.HasKeys() {
		return exchange.FetchResult{}, apperrors.ErrNoCredentials
	}

	result := exchange.FetchResult{Complete: make(map[models.Segment]bool)}

	spot, err := c.fetchSpotTrades(ctx, window, c.cfg.MaxTrades)
	if err != nil {
		if exchange.Classify(err) == exchange.OutcomeFatal {
			return exchange.FetchResult{}, err
		}
		c.logger.Warn().Err(err).Msg("Spot trade fetch incomplete")
	} else {
		result.Complete[models.SegmentSpot] = true
	}
	result.Trades = append(result.Trades, spot...)

	remaining := c.cfg.MaxTrades - len(result.Trades)
	swap, err := c.fetchSwapTrades(ctx, window, remaining)
	if err != nil {
		if exchange.Classify(err) == exchange.OutcomeFatal {
			return exchange.FetchResult{}, err
		}
		c.logger.Warn().Err(err).Msg("Swap trade fetch incomplete")
	} else {
		result.Complete[models.SegmentSwap] = true
	}
	result.Trades = append(result.Trades, swap...)

	return result, nil
}

// FetchEquity values all balances of both segments in USDT at current
// market prices. Stable coins count at 1.0; assets without a USDT market
// are valued at zero. A segment that cannot be queried is skipped; the
// snapshot is unavailable only when both segments fail.
func (c *Client) FetchEquity(ctx context.Context) (models.EquitySnapshot, error) {
	if !c.creds.HasKeys() {
		return models.EquitySnapshot{}, apperrors.ErrNoCredentials
	}

	snap := models.EquitySnapshot{FetchedAt: time.Now().UTC()}

	spot, spotErr := c.fetchSpotBalances(ctx)
	if spotErr != nil {
		if exchange.Classify(spotErr) == exchange.OutcomeFatal {
			return models.EquitySnapshot{}, spotErr
		}
		c.logger.Warn().Err(spotErr).Msg("Spot balance fetch failed")
	}
	swap, swapErr := c.fetchSwapBalances(ctx)
	if swapErr != nil {
		if exchange.Classify(swapErr) == exchange.OutcomeFatal {
			return models.EquitySnapshot{}, swapErr
		}
		c.logger.Warn().Err(swapErr).Msg("Swap balance fetch failed")
	}

	if spotErr != nil && swapErr != nil {
		return models.EquitySnapshot{}, fmt.Errorf("no segment reachable: %w", spotErr)
	}

	snap.Available = true
	for _, p := range append(spot, swap...) {
		snap.Positions = append(snap.Positions, p)
		snap.TotalUSDT += p.ValueUSDT
	}
	return snap, nil
}

// getJSON performs one GET against a segment with pacing, circuit breaking
// and transient-only retries, decoding the response body into out.
func (c *Client) getJSON(ctx context.Context, segment models.Segment, path string, params url.Values, signed bool, out any) error {
	breaker := c.spotCB
	if segment == models.SegmentSwap {
		breaker = c.swapCB
	}

	return utils.Retry(ctx, c.retry, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return utils.Permanent(err)
		}

		err := breaker.Execute(func() error {
			return c.doRequest(ctx, segment, path, params, signed, out)
		})
		if err != nil && exchange.Classify(err) != exchange.OutcomeTransient {
			return utils.Permanent(err)
		}
		return err
	})
}

func (c *Client) doRequest(ctx context.Context, segment models.Segment, path string, params url.Values, signed bool, out any) error {
	if params == nil {
		params = url.Values{}
	}

	var req *http.Request
	var err error
	switch segment {
	case models.SegmentSwap:
		req, err = c.newSwapRequest(ctx, path, params, signed)
	default:
		req, err = c.newSpotRequest(ctx, path, params, signed)
	}
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return apperrors.Wrap(err, "reading response")
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return apperrors.Wrapf(apperrors.ErrInvalidSignature, "%s %s: status %d", segment, path, resp.StatusCode)
		}
		return apperrors.NewExchangeError(string(segment), path, resp.StatusCode, truncate(string(body), 200), nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewExchangeError(string(segment), path, resp.StatusCode, "undecodable response", err)
	}
	return nil
}

// newSpotRequest builds a spot API request. Signed requests carry the query
// string's HMAC-SHA256 as the signature parameter and the API key header.
func (c *Client) newSpotRequest(ctx context.Context, path string, params url.Values, signed bool) (*http.Request, error) {
	if signed {
		params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		params.Set("recvWindow", "10000")
		params.Set("signature", c.sign(params.Encode()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.SpotBaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if signed {
		req.Header.Set("X-MEXC-APIKEY", c.creds.APIKey)
	}
	return req, nil
}

// newSwapRequest builds a contract API request. The swap segment signs
// key + request time + query string into a Signature header.
func (c *Client) newSwapRequest(ctx context.Context, path string, params url.Values, signed bool) (*http.Request, error) {
	query := params.Encode()

	rawURL := c.cfg.SwapBaseURL + path
	if query != "" {
		rawURL += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	if signed {
		reqTime := strconv.FormatInt(time.Now().UnixMilli(), 10)
		req.Header.Set("ApiKey", c.creds.APIKey)
		req.Header.Set("Request-Time", reqTime)
		req.Header.Set("Signature", c.sign(c.creds.APIKey+reqTime+query))
	}
	return req, nil
}

func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.creds.APISecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
