package mexc

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kugelfisch1984/mexc-report/internal/exchange"
	"github.com/kugelfisch1984/mexc-report/internal/logging"
	"github.com/kugelfisch1984/mexc-report/internal/models"
)

type swapContractDetail struct {
	Data []struct {
		Symbol       string  `json:"symbol"`
		QuoteCoin    string  `json:"quoteCoin"`
		ContractSize float64 `json:"contractSize"`
	} `json:"data"`
}

type swapDealsResponse struct {
	Success bool             `json:"success"`
	Code    int              `json:"code"`
	Data    []map[string]any `json:"data"`
}

type swapAssetsResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Currency string  `json:"currency"`
		Equity   float64 `json:"equity"`
	} `json:"data"`
}

// swapContracts lists linear USDT-quoted perpetual contracts with their
// contract sizes (vol is denominated in contracts, not base units).
func (c *Client) swapContracts(ctx context.Context) (map[string]float64, error) {
	var detail swapContractDetail
	if err := c.getJSON(ctx, models.SegmentSwap, "/api/v1/contract/detail", nil, false, &detail); err != nil {
		return nil, err
	}

	contracts := make(map[string]float64)
	for _, d := range detail.Data {
		if d.QuoteCoin != "USDT" {
			continue
		}
		size := d.ContractSize
		if size == 0 {
			size = 1
		}
		contracts[d.Symbol] = size
	}
	return contracts, nil
}

// fetchSwapTrades pages through order deals for every linear USDT contract.
func (c *Client) fetchSwapTrades(ctx context.Context, window exchange.Window, maxTrades int) ([]models.RawTrade, error) {
	contracts, err := c.swapContracts(ctx)
	if err != nil {
		return nil, err
	}

	logger := logging.WithSegment(c.logger, string(models.SegmentSwap))

	var out []models.RawTrade
	for symbol, contractSize := range contracts {
		if maxTrades > 0 && len(out) >= maxTrades {
			logger.Warn().Int("max_trades", maxTrades).Msg("Trade cap reached, stopping swap fetch")
			break
		}

		start := time.Now()
		trades, err := c.fetchSwapSymbolTrades(ctx, symbol, contractSize, window)
		if err != nil {
			if exchange.Classify(err) == exchange.OutcomeFatal {
				return out, err
			}
			symLogger := logging.WithSymbol(logger, symbol)
			symLogger.Debug().Err(err).Msg("Skipping symbol")
			continue
		}
		if len(trades) > 0 {
			logging.LogFetch(c.logger, string(models.SegmentSwap), symbol, len(trades), time.Since(start))
		}
		out = append(out, trades...)
	}
	return out, nil
}

func (c *Client) fetchSwapSymbolTrades(ctx context.Context, symbol string, contractSize float64, window exchange.Window) ([]models.RawTrade, error) {
	var out []models.RawTrade

	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("symbol", symbol)
		params.Set("start_time", strconv.FormatInt(window.SinceMillis(), 10))
		params.Set("end_time", strconv.FormatInt(window.Until.UnixMilli(), 10))
		params.Set("page_num", strconv.Itoa(page))
		params.Set("page_size", strconv.Itoa(c.cfg.PageLimit))

		var resp swapDealsResponse
		if err := c.getJSON(ctx, models.SegmentSwap, "/api/v1/private/order/list/order_deals", params, true, &resp); err != nil {
			return out, err
		}

		for _, raw := range resp.Data {
			out = append(out, swapTradeFromJSON(raw, contractSize))
		}
		if len(resp.Data) < c.cfg.PageLimit {
			return out, nil
		}
	}
}

// swapTradeFromJSON maps one contract deal onto a RawTrade. Deal sides 1
// (open long) and 2 (close short) add exposure and count as buys; 3 (open
// short) and 4 (close long) count as sells. Cost is price · vol ·
// contract size, in USDT for linear contracts.
func swapTradeFromJSON(raw map[string]any, contractSize float64) models.RawTrade {
	side := "buy"
	switch int(jsonFloat(raw, "side")) {
	case 3, 4:
		side = "sell"
	}

	price := jsonFloat(raw, "price")
	vol := jsonFloat(raw, "vol")
	amount := vol * contractSize

	feeCurrency := jsonString(raw, "feeCurrency")
	if feeCurrency == "" {
		feeCurrency = "USDT"
	}

	return models.RawTrade{
		ID:        jsonString(raw, "id"),
		Timestamp: int64(jsonFloat(raw, "timestamp")),
		Symbol:    strings.ReplaceAll(jsonString(raw, "symbol"), "_", "/"),
		Side:      side,
		Price:     price,
		Amount:    amount,
		Cost:      price * amount,
		Fee: models.Fee{
			Cost:     jsonFloat(raw, "fee"),
			Currency: feeCurrency,
		},
		Segment: models.SegmentSwap,
		Info:    raw,
	}
}

// fetchSwapBalances values the contract account's assets in USDT. Equity
// is reported per currency; stable coins count at 1.0 and anything else is
// valued off the spot ticker.
func (c *Client) fetchSwapBalances(ctx context.Context) ([]models.PositionValue, error) {
	var resp swapAssetsResponse
	if err := c.getJSON(ctx, models.SegmentSwap, "/api/v1/private/account/assets", nil, true, &resp); err != nil {
		return nil, err
	}

	var out []models.PositionValue
	var prices map[string]float64
	for _, a := range resp.Data {
		if a.Equity == 0 {
			continue
		}

		price := usdtPrice(a.Currency, nil)
		if price == 0 {
			if prices == nil {
				var err error
				if prices, err = c.spotPrices(ctx); err != nil {
					return nil, err
				}
			}
			price = usdtPrice(a.Currency, prices)
		}

		out = append(out, models.PositionValue{
			Segment:   models.SegmentSwap,
			Asset:     a.Currency,
			Quantity:  a.Equity,
			PriceUSDT: price,
			ValueUSDT: a.Equity * price,
		})
	}
	return out, nil
}
