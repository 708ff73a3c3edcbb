// Package exchange defines the contracts between the report pipeline and
// the exchange connectivity layer. The pipeline itself performs no I/O;
// implementations of these interfaces own pagination, pacing and retries.
package exchange

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/kugelfisch1984/mexc-report/internal/errors"
	"github.com/kugelfisch1984/mexc-report/internal/models"
)

// Window is the closed time interval trades are fetched for.
type Window struct {
	Since time.Time
	Until time.Time
}

// LastDays returns a window covering the past n days up to now.
func LastDays(n int, now time.Time) Window {
	return Window{Since: now.AddDate(0, 0, -n), Until: now}
}

// SinceMillis returns the window start as epoch milliseconds.
func (w Window) SinceMillis() int64 {
	return w.Since.UnixMilli()
}

// FetchResult is the outcome of one trade fetch across segments. Complete
// records, per segment, whether that segment's fetch ran to the end of the
// window; a segment that failed part-way still contributes the fills it got
// but must not have its sync watermark advanced.
type FetchResult struct {
	Trades   []models.RawTrade
	Complete map[models.Segment]bool
}

// TradeSource returns all fills for the authenticated account within a
// window, across all market segments the implementation covers.
type TradeSource interface {
	FetchMyTrades(ctx context.Context, window Window) (FetchResult, error)
}

// BalanceSource returns the current total account value in USDT terms.
type BalanceSource interface {
	FetchEquity(ctx context.Context) (models.EquitySnapshot, error)
}

// FetchOutcome classifies a failed fetch attempt.
type FetchOutcome int

const (
	// OutcomeOK means the fetch succeeded.
	OutcomeOK FetchOutcome = iota
	// OutcomeTransient means the attempt may succeed if repeated: network
	// hiccups, rate limiting, 5xx responses, open circuit.
	OutcomeTransient
	// OutcomeRejected means the venue understood and refused the request
	// (4xx). Retrying is pointless but the failure is confined to one
	// endpoint or symbol; callers skip it and move on.
	OutcomeRejected
	// OutcomeFatal means the whole run cannot proceed: bad credentials,
	// rejected signatures, cancelled context.
	OutcomeFatal
)

// Classify maps an error from a fetch attempt onto the outcome taxonomy.
func Classify(err error) FetchOutcome {
	if err == nil {
		return OutcomeOK
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeFatal
	}
	if errors.Is(err, apperrors.ErrNoCredentials) || errors.Is(err, apperrors.ErrInvalidSignature) {
		return OutcomeFatal
	}
	if errors.Is(err, apperrors.ErrCircuitOpen) || errors.Is(err, apperrors.ErrRateLimited) {
		return OutcomeTransient
	}

	var exErr *apperrors.ExchangeError
	if errors.As(err, &exErr) {
		if exErr.Transient() {
			return OutcomeTransient
		}
		return OutcomeRejected
	}

	// Unknown errors are treated as transient; the per-symbol loops skip
	// and move on rather than abort the whole run.
	return OutcomeTransient
}
