// Package price supplies market prices to the ledger.
//
// An Oracle answers two questions: the current price of a ticker and its
// close on a given date. YahooOracle talks to the chart API, CachedOracle
// keeps answers in the price_cache table, and Refresher warms that cache on a
// cron schedule.
package price

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/yahoo"
)

// lookback is how far PriceOnDate walks back to find a trading day.
const lookback = 7 * 24 * time.Hour

// Oracle resolves market prices. Implementations return an error wrapping
// apperrors.ErrPriceUnavailable when no price can be produced.
type Oracle interface {
	CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
	PriceOnDate(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, error)
}

// YahooOracle reads prices from the Yahoo Finance chart API.
type YahooOracle struct {
	client *yahoo.FinanceClient
}

// NewYahooOracle creates an Oracle backed by client.
func NewYahooOracle(client *yahoo.FinanceClient) *YahooOracle {
	return &YahooOracle{client: client}
}

// CurrentPrice returns the latest close Yahoo reports for ticker.
func (o *YahooOracle) CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	resp, err := o.client.QueryYahooFiveDaySymbol(ctx, ticker)
	if err != nil {
		return decimal.Zero, unavailable(ticker, err)
	}
	chart, err := o.client.ParseChart(resp)
	if err != nil {
		return decimal.Zero, unavailable(ticker, err)
	}
	latest, ok := chart.Latest()
	if !ok {
		return decimal.Zero, unavailable(ticker, fmt.Errorf("empty chart"))
	}
	return toDecimal(ticker, latest.PriceClose)
}

// PriceOnDate returns the close on date, or on the closest earlier trading
// day within a week when date was not a trading day.
func (o *YahooOracle) PriceOnDate(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, error) {
	day := date.UTC().Truncate(24 * time.Hour)

	resp, err := o.client.QueryYahooSymbolByDateRange(ctx, ticker, day.Add(-lookback), day.Add(24*time.Hour))
	if err != nil {
		return decimal.Zero, unavailable(ticker, err)
	}
	chart, err := o.client.ParseChart(resp)
	if err != nil {
		return decimal.Zero, unavailable(ticker, err)
	}

	if ind, ok := chart.GetIndicatorForDate(day); ok {
		return toDecimal(ticker, ind.PriceClose)
	}

	var best *yahoo.Indicators
	for i := range chart.Indicators {
		ind := &chart.Indicators[i]
		if ind.Date.After(day) {
			continue
		}
		if best == nil || ind.Date.After(best.Date) {
			best = ind
		}
	}
	if best == nil {
		return decimal.Zero, unavailable(ticker, fmt.Errorf("no close on or before %s", day.Format("2006-01-02")))
	}
	return toDecimal(ticker, best.PriceClose)
}

func toDecimal(ticker string, v float64) (decimal.Decimal, error) {
	d := decimal.NewFromFloat(v)
	if !d.IsPositive() {
		return decimal.Zero, unavailable(ticker, fmt.Errorf("non-positive close %s", d))
	}
	return d, nil
}

func unavailable(ticker string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrPriceUnavailable, ticker, err)
}
