package price

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// TickerSource lists the tickers worth keeping warm.
// *repository.LotRepository satisfies it.
type TickerSource interface {
	GetTickers(ctx context.Context) ([]string, error)
}

// Refresher periodically reloads current prices into the cache.
type Refresher struct {
	oracle  *CachedOracle
	tickers TickerSource
	cron    *cron.Cron
	timeout time.Duration
	logger  *logrus.Entry
}

// NewRefresher creates a Refresher. Call Start to schedule it.
func NewRefresher(oracle *CachedOracle, tickers TickerSource, logger *logrus.Logger) *Refresher {
	return &Refresher{
		oracle:  oracle,
		tickers: tickers,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		timeout: 2 * time.Minute,
		logger:  logger.WithField("component", "price_refresher"),
	}
}

// Start schedules RefreshAll with a standard five-field cron spec.
func (r *Refresher) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if _, err := r.RefreshAll(ctx); err != nil {
			r.logger.WithError(err).Error("price refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	r.cron.Start()
	r.logger.WithField("schedule", schedule).Info("price refresh scheduled")
	return nil
}

// Stop halts scheduling and waits for a running refresh to finish or ctx to expire.
func (r *Refresher) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RefreshAll refreshes every known ticker and returns how many succeeded.
// Individual ticker failures are logged and joined into the returned error.
func (r *Refresher) RefreshAll(ctx context.Context) (int, error) {
	tickers, err := r.tickers.GetTickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list tickers: %w", err)
	}

	var errs []error
	refreshed := 0
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		price, err := r.oracle.Refresh(ctx, ticker)
		if err != nil {
			r.logger.WithError(err).WithField("ticker", ticker).Warn("price refresh failed for ticker")
			errs = append(errs, err)
			continue
		}
		refreshed++
		r.logger.WithFields(logrus.Fields{"ticker": ticker, "price": price.String()}).Debug("price refreshed")
	}

	r.logger.WithFields(logrus.Fields{"refreshed": refreshed, "tickers": len(tickers)}).Info("price refresh complete")
	return refreshed, errors.Join(errs...)
}
