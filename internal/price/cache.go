package price

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
)

// Store persists cached closes. *repository.PriceRepository satisfies it.
type Store interface {
	GetPrice(ctx context.Context, ticker string, date time.Time) (model.CachedPrice, bool, error)
	UpsertPrice(ctx context.Context, p model.CachedPrice) error
}

// CachedOracle fronts another Oracle with the price_cache table.
//
// Current prices are reused for ttl. Closes for past dates never change and
// are reused indefinitely. Concurrent misses for the same key share a single
// upstream call, which runs detached from any one caller's cancellation and is
// bounded by fetchTimeout. When the upstream fails and a stale current price is cached,
// the stale value is returned.
type CachedOracle struct {
	inner Oracle
	store Store
	ttl   time.Duration
	group singleflight.Group
	// fetchTimeout bounds a shared upstream call.
	fetchTimeout time.Duration
	logger       *logrus.Entry
	now          func() time.Time
}

// NewCachedOracle wraps inner with store-backed caching.
func NewCachedOracle(inner Oracle, store Store, ttl time.Duration, logger *logrus.Logger) *CachedOracle {
	return &CachedOracle{
		inner:        inner,
		store:        store,
		ttl:          ttl,
		fetchTimeout: 30 * time.Second,
		logger:       logger.WithField("component", "price_cache"),
		now:          time.Now,
	}
}

// CurrentPrice returns today's cached price while it is fresh, otherwise asks
// the wrapped oracle.
func (c *CachedOracle) CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	now := c.now().UTC()
	today := now.Truncate(24 * time.Hour)

	cached, ok, err := c.store.GetPrice(ctx, ticker, today)
	if err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("price cache read failed")
	}
	if ok && now.Sub(cached.FetchedAt) < c.ttl {
		return cached.ClosePrice, nil
	}

	price, err := c.fetchCurrent(ctx, ticker, today)
	if err != nil {
		if ok && ctx.Err() == nil {
			c.logger.WithError(err).WithField("ticker", ticker).Warn("serving stale price")
			return cached.ClosePrice, nil
		}
		return decimal.Zero, err
	}
	return price, nil
}

// PriceOnDate returns the close on date, consulting the cache first.
func (c *CachedOracle) PriceOnDate(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, error) {
	day := date.UTC().Truncate(24 * time.Hour)
	today := c.now().UTC().Truncate(24 * time.Hour)

	if !day.Before(today) {
		return c.CurrentPrice(ctx, ticker)
	}

	cached, ok, err := c.store.GetPrice(ctx, ticker, day)
	if err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("price cache read failed")
	}
	if ok {
		return cached.ClosePrice, nil
	}

	key := fmt.Sprintf("%s|%s", ticker, day.Format("2006-01-02"))
	return c.shared(ctx, key, func(fetchCtx context.Context) (decimal.Decimal, error) {
		price, err := c.inner.PriceOnDate(fetchCtx, ticker, day)
		if err != nil {
			return decimal.Zero, err
		}
		c.remember(fetchCtx, ticker, day, price)
		return price, nil
	})
}

// Refresh fetches the current price for ticker regardless of cache age.
func (c *CachedOracle) Refresh(ctx context.Context, ticker string) (decimal.Decimal, error) {
	return c.fetchCurrent(ctx, ticker, c.now().UTC().Truncate(24*time.Hour))
}

func (c *CachedOracle) fetchCurrent(ctx context.Context, ticker string, today time.Time) (decimal.Decimal, error) {
	return c.shared(ctx, ticker+"|current", func(fetchCtx context.Context) (decimal.Decimal, error) {
		price, err := c.inner.CurrentPrice(fetchCtx, ticker)
		if err != nil {
			return decimal.Zero, err
		}
		c.remember(fetchCtx, ticker, today, price)
		return price, nil
	})
}

// shared runs fetch once per key among concurrent callers. Each caller stops
// waiting when its own ctx is done; the fetch itself keeps the values of ctx
// but not its cancellation.
func (c *CachedOracle) shared(ctx context.Context, key string, fetch func(context.Context) (decimal.Decimal, error)) (decimal.Decimal, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return fetch(fetchCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return decimal.Zero, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	}
}

func (c *CachedOracle) remember(ctx context.Context, ticker string, day time.Time, price decimal.Decimal) {
	err := c.store.UpsertPrice(ctx, model.CachedPrice{
		Ticker:     ticker,
		Date:       day,
		ClosePrice: price,
		FetchedAt:  c.now().UTC(),
	})
	if err != nil {
		c.logger.WithError(err).WithField("ticker", ticker).Warn("price cache write failed")
	}
}
