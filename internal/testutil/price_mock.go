package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
)

// MockOracle is an in-memory price oracle for tests.
// Tickers without a configured price are unavailable.
type MockOracle struct {
	mu      sync.Mutex
	current map[string]decimal.Decimal
	onDate  map[string]decimal.Decimal
	// Err, when set, is returned from every lookup.
	Err   error
	calls int
}

// NewMockOracle creates an empty MockOracle.
func NewMockOracle() *MockOracle {
	return &MockOracle{
		current: make(map[string]decimal.Decimal),
		onDate:  make(map[string]decimal.Decimal),
	}
}

// WithPrice sets the current price of ticker from a decimal string.
func (m *MockOracle) WithPrice(ticker, price string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[ticker] = decimal.RequireFromString(price)
	return m
}

// WithPriceOn sets the close of ticker on date from a decimal string.
func (m *MockOracle) WithPriceOn(ticker string, date time.Time, price string) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDate[dateKey(ticker, date)] = decimal.RequireFromString(price)
	return m
}

// WithError makes every lookup fail with err.
func (m *MockOracle) WithError(err error) *MockOracle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
	return m
}

// Calls returns how many lookups were made.
func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// CurrentPrice returns the configured current price.
func (m *MockOracle) CurrentPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	p, ok := m.current[ticker]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrPriceUnavailable, ticker)
	}
	return p, nil
}

// PriceOnDate returns the configured close on date.
func (m *MockOracle) PriceOnDate(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	p, ok := m.onDate[dateKey(ticker, date)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s on %s", apperrors.ErrPriceUnavailable, ticker, date.Format("2006-01-02"))
	}
	return p, nil
}

func dateKey(ticker string, date time.Time) string {
	return ticker + "|" + date.UTC().Format("2006-01-02")
}
