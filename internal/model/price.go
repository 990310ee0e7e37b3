package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CachedPrice is a closing price remembered in the price cache.
type CachedPrice struct {
	Ticker     string          `json:"ticker"`
	Date       time.Time       `json:"date"`
	ClosePrice decimal.Decimal `json:"closePrice"`
	FetchedAt  time.Time       `json:"fetchedAt"`
}
