package model

import "github.com/shopspring/decimal"

// GainSummary rolls up realized and unrealized gain/loss for an account, optionally one ticker.
//
// UnrealizedGainLoss only includes tickers with an available price. When any
// ticker with open shares had no price, UnrealizedComplete is false and the
// ticker is listed in UnavailableTickers.
type GainSummary struct {
	AccountID          string          `json:"accountId"`
	Ticker             string          `json:"ticker,omitempty"`
	RealizedGainLoss   decimal.Decimal `json:"realizedGainLoss"`
	RealizedCostBasis  decimal.Decimal `json:"realizedCostBasis"`
	RealizedProceeds   decimal.Decimal `json:"realizedProceeds"`
	UnrealizedGainLoss decimal.Decimal `json:"unrealizedGainLoss"`
	UnrealizedComplete bool            `json:"unrealizedComplete"`
	UnavailableTickers []string        `json:"unavailableTickers"`
	Tickers            []TickerGain    `json:"tickers"`
}

// TickerGain is the per-ticker breakdown of a GainSummary.
type TickerGain struct {
	Ticker             string              `json:"ticker"`
	SharesRemaining    decimal.Decimal     `json:"sharesRemaining"`
	CostBasisRemaining decimal.Decimal     `json:"costBasisRemaining"`
	RealizedGainLoss   decimal.Decimal     `json:"realizedGainLoss"`
	PriceAvailable     bool                `json:"priceAvailable"`
	CurrentPrice       decimal.NullDecimal `json:"currentPrice"`
	MarketValue        decimal.NullDecimal `json:"marketValue"`
	UnrealizedGainLoss decimal.NullDecimal `json:"unrealizedGainLoss"`
}

// RealizedAssignment is an assignment joined with the ticker of its sale, as read for aggregation.
type RealizedAssignment struct {
	Assignment
	Ticker string
}
