package request

import "github.com/shopspring/decimal"

type CreateSaleRequest struct {
	AccountID    string               `json:"accountId"`
	Ticker       string               `json:"ticker"`
	SaleDate     string               `json:"saleDate"`
	Quantity     decimal.Decimal      `json:"quantity"`
	UnitPrice    decimal.Decimal      `json:"unitPrice"`
	Reinvestment *ReinvestmentRequest `json:"reinvestment,omitempty"`
}

// ReinvestmentRequest buys a new lot from part of a sale's proceeds on the sale date.
type ReinvestmentRequest struct {
	Ticker    string              `json:"ticker"`
	Amount    decimal.Decimal     `json:"amount"`
	UnitPrice decimal.NullDecimal `json:"unitPrice"`
}

type LinkReinvestmentRequest struct {
	LotID  string          `json:"lotId"`
	Amount decimal.Decimal `json:"amount"`
}
