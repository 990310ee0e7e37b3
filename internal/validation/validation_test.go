package validation

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
)

const accountID = "550e8400-e29b-41d4-a716-446655440000"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

// fieldErrors returns the field map of a validation Error, or nil.
func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var vErr *Error
	if !errors.As(err, &vErr) {
		return nil
	}
	return vErr.Fields
}

func TestValidateCreateLot(t *testing.T) {
	tests := []struct {
		name      string
		req       request.CreateLotRequest
		wantField string
	}{
		{
			name: "quantity mode",
			req:  request.CreateLotRequest{AccountID: accountID, Ticker: "vti", AcquiredOn: "2024-01-02", Quantity: nd("10"), UnitCost: nd("25")},
		},
		{
			name: "amount mode",
			req:  request.CreateLotRequest{AccountID: accountID, Ticker: "BRK.B", AcquiredOn: "2024-01-02", Amount: nd("1000")},
		},
		{
			name:      "both modes",
			req:       request.CreateLotRequest{AccountID: accountID, Ticker: "VTI", AcquiredOn: "2024-01-02", Quantity: nd("1"), UnitCost: nd("1"), Amount: nd("1")},
			wantField: "amount",
		},
		{
			name:      "neither mode",
			req:       request.CreateLotRequest{AccountID: accountID, Ticker: "VTI", AcquiredOn: "2024-01-02"},
			wantField: "quantity",
		},
		{
			name:      "quantity without unit cost",
			req:       request.CreateLotRequest{AccountID: accountID, Ticker: "VTI", AcquiredOn: "2024-01-02", Quantity: nd("1")},
			wantField: "unitCost",
		},
		{
			name:      "negative unit cost",
			req:       request.CreateLotRequest{AccountID: accountID, Ticker: "VTI", AcquiredOn: "2024-01-02", Quantity: nd("1"), UnitCost: nd("-1")},
			wantField: "unitCost",
		},
		{
			name:      "ticker too long",
			req:       request.CreateLotRequest{AccountID: accountID, Ticker: "ABCDEFGHIJK", AcquiredOn: "2024-01-02", Amount: nd("1")},
			wantField: "ticker",
		},
		{
			name:      "bad date",
			req:       request.CreateLotRequest{AccountID: accountID, Ticker: "VTI", AcquiredOn: "02/01/2024", Amount: nd("1")},
			wantField: "acquiredOn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreateLot(tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if _, ok := fieldErrors(t, err)[tt.wantField]; !ok {
				t.Errorf("Expected error on %s, got %v", tt.wantField, err)
			}
		})
	}

	t.Run("invalid account id", func(t *testing.T) {
		err := ValidateCreateLot(request.CreateLotRequest{AccountID: "nope", Ticker: "VTI", AcquiredOn: "2024-01-02", Amount: nd("1")})
		if !errors.Is(err, ErrInvalidUUID) {
			t.Errorf("Expected ErrInvalidUUID, got %v", err)
		}
	})
}

func TestValidateCreateSale(t *testing.T) {
	base := func() request.CreateSaleRequest {
		return request.CreateSaleRequest{
			AccountID: accountID,
			Ticker:    "VTI",
			SaleDate:  "2024-06-03",
			Quantity:  d("10"),
			UnitPrice: d("70"),
		}
	}

	tests := []struct {
		name      string
		mutate    func(r *request.CreateSaleRequest)
		wantField string
	}{
		{name: "valid", mutate: func(*request.CreateSaleRequest) {}},
		{name: "zero quantity", mutate: func(r *request.CreateSaleRequest) { r.Quantity = d("0") }, wantField: "quantity"},
		{name: "negative price", mutate: func(r *request.CreateSaleRequest) { r.UnitPrice = d("-1") }, wantField: "unitPrice"},
		{name: "missing date", mutate: func(r *request.CreateSaleRequest) { r.SaleDate = "" }, wantField: "saleDate"},
		{
			name: "reinvestment equal to proceeds",
			mutate: func(r *request.CreateSaleRequest) {
				r.Reinvestment = &request.ReinvestmentRequest{Ticker: "BND", Amount: d("700")}
			},
		},
		{
			name: "reinvestment over proceeds",
			mutate: func(r *request.CreateSaleRequest) {
				r.Reinvestment = &request.ReinvestmentRequest{Ticker: "BND", Amount: d("700.01")}
			},
			wantField: "reinvestment.amount",
		},
		{
			name: "reinvestment without ticker",
			mutate: func(r *request.CreateSaleRequest) {
				r.Reinvestment = &request.ReinvestmentRequest{Amount: d("1")}
			},
			wantField: "reinvestment.ticker",
		},
		{
			name: "reinvestment with zero price",
			mutate: func(r *request.CreateSaleRequest) {
				r.Reinvestment = &request.ReinvestmentRequest{Ticker: "BND", Amount: d("1"), UnitPrice: nd("0")}
			},
			wantField: "reinvestment.unitPrice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(&req)

			err := ValidateCreateSale(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if _, ok := fieldErrors(t, err)[tt.wantField]; !ok {
				t.Errorf("Expected error on %s, got %v", tt.wantField, err)
			}
		})
	}
}

func TestValidatePreviewParams(t *testing.T) {
	t.Run("parses and normalizes", func(t *testing.T) {
		p, err := ValidatePreviewParams(" vti ", "1.5", "")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if p.Ticker != "VTI" || !p.Quantity.Equal(d("1.5")) || p.Price.Valid {
			t.Errorf("Unexpected params: %+v", p)
		}
	})

	t.Run("rejects non-numeric quantity and price", func(t *testing.T) {
		_, err := ValidatePreviewParams("VTI", "lots", "cheap")
		fields := fieldErrors(t, err)
		if _, ok := fields["quantity"]; !ok {
			t.Error("Expected quantity error")
		}
		if _, ok := fields["price"]; !ok {
			t.Error("Expected price error")
		}
	})
}

func TestValidateLinkReinvestment(t *testing.T) {
	if err := ValidateLinkReinvestment(request.LinkReinvestmentRequest{LotID: accountID, Amount: d("10")}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := ValidateLinkReinvestment(request.LinkReinvestmentRequest{LotID: "x", Amount: d("10")}); !errors.Is(err, ErrInvalidUUID) {
		t.Errorf("Expected ErrInvalidUUID, got %v", err)
	}
	err := ValidateLinkReinvestment(request.LinkReinvestmentRequest{LotID: accountID, Amount: d("0")})
	if _, ok := fieldErrors(t, err)["amount"]; !ok {
		t.Errorf("Expected amount error, got %v", err)
	}
}
