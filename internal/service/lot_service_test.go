package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/price"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/testutil"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/yahoo"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func TestLotService_CreateLot(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity mode", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())
		account := testutil.NewAccount().Build(t, db)

		lot, err := svc.Lot.CreateLot(ctx, request.CreateLotRequest{
			AccountID:  account.ID,
			Ticker:     " vti ",
			AcquiredOn: "2024-01-15",
			Quantity:   nd("12.5"),
			UnitCost:   nd("200.40"),
		})
		if err != nil {
			t.Fatalf("CreateLot() returned unexpected error: %v", err)
		}

		if lot.Ticker != "VTI" {
			t.Errorf("Expected normalized ticker VTI, got %q", lot.Ticker)
		}
		assertDecimal(t, "amount", lot.Amount, "2505")

		stored, err := svc.Lot.GetLot(ctx, lot.ID)
		if err != nil {
			t.Fatalf("GetLot() returned unexpected error: %v", err)
		}
		assertDecimal(t, "stored quantity", stored.QuantityAcquired, "12.5")
		assertDecimal(t, "stored remaining", stored.QuantityRemaining, "12.5")
		if !stored.AcquiredOn.Equal(testutil.Date(2024, 1, 15)) {
			t.Errorf("Expected acquired on 2024-01-15, got %s", stored.AcquiredOn)
		}
	})

	t.Run("amount mode uses the close on the acquisition date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle().WithPriceOn("VTI", testutil.Date(2024, 1, 15), "250")
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		lot, err := svc.Lot.CreateLot(ctx, request.CreateLotRequest{
			AccountID:  account.ID,
			Ticker:     "VTI",
			AcquiredOn: "2024-01-15",
			Amount:     nd("1000"),
		})
		if err != nil {
			t.Fatalf("CreateLot() returned unexpected error: %v", err)
		}

		assertDecimal(t, "quantity", lot.QuantityAcquired, "4")
		assertDecimal(t, "unit cost", lot.UnitCost, "250")
		assertDecimal(t, "amount", lot.Amount, "1000")
	})

	t.Run("amount mode with explicit unit cost skips the oracle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle()
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		lot, err := svc.Lot.CreateLot(ctx, request.CreateLotRequest{
			AccountID:  account.ID,
			Ticker:     "VTI",
			AcquiredOn: "2024-01-15",
			Amount:     nd("100"),
			UnitCost:   nd("3"),
		})
		if err != nil {
			t.Fatalf("CreateLot() returned unexpected error: %v", err)
		}

		assertDecimal(t, "quantity", lot.QuantityAcquired, "33.33333333")
		if oracle.Calls() != 0 {
			t.Errorf("Expected no oracle calls, got %d", oracle.Calls())
		}
	})

	t.Run("amount mode through the yahoo price cache", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		acquired := testutil.Date(2024, 1, 15)
		srv := testutil.NewMockYahooServer(t, testutil.CreateMockYahooResponseForDate(acquired, 125))

		logger := logging.Discard()
		oracle := price.NewCachedOracle(
			price.NewYahooOracle(yahoo.NewFinanceClient(srv.URL)),
			repository.NewPriceRepository(db),
			15*time.Minute,
			logger,
		)
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		for range 2 {
			lot, err := svc.Lot.CreateLot(ctx, request.CreateLotRequest{
				AccountID:  account.ID,
				Ticker:     "VTI",
				AcquiredOn: "2024-01-15",
				Amount:     nd("500"),
			})
			if err != nil {
				t.Fatalf("CreateLot() returned unexpected error: %v", err)
			}
			assertDecimal(t, "quantity", lot.QuantityAcquired, "4")
		}

		if srv.QueryCount.Load() != 1 {
			t.Errorf("Expected 1 yahoo query, got %d", srv.QueryCount.Load())
		}
		testutil.AssertRowCount(t, db, "price_cache", 1)
	})

	t.Run("price unavailable creates nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())
		account := testutil.NewAccount().Build(t, db)

		_, err := svc.Lot.CreateLot(ctx, request.CreateLotRequest{
			AccountID:  account.ID,
			Ticker:     "VTI",
			AcquiredOn: "2024-01-15",
			Amount:     nd("1000"),
		})
		if !errors.Is(err, apperrors.ErrPriceUnavailable) {
			t.Fatalf("Expected ErrPriceUnavailable, got %v", err)
		}
		testutil.AssertRowCount(t, db, "purchase", 0)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())
		account := testutil.NewAccount().Build(t, db)

		tests := []struct {
			name    string
			req     request.CreateLotRequest
			wantErr error
		}{
			{
				name:    "zero quantity",
				req:     request.CreateLotRequest{AccountID: account.ID, Ticker: "VTI", AcquiredOn: "2024-01-15", Quantity: nd("0"), UnitCost: nd("1")},
				wantErr: apperrors.ErrInvalidQuantity,
			},
			{
				name:    "missing unit cost",
				req:     request.CreateLotRequest{AccountID: account.ID, Ticker: "VTI", AcquiredOn: "2024-01-15", Quantity: nd("1")},
				wantErr: apperrors.ErrInvalidPrice,
			},
			{
				name:    "negative amount",
				req:     request.CreateLotRequest{AccountID: account.ID, Ticker: "VTI", AcquiredOn: "2024-01-15", Amount: nd("-5")},
				wantErr: apperrors.ErrInvalidAmount,
			},
			{
				name:    "no sizing",
				req:     request.CreateLotRequest{AccountID: account.ID, Ticker: "VTI", AcquiredOn: "2024-01-15"},
				wantErr: apperrors.ErrInvalidQuantity,
			},
			{
				name:    "unknown account",
				req:     request.CreateLotRequest{AccountID: testutil.MakeID(), Ticker: "VTI", AcquiredOn: "2024-01-15", Quantity: nd("1"), UnitCost: nd("1")},
				wantErr: apperrors.ErrAccountNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := svc.Lot.CreateLot(ctx, tt.req); !errors.Is(err, tt.wantErr) {
					t.Errorf("Expected %v, got %v", tt.wantErr, err)
				}
			})
		}

		testutil.AssertRowCount(t, db, "purchase", 0)
	})
}

func TestLotService_GetLots(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())
	account := testutil.NewAccount().Build(t, db)

	late := testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 3, 1)).Build(t, db)
	early := testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 1, 1)).Build(t, db)
	testutil.NewLot(account.ID, "BND").Build(t, db)

	lots, err := svc.Lot.GetLots(ctx, account.ID, "VTI")
	if err != nil {
		t.Fatalf("GetLots() returned unexpected error: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("Expected 2 VTI lots, got %d", len(lots))
	}
	if lots[0].ID != early.ID || lots[1].ID != late.ID {
		t.Error("Expected lots ordered by acquisition date")
	}

	all, err := svc.Lot.GetLots(ctx, account.ID, "")
	if err != nil {
		t.Fatalf("GetLots() returned unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 lots, got %d", len(all))
	}

	if _, err := svc.Lot.GetLots(ctx, testutil.MakeID(), ""); !errors.Is(err, apperrors.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.Lot.GetLot(ctx, testutil.MakeID()); !errors.Is(err, apperrors.ErrLotNotFound) {
		t.Errorf("Expected ErrLotNotFound, got %v", err)
	}
}

// TestLotService_DeleteLot tests the cascade from a lot to the sales that consumed it.
//
// WHY: A sale whose assignments point at a deleted lot would no longer add up
// to its quantity. Removing the whole sale keeps every remaining sale complete.
func TestLotService_DeleteLot(t *testing.T) {
	ctx := context.Background()

	t.Run("removes consuming sales and clears reinvestment links", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())
		account := testutil.NewAccount().Build(t, db)

		lotA := testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 1, 1)).WithQuantity("10").Build(t, db)
		lotB := testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 2, 1)).WithQuantity("10").Build(t, db)

		spanning, err := svc.Sale.RecordSale(ctx, saleRequest(account.ID, "VTI", "2024-06-01", "15", "100"))
		if err != nil {
			t.Fatalf("RecordSale() returned unexpected error: %v", err)
		}
		onlyB, err := svc.Sale.RecordSale(ctx, saleRequest(account.ID, "VTI", "2024-06-02", "3", "100"))
		if err != nil {
			t.Fatalf("RecordSale() returned unexpected error: %v", err)
		}
		if _, err := svc.Sale.LinkReinvestment(ctx, onlyB.ID, request.LinkReinvestmentRequest{LotID: lotA.ID, Amount: dec("100")}); err != nil {
			t.Fatalf("LinkReinvestment() returned unexpected error: %v", err)
		}

		result, err := svc.Lot.DeleteLot(ctx, lotA.ID)
		if err != nil {
			t.Fatalf("DeleteLot() returned unexpected error: %v", err)
		}

		if len(result.DeletedSaleIDs) != 1 || result.DeletedSaleIDs[0] != spanning.ID {
			t.Errorf("Expected spanning sale deleted, got %v", result.DeletedSaleIDs)
		}
		if len(result.UnlinkedSaleIDs) != 1 || result.UnlinkedSaleIDs[0] != onlyB.ID {
			t.Errorf("Expected onlyB unlinked, got %v", result.UnlinkedSaleIDs)
		}

		balance, err := svc.Gain.SharesRemaining(ctx, lotB.ID)
		if err != nil {
			t.Fatalf("SharesRemaining() returned unexpected error: %v", err)
		}
		assertDecimal(t, "B remaining", balance.QuantityRemaining, "7")

		remaining, err := svc.Sale.GetSale(ctx, onlyB.ID)
		if err != nil {
			t.Fatalf("GetSale() returned unexpected error: %v", err)
		}
		if remaining.ReinvestmentLotID != "" || remaining.ReinvestedAmount.Valid || remaining.CashRetained.Valid {
			t.Errorf("Expected reinvestment link cleared, got %+v", remaining)
		}

		testutil.AssertRowCount(t, db, "sale", 1)
		testutil.AssertRowCount(t, db, "purchase_sale_assignment", 1)
		assertLedgerInvariants(t, svc, account.ID)
	})

	t.Run("returns ErrLotNotFound for unknown lot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())

		if _, err := svc.Lot.DeleteLot(ctx, testutil.MakeID()); !errors.Is(err, apperrors.ErrLotNotFound) {
			t.Errorf("Expected ErrLotNotFound, got %v", err)
		}
	})
}
