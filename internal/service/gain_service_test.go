package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/testutil"
)

func TestGainService_GainSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("realized and unrealized gain", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle().WithPrice("VTI", "80")
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 1, 15)).
			WithQuantity("100").WithUnitCost("50").Build(t, db)
		testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 3, 20)).
			WithQuantity("50").WithUnitCost("60").Build(t, db)

		if _, err := svc.Sale.RecordSale(ctx, saleRequest(account.ID, "VTI", "2024-06-01", "120", "70")); err != nil {
			t.Fatalf("RecordSale() returned unexpected error: %v", err)
		}

		summary, err := svc.Gain.GainSummary(ctx, account.ID, "")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}

		assertDecimal(t, "realized", summary.RealizedGainLoss, "2200")
		assertDecimal(t, "realized cost basis", summary.RealizedCostBasis, "6200")
		assertDecimal(t, "realized proceeds", summary.RealizedProceeds, "8400")
		// 30 remaining shares from B: 30 × (80 − 60)
		assertDecimal(t, "unrealized", summary.UnrealizedGainLoss, "600")

		if !summary.UnrealizedComplete {
			t.Error("Expected complete unrealized figures")
		}
		if len(summary.Tickers) != 1 || !summary.Tickers[0].PriceAvailable {
			t.Fatalf("Expected one priced ticker, got %+v", summary.Tickers)
		}
		assertDecimal(t, "market value", summary.Tickers[0].MarketValue.Decimal, "2400")
	})

	t.Run("flags tickers without a price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle().WithPrice("VTI", "110")
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		testutil.NewLot(account.ID, "VTI").WithQuantity("10").WithUnitCost("100").Build(t, db)
		testutil.NewLot(account.ID, "XYZ").WithQuantity("10").WithUnitCost("100").Build(t, db)

		summary, err := svc.Gain.GainSummary(ctx, account.ID, "")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}

		if summary.UnrealizedComplete {
			t.Error("Expected incomplete unrealized figures")
		}
		if !reflect.DeepEqual(summary.UnavailableTickers, []string{"XYZ"}) {
			t.Errorf("Expected XYZ unavailable, got %v", summary.UnavailableTickers)
		}
		assertDecimal(t, "unrealized", summary.UnrealizedGainLoss, "100")

		for _, tg := range summary.Tickers {
			if tg.Ticker == "XYZ" && (tg.PriceAvailable || tg.UnrealizedGainLoss.Valid) {
				t.Errorf("Expected XYZ unrealized to be null, got %+v", tg)
			}
		}
	})

	t.Run("closed positions need no price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle()
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		testutil.NewLot(account.ID, "VTI").WithQuantity("10").WithUnitCost("100").Build(t, db)
		if _, err := svc.Sale.RecordSale(ctx, saleRequest(account.ID, "VTI", "2024-06-01", "10", "90")); err != nil {
			t.Fatalf("RecordSale() returned unexpected error: %v", err)
		}

		summary, err := svc.Gain.GainSummary(ctx, account.ID, "VTI")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}

		assertDecimal(t, "realized", summary.RealizedGainLoss, "-100")
		if !summary.UnrealizedComplete {
			t.Error("Expected closed position to be complete")
		}
		if oracle.Calls() != 0 {
			t.Errorf("Expected no oracle calls, got %d", oracle.Calls())
		}
	})

	t.Run("filters by ticker", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle().WithPrice("VTI", "100").WithPrice("BND", "100")
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		testutil.NewLot(account.ID, "VTI").WithQuantity("10").WithUnitCost("50").Build(t, db)
		testutil.NewLot(account.ID, "BND").WithQuantity("10").WithUnitCost("90").Build(t, db)

		summary, err := svc.Gain.GainSummary(ctx, account.ID, "bnd")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}

		if summary.Ticker != "BND" || len(summary.Tickers) != 1 {
			t.Fatalf("Expected BND only, got %+v", summary.Tickers)
		}
		assertDecimal(t, "unrealized", summary.UnrealizedGainLoss, "100")
	})

	t.Run("is idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle().WithPrice("VTI", "75").WithPrice("BND", "70")
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		testutil.NewLot(account.ID, "VTI").WithQuantity("10").WithUnitCost("50").Build(t, db)
		testutil.NewLot(account.ID, "BND").WithQuantity("20").WithUnitCost("72.5").Build(t, db)
		if _, err := svc.Sale.RecordSale(ctx, saleRequest(account.ID, "VTI", "2024-06-01", "4", "65")); err != nil {
			t.Fatalf("RecordSale() returned unexpected error: %v", err)
		}

		first, err := svc.Gain.GainSummary(ctx, account.ID, "")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}
		second, err := svc.Gain.GainSummary(ctx, account.ID, "")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}

		if !reflect.DeepEqual(first, second) {
			t.Errorf("Expected identical summaries:\n%+v\n%+v", first, second)
		}
		testutil.AssertRowCount(t, db, "sale", 1)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockOracle().WithPrice("VTI", "1"))
		account := testutil.NewAccount().Build(t, db)
		testutil.NewLot(account.ID, "VTI").Build(t, db)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := svc.Gain.GainSummary(cctx, account.ID, ""); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())

		if _, err := svc.Gain.GainSummary(ctx, testutil.MakeID(), ""); !errors.Is(err, apperrors.ErrAccountNotFound) {
			t.Errorf("Expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestGainService_SharesRemaining(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestServices(t, db, testutil.NewMockOracle())
	account := testutil.NewAccount().Build(t, db)

	lot := testutil.NewLot(account.ID, "VTI").WithQuantity("10.5").Build(t, db)
	testutil.NewSale(account.ID, "VTI").WithQuantity("4.25").Assign(lot, "4.25").Build(t, db)

	balance, err := svc.Gain.SharesRemaining(ctx, lot.ID)
	if err != nil {
		t.Fatalf("SharesRemaining() returned unexpected error: %v", err)
	}

	assertDecimal(t, "assigned", balance.QuantityAssigned, "4.25")
	assertDecimal(t, "remaining", balance.QuantityRemaining, "6.25")
	if !balance.QuantityAssigned.Add(balance.QuantityRemaining).Equal(balance.QuantityAcquired) {
		t.Error("Expected assigned + remaining == acquired exactly")
	}

	if _, err := svc.Gain.SharesRemaining(ctx, testutil.MakeID()); !errors.Is(err, apperrors.ErrLotNotFound) {
		t.Errorf("Expected ErrLotNotFound, got %v", err)
	}
}

func TestGainService_GainSummaryIgnoresDustLots(t *testing.T) {
	ctx := context.Background()

	t.Run("dust residue does not change unrealized gain", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle().WithPrice("VTI", "100")
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		a := testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 1, 2)).
			WithQuantity("100").WithUnitCost("50").Build(t, db)
		testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 2, 1)).
			WithQuantity("10").WithUnitCost("60").Build(t, db)
		testutil.NewSale(account.ID, "VTI").WithQuantity("99.99995").WithUnitPrice("70").
			Assign(a, "99.99995").Build(t, db)

		summary, err := svc.Gain.GainSummary(ctx, account.ID, "")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}

		// only lot B is open: 10 × (100 − 60)
		assertDecimal(t, "unrealized", summary.UnrealizedGainLoss, "400")
		assertDecimal(t, "shares remaining", summary.Tickers[0].SharesRemaining, "10")
	})

	t.Run("ticker with only dust lots needs no price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		oracle := testutil.NewMockOracle()
		svc := testutil.NewTestServices(t, db, oracle)
		account := testutil.NewAccount().Build(t, db)

		for day := 2; day <= 4; day++ {
			lot := testutil.NewLot(account.ID, "XYZ").WithAcquiredOn(testutil.Date(2024, 1, day)).
				WithQuantity("1").Build(t, db)
			testutil.NewSale(account.ID, "XYZ").WithQuantity("0.99995").Assign(lot, "0.99995").Build(t, db)
		}

		summary, err := svc.Gain.GainSummary(ctx, account.ID, "")
		if err != nil {
			t.Fatalf("GainSummary() returned unexpected error: %v", err)
		}

		if !summary.UnrealizedComplete {
			t.Error("Expected complete unrealized figures")
		}
		if len(summary.UnavailableTickers) != 0 {
			t.Errorf("Expected no unavailable tickers, got %v", summary.UnavailableTickers)
		}
		if oracle.Calls() != 0 {
			t.Errorf("Expected no oracle calls, got %d", oracle.Calls())
		}
		assertDecimal(t, "unrealized", summary.UnrealizedGainLoss, "0")
		assertDecimal(t, "shares remaining", summary.Tickers[0].SharesRemaining, "0")
	})
}
