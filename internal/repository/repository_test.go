package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/testutil"
)

func TestLotRepository_GetLots(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewLotRepository(db)

	account := testutil.NewAccount().Build(t, db)
	other := testutil.NewAccount().Build(t, db)

	late := testutil.NewLot(account.ID, "VTI").WithAcquiredOn(testutil.Date(2024, 3, 1)).Build(t, db)
	tieB := testutil.NewLot(account.ID, "VTI").WithID("bbbbbbbb-0000-4000-8000-000000000000").WithAcquiredOn(testutil.Date(2024, 1, 2)).Build(t, db)
	tieA := testutil.NewLot(account.ID, "VTI").WithID("aaaaaaaa-0000-4000-8000-000000000000").WithAcquiredOn(testutil.Date(2024, 1, 2)).Build(t, db)
	testutil.NewLot(account.ID, "BND").Build(t, db)
	testutil.NewLot(other.ID, "VTI").Build(t, db)

	t.Run("orders by acquisition date then id", func(t *testing.T) {
		lots, err := repo.GetLots(ctx, account.ID, "VTI")
		if err != nil {
			t.Fatalf("GetLots() returned unexpected error: %v", err)
		}

		want := []string{tieA.ID, tieB.ID, late.ID}
		if len(lots) != len(want) {
			t.Fatalf("Expected %d lots, got %d", len(want), len(lots))
		}
		for i, id := range want {
			if lots[i].ID != id {
				t.Errorf("Position %d: expected %s, got %s", i, id, lots[i].ID)
			}
		}
	})

	t.Run("empty ticker returns every ticker of the account", func(t *testing.T) {
		lots, err := repo.GetLots(ctx, account.ID, "")
		if err != nil {
			t.Fatalf("GetLots() returned unexpected error: %v", err)
		}
		if len(lots) != 4 {
			t.Errorf("Expected 4 lots, got %d", len(lots))
		}
	})

	t.Run("derives assigned and remaining from assignments", func(t *testing.T) {
		testutil.NewSale(account.ID, "VTI").WithQuantity("2.5").Assign(tieA, "2.5").Build(t, db)

		lot, err := repo.GetLot(ctx, tieA.ID)
		if err != nil {
			t.Fatalf("GetLot() returned unexpected error: %v", err)
		}
		if !lot.QuantityAssigned.Equal(decimal.RequireFromString("2.5")) {
			t.Errorf("Expected 2.5 assigned, got %s", lot.QuantityAssigned)
		}
		if !lot.QuantityRemaining.Equal(decimal.RequireFromString("7.5")) {
			t.Errorf("Expected 7.5 remaining, got %s", lot.QuantityRemaining)
		}
	})

	t.Run("returns ErrLotNotFound for unknown id", func(t *testing.T) {
		_, err := repo.GetLot(ctx, testutil.MakeID())
		if !errors.Is(err, apperrors.ErrLotNotFound) {
			t.Errorf("Expected ErrLotNotFound, got %v", err)
		}
	})
}

func TestLotRepository_GetTickers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	account := testutil.NewAccount().Build(t, db)
	testutil.NewLot(account.ID, "VTI").Build(t, db)
	testutil.NewLot(account.ID, "VTI").Build(t, db)
	testutil.NewLot(account.ID, "BND").Build(t, db)

	tickers, err := repository.NewLotRepository(db).GetTickers(context.Background())
	if err != nil {
		t.Fatalf("GetTickers() returned unexpected error: %v", err)
	}
	if len(tickers) != 2 || tickers[0] != "BND" || tickers[1] != "VTI" {
		t.Errorf("Expected [BND VTI], got %v", tickers)
	}
}

func TestAccountRepository_TouchAccount(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAccountRepository(db)
	account := testutil.NewAccount().Build(t, db)

	t.Run("updates timestamp", func(t *testing.T) {
		at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
		if err := repo.TouchAccount(ctx, account.ID, at); err != nil {
			t.Fatalf("TouchAccount() returned unexpected error: %v", err)
		}

		got, err := repo.GetAccount(ctx, account.ID)
		if err != nil {
			t.Fatalf("GetAccount() returned unexpected error: %v", err)
		}
		if !got.UpdatedAt.Equal(at) {
			t.Errorf("Expected updated_at %s, got %s", at, got.UpdatedAt)
		}
	})

	t.Run("returns ErrAccountNotFound for unknown account", func(t *testing.T) {
		err := repo.TouchAccount(ctx, testutil.MakeID(), time.Now())
		if !errors.Is(err, apperrors.ErrAccountNotFound) {
			t.Errorf("Expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestPriceRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewPriceRepository(db)
	date := testutil.Date(2024, 1, 3)

	t.Run("reports miss", func(t *testing.T) {
		_, ok, err := repo.GetPrice(ctx, "VTI", date)
		if err != nil {
			t.Fatalf("GetPrice() returned unexpected error: %v", err)
		}
		if ok {
			t.Error("Expected cache miss")
		}
	})

	t.Run("upsert replaces existing close", func(t *testing.T) {
		for _, closePrice := range []string{"230.10", "231.45"} {
			err := repo.UpsertPrice(ctx, model.CachedPrice{
				Ticker:     "VTI",
				Date:       date,
				ClosePrice: decimal.RequireFromString(closePrice),
				FetchedAt:  time.Now().UTC(),
			})
			if err != nil {
				t.Fatalf("UpsertPrice() returned unexpected error: %v", err)
			}
		}

		p, ok, err := repo.GetPrice(ctx, "VTI", date)
		if err != nil || !ok {
			t.Fatalf("Expected cached price, got ok=%v err=%v", ok, err)
		}
		if !p.ClosePrice.Equal(decimal.RequireFromString("231.45")) {
			t.Errorf("Expected 231.45, got %s", p.ClosePrice)
		}
		testutil.AssertRowCount(t, db, "price_cache", 1)
	})
}
