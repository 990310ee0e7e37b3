package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/testutil"
)

func TestAccountService(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty slice when no accounts exist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAccountService(t, db)

		accounts, err := svc.GetAccounts(ctx)
		if err != nil {
			t.Fatalf("GetAccounts() returned unexpected error: %v", err)
		}
		if accounts == nil || len(accounts) != 0 {
			t.Errorf("Expected empty slice, got %v", accounts)
		}
	})

	t.Run("creates and retrieves an account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAccountService(t, db)

		created, err := svc.CreateAccount(ctx, request.CreateAccountRequest{Name: "  Brokerage "})
		if err != nil {
			t.Fatalf("CreateAccount() returned unexpected error: %v", err)
		}
		if created.Name != "Brokerage" {
			t.Errorf("Expected trimmed name, got %q", created.Name)
		}

		got, err := svc.GetAccount(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetAccount() returned unexpected error: %v", err)
		}
		if got.ID != created.ID || got.Name != "Brokerage" {
			t.Errorf("Expected %+v, got %+v", created, got)
		}
	})

	t.Run("returns ErrAccountNotFound", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestAccountService(t, db)

		if _, err := svc.GetAccount(ctx, testutil.MakeID()); !errors.Is(err, apperrors.ErrAccountNotFound) {
			t.Errorf("Expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestSystemService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := testutil.NewTestSystemService(t, db)

	if err := svc.CheckHealth(); err != nil {
		t.Errorf("CheckHealth() returned unexpected error: %v", err)
	}

	info, err := svc.CheckVersion(context.Background())
	if err != nil {
		t.Fatalf("CheckVersion() returned unexpected error: %v", err)
	}
	if info.MigrationNeeded {
		t.Error("Expected no pending migrations on a migrated database")
	}
	if info.DbVersion != "2" {
		t.Errorf("Expected schema version 2, got %s", info.DbVersion)
	}
}
