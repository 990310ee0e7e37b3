package testutil

import (
	"database/sql"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/logging"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/price"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/service"
)

// Services bundles every service wired against one database and oracle.
type Services struct {
	Account *service.AccountService
	Lot     *service.LotService
	Sale    *service.SaleService
	Gain    *service.GainService
	System  *service.SystemService
}

// NewTestServices wires all services the same way the server does.
func NewTestServices(t *testing.T, db *sql.DB, oracle price.Oracle) Services {
	t.Helper()

	logger := logging.Discard()
	accountRepo := repository.NewAccountRepository(db)
	lotRepo := repository.NewLotRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	lotService := service.NewLotService(db, accountRepo, lotRepo, saleRepo, oracle, logger)

	return Services{
		Account: service.NewAccountService(accountRepo, logger),
		Lot:     lotService,
		Sale:    service.NewSaleService(db, accountRepo, lotRepo, saleRepo, lotService, logger),
		Gain:    service.NewGainService(db, accountRepo, lotRepo, saleRepo, oracle, 4, logger),
		System:  service.NewSystemService(db),
	}
}

func NewTestAccountService(t *testing.T, db *sql.DB) *service.AccountService {
	t.Helper()
	return NewTestServices(t, db, NewMockOracle()).Account
}

func NewTestLotService(t *testing.T, db *sql.DB, oracle price.Oracle) *service.LotService {
	t.Helper()
	return NewTestServices(t, db, oracle).Lot
}

func NewTestSaleService(t *testing.T, db *sql.DB, oracle price.Oracle) *service.SaleService {
	t.Helper()
	return NewTestServices(t, db, oracle).Sale
}

func NewTestGainService(t *testing.T, db *sql.DB, oracle price.Oracle) *service.GainService {
	t.Helper()
	return NewTestServices(t, db, oracle).Gain
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()
	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeSymbol generates a stock ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("AB")
//	// Returns: "AB1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "T"
	}
	return base + randomAlphanumeric(4)
}

// MakeAccountName generates a unique account name for testing.
//
// Example usage:
//
//	name := testutil.MakeAccountName("Brokerage")
//	// Returns: "Brokerage ABC123"
func MakeAccountName(base string) string {
	if base == "" {
		base = "Account"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
