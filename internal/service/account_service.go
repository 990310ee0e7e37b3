package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
)

// AccountService handles account operations.
type AccountService struct {
	accountRepo *repository.AccountRepository
	logger      *logrus.Entry
	now         func() time.Time
}

// NewAccountService creates a new AccountService with the provided repository dependencies.
func NewAccountService(accountRepo *repository.AccountRepository, logger *logrus.Logger) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		logger:      logger.WithField("component", "account_service"),
		now:         time.Now,
	}
}

// CreateAccount persists a new account.
func (s *AccountService) CreateAccount(ctx context.Context, req request.CreateAccountRequest) (model.Account, error) {
	now := s.now().UTC()
	account := model.Account{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.accountRepo.InsertAccount(ctx, &account); err != nil {
		return model.Account{}, storageErr(err)
	}

	s.logger.WithField("account_id", account.ID).Info("account created")
	return account, nil
}

// GetAccount retrieves a single account.
func (s *AccountService) GetAccount(ctx context.Context, accountID string) (model.Account, error) {
	account, err := s.accountRepo.GetAccount(ctx, accountID)
	return account, storageErr(err)
}

// GetAccounts retrieves all accounts.
func (s *AccountService) GetAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.accountRepo.GetAccounts(ctx)
	return accounts, storageErr(err)
}
