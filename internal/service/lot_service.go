package service

import (
	"context"
	"database/sql"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/price"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
)

// LotService handles purchase lot operations.
type LotService struct {
	db          *sql.DB
	accountRepo *repository.AccountRepository
	lotRepo     *repository.LotRepository
	saleRepo    *repository.SaleRepository
	oracle      price.Oracle
	logger      *logrus.Entry
	now         func() time.Time
}

// NewLotService creates a new LotService with the provided repository dependencies.
func NewLotService(
	db *sql.DB,
	accountRepo *repository.AccountRepository,
	lotRepo *repository.LotRepository,
	saleRepo *repository.SaleRepository,
	oracle price.Oracle,
	logger *logrus.Logger,
) *LotService {
	return &LotService{
		db:          db,
		accountRepo: accountRepo,
		lotRepo:     lotRepo,
		saleRepo:    saleRepo,
		oracle:      oracle,
		logger:      logger.WithField("component", "lot_service"),
		now:         time.Now,
	}
}

// lotSpec describes a lot to be created, in either sizing mode.
type lotSpec struct {
	accountID  string
	ticker     string
	acquiredOn time.Time
	quantity   decimal.NullDecimal
	unitCost   decimal.NullDecimal
	amount     decimal.NullDecimal
}

// CreateLot records a purchase.
//
// In quantity mode the amount is quantity × unitCost. In amount mode the
// quantity is amount / unitCost rounded to QuantityPrecision places, with
// unitCost taken from the price oracle's close on the acquisition date when
// the request does not carry one. Lookup failures surface as ErrPriceUnavailable.
func (s *LotService) CreateLot(ctx context.Context, req request.CreateLotRequest) (model.Lot, error) {
	acquiredOn, err := parseDate(req.AcquiredOn)
	if err != nil {
		return model.Lot{}, err
	}

	lot, err := s.buildLot(ctx, lotSpec{
		accountID:  req.AccountID,
		ticker:     normalizeTicker(req.Ticker),
		acquiredOn: acquiredOn,
		quantity:   req.Quantity,
		unitCost:   req.UnitCost,
		amount:     req.Amount,
	})
	if err != nil {
		return model.Lot{}, err
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.accountRepo.WithTx(tx).TouchAccount(ctx, lot.AccountID, lot.CreatedAt); err != nil {
			return storageErr(err)
		}
		return storageErr(s.lotRepo.WithTx(tx).InsertLot(ctx, &lot))
	})
	if err != nil {
		return model.Lot{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"lot_id":   lot.ID,
		"ticker":   lot.Ticker,
		"quantity": lot.QuantityAcquired.String(),
	}).Info("lot created")

	return lot, nil
}

// buildLot sizes and prices a new lot. It may call the price oracle, so it
// runs before any transaction is opened.
func (s *LotService) buildLot(ctx context.Context, in lotSpec) (model.Lot, error) {
	var quantity, unitCost, amount decimal.Decimal

	switch {
	case in.quantity.Valid:
		quantity = in.quantity.Decimal
		if !quantity.IsPositive() {
			return model.Lot{}, apperrors.ErrInvalidQuantity
		}
		if !in.unitCost.Valid || !in.unitCost.Decimal.IsPositive() {
			return model.Lot{}, apperrors.ErrInvalidPrice
		}
		unitCost = in.unitCost.Decimal
		amount = quantity.Mul(unitCost)

	case in.amount.Valid:
		amount = in.amount.Decimal
		if !amount.IsPositive() {
			return model.Lot{}, apperrors.ErrInvalidAmount
		}
		if in.unitCost.Valid {
			unitCost = in.unitCost.Decimal
			if !unitCost.IsPositive() {
				return model.Lot{}, apperrors.ErrInvalidPrice
			}
		} else {
			p, err := s.oracle.PriceOnDate(ctx, in.ticker, in.acquiredOn)
			if err != nil {
				return model.Lot{}, err
			}
			unitCost = p
		}
		quantity = amount.DivRound(unitCost, QuantityPrecision)
		if !quantity.IsPositive() {
			return model.Lot{}, apperrors.ErrInvalidQuantity
		}

	default:
		return model.Lot{}, apperrors.ErrInvalidQuantity
	}

	lot := model.Lot{
		ID:               uuid.New().String(),
		AccountID:        in.accountID,
		Ticker:           in.ticker,
		AcquiredOn:       day(in.acquiredOn),
		QuantityAcquired: quantity,
		UnitCost:         unitCost,
		Amount:           amount,
		CreatedAt:        s.now().UTC(),
	}
	lot.ApplyAssigned(decimal.Zero)

	return lot, nil
}

// GetLot retrieves a lot with its derived balances.
func (s *LotService) GetLot(ctx context.Context, lotID string) (model.Lot, error) {
	lot, err := s.lotRepo.GetLot(ctx, lotID)
	return lot, storageErr(err)
}

// GetLots retrieves an account's lots in FIFO order, optionally for one ticker.
func (s *LotService) GetLots(ctx context.Context, accountID, ticker string) ([]model.Lot, error) {
	if _, err := s.accountRepo.GetAccount(ctx, accountID); err != nil {
		return nil, storageErr(err)
	}
	lots, err := s.lotRepo.GetLots(ctx, accountID, normalizeTicker(ticker))
	return lots, storageErr(err)
}

// DeleteLot removes a lot in a single transaction, together with its
// assignments and every sale that drew on it, so no sale is left partially
// assigned. Sales that reinvested into the lot lose their reinvestment link.
func (s *LotService) DeleteLot(ctx context.Context, lotID string) (model.LotDeletion, error) {
	result := model.LotDeletion{LotID: lotID}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		lotRepo := s.lotRepo.WithTx(tx)
		saleRepo := s.saleRepo.WithTx(tx)

		lot, err := lotRepo.GetLot(ctx, lotID)
		if err != nil {
			return storageErr(err)
		}
		if err := s.accountRepo.WithTx(tx).TouchAccount(ctx, lot.AccountID, s.now().UTC()); err != nil {
			return storageErr(err)
		}

		saleIDs, err := saleRepo.GetSaleIDsByLot(ctx, lotID)
		if err != nil {
			return storageErr(err)
		}
		for _, saleID := range saleIDs {
			if err := saleRepo.DeleteAssignmentsBySale(ctx, saleID); err != nil {
				return storageErr(err)
			}
			if err := saleRepo.DeleteSale(ctx, saleID); err != nil {
				return storageErr(err)
			}
		}

		linked, err := saleRepo.GetSaleIDsByReinvestmentLot(ctx, lotID)
		if err != nil {
			return storageErr(err)
		}
		if err := saleRepo.ClearReinvestmentsForLot(ctx, lotID); err != nil {
			return storageErr(err)
		}
		if err := saleRepo.DeleteAssignmentsByLot(ctx, lotID); err != nil {
			return storageErr(err)
		}
		if err := lotRepo.DeleteLot(ctx, lotID); err != nil {
			return storageErr(err)
		}

		result.DeletedSaleIDs = saleIDs
		result.UnlinkedSaleIDs = slices.DeleteFunc(linked, func(id string) bool {
			return slices.Contains(saleIDs, id)
		})
		return nil
	})
	if err != nil {
		return model.LotDeletion{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"lot_id":        lotID,
		"deleted_sales": len(result.DeletedSaleIDs),
	}).Info("lot deleted")

	return result, nil
}
