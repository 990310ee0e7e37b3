package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/api/request"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/fifo"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
)

// SaleService records sales against lots and manages reinvestment links.
type SaleService struct {
	db          *sql.DB
	accountRepo *repository.AccountRepository
	lotRepo     *repository.LotRepository
	saleRepo    *repository.SaleRepository
	lots        *LotService
	logger      *logrus.Entry
	now         func() time.Time
}

// NewSaleService creates a new SaleService with the provided repository dependencies.
// The LotService builds reinvestment lots.
func NewSaleService(
	db *sql.DB,
	accountRepo *repository.AccountRepository,
	lotRepo *repository.LotRepository,
	saleRepo *repository.SaleRepository,
	lots *LotService,
	logger *logrus.Logger,
) *SaleService {
	return &SaleService{
		db:          db,
		accountRepo: accountRepo,
		lotRepo:     lotRepo,
		saleRepo:    saleRepo,
		lots:        lots,
		logger:      logger.WithField("component", "sale_service"),
		now:         time.Now,
	}
}

// RecordSale assigns a sale to the account's lots of the ticker in FIFO order
// and persists the sale with its assignments atomically.
//
// The account row is touched first inside an immediate transaction, so
// concurrent sales on the same account run one after another and each sees
// the lot balances left by the previous one. When the lots cannot cover the
// quantity, ErrInsufficientLots is returned and nothing is written.
//
// An optional reinvestment creates a lot of the reinvestment ticker on the
// sale date and links it to the sale in the same transaction.
func (s *SaleService) RecordSale(ctx context.Context, req request.CreateSaleRequest) (model.Sale, error) {
	if !req.Quantity.IsPositive() {
		return model.Sale{}, apperrors.ErrInvalidQuantity
	}
	if !req.UnitPrice.IsPositive() {
		return model.Sale{}, apperrors.ErrInvalidPrice
	}

	saleDate, err := parseDate(req.SaleDate)
	if err != nil {
		return model.Sale{}, err
	}
	now := s.now().UTC()
	if saleDate.After(day(now)) {
		return model.Sale{}, fmt.Errorf("%w: %s", apperrors.ErrFutureSaleDate, req.SaleDate)
	}

	sale := model.Sale{
		ID:            uuid.New().String(),
		AccountID:     req.AccountID,
		Ticker:        normalizeTicker(req.Ticker),
		SaleDate:      saleDate,
		QuantitySold:  req.Quantity,
		UnitPrice:     req.UnitPrice,
		TotalProceeds: req.Quantity.Mul(req.UnitPrice),
		CreatedAt:     now,
	}

	var reinvestLot *model.Lot
	if r := req.Reinvestment; r != nil {
		lot, err := s.buildReinvestment(ctx, sale, r)
		if err != nil {
			return model.Sale{}, err
		}
		reinvestLot = &lot
		sale.ReinvestmentLotID = lot.ID
		sale.ReinvestedAmount = decimal.NewNullDecimal(lot.Amount)
		sale.CashRetained = decimal.NewNullDecimal(sale.TotalProceeds.Sub(lot.Amount))
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.accountRepo.WithTx(tx).TouchAccount(ctx, sale.AccountID, now); err != nil {
			return storageErr(err)
		}

		lots, err := s.lotRepo.WithTx(tx).GetLots(ctx, sale.AccountID, sale.Ticker)
		if err != nil {
			return storageErr(err)
		}

		plan, err := fifo.Assign(lots, sale.QuantitySold)
		if err != nil {
			return err
		}

		sale.Assignments = make([]model.Assignment, 0, len(plan.Allocations))
		for _, a := range plan.Allocations {
			sale.Assignments = append(sale.Assignments, model.NewAssignment(
				uuid.New().String(), a.LotID, sale.ID, a.Quantity, a.UnitCost, sale.UnitPrice,
			))
		}

		saleRepo := s.saleRepo.WithTx(tx)
		if reinvestLot != nil {
			if err := s.lotRepo.WithTx(tx).InsertLot(ctx, reinvestLot); err != nil {
				return storageErr(err)
			}
		}
		if err := saleRepo.InsertSale(ctx, &sale); err != nil {
			return storageErr(err)
		}
		return storageErr(saleRepo.InsertAssignments(ctx, sale.Assignments))
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"account_id": sale.AccountID,
			"ticker":     sale.Ticker,
			"quantity":   sale.QuantitySold.String(),
		}).Warn("sale not recorded")
		return model.Sale{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"sale_id":     sale.ID,
		"ticker":      sale.Ticker,
		"quantity":    sale.QuantitySold.String(),
		"assignments": len(sale.Assignments),
	}).Info("sale recorded")

	return sale, nil
}

func (s *SaleService) buildReinvestment(ctx context.Context, sale model.Sale, r *request.ReinvestmentRequest) (model.Lot, error) {
	if !r.Amount.IsPositive() {
		return model.Lot{}, apperrors.ErrInvalidAmount
	}
	if r.Amount.GreaterThan(sale.TotalProceeds) {
		return model.Lot{}, fmt.Errorf("%w: %s > %s",
			apperrors.ErrOverReinvestment, r.Amount.String(), sale.TotalProceeds.String())
	}

	return s.lots.buildLot(ctx, lotSpec{
		accountID:  sale.AccountID,
		ticker:     normalizeTicker(r.Ticker),
		acquiredOn: sale.SaleDate,
		unitCost:   r.UnitPrice,
		amount:     decimal.NewNullDecimal(r.Amount),
	})
}

// PreviewAssignment runs the FIFO assignment for a hypothetical sale without
// writing anything. When price is given and the lots cover the quantity, the
// estimated proceeds and realized gain/loss are filled in.
func (s *SaleService) PreviewAssignment(ctx context.Context, accountID, ticker string, quantity decimal.Decimal, price decimal.NullDecimal) (model.SalePreview, error) {
	if price.Valid && !price.Decimal.IsPositive() {
		return model.SalePreview{}, apperrors.ErrInvalidPrice
	}
	if _, err := s.accountRepo.GetAccount(ctx, accountID); err != nil {
		return model.SalePreview{}, storageErr(err)
	}

	ticker = normalizeTicker(ticker)
	lots, err := s.lotRepo.GetLots(ctx, accountID, ticker)
	if err != nil {
		return model.SalePreview{}, storageErr(err)
	}

	plan, err := fifo.Preview(lots, quantity)
	if err != nil {
		return model.SalePreview{}, err
	}

	preview := model.SalePreview{
		AccountID:            accountID,
		Ticker:               ticker,
		Quantity:             quantity,
		Allocations:          make([]model.PreviewAllocation, 0, len(plan.Allocations)),
		TotalCostBasis:       plan.TotalCostBasis,
		TotalAvailable:       plan.TotalAvailable,
		IsSufficient:         plan.Sufficient,
		SharesRemainingAfter: plan.RemainingAfter(),
	}
	for _, a := range plan.Allocations {
		preview.Allocations = append(preview.Allocations, model.PreviewAllocation{
			LotID:           a.LotID,
			AcquiredOn:      a.AcquiredOn,
			UnitCost:        a.UnitCost,
			SharesAvailable: a.Available,
			SharesToAssign:  a.Quantity,
			CostBasis:       a.CostBasis,
		})
	}

	if price.Valid && plan.Sufficient {
		proceeds := plan.Allocated().Mul(price.Decimal)
		preview.EstimatedProceeds = decimal.NewNullDecimal(proceeds)
		preview.EstimatedRealizedGainLoss = decimal.NewNullDecimal(proceeds.Sub(plan.TotalCostBasis))
	}

	return preview, nil
}

// LinkReinvestment records that amount of a sale's proceeds went into lotID.
// The amount must be positive and may not exceed the sale's proceeds; the
// rest is recorded as cash retained. A later link replaces an earlier one.
func (s *SaleService) LinkReinvestment(ctx context.Context, saleID string, req request.LinkReinvestmentRequest) (model.Sale, error) {
	if !req.Amount.IsPositive() {
		return model.Sale{}, apperrors.ErrInvalidAmount
	}

	var updated model.Sale
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		saleRepo := s.saleRepo.WithTx(tx)

		sale, err := saleRepo.GetSale(ctx, saleID)
		if err != nil {
			return storageErr(err)
		}
		if err := s.accountRepo.WithTx(tx).TouchAccount(ctx, sale.AccountID, s.now().UTC()); err != nil {
			return storageErr(err)
		}

		lot, err := s.lotRepo.WithTx(tx).GetLot(ctx, req.LotID)
		if err != nil {
			return storageErr(err)
		}
		if lot.AccountID != sale.AccountID {
			return apperrors.ErrLotAccountMismatch
		}

		if req.Amount.GreaterThan(sale.TotalProceeds) {
			return fmt.Errorf("%w: %s > %s",
				apperrors.ErrOverReinvestment, req.Amount.String(), sale.TotalProceeds.String())
		}

		if err := saleRepo.UpdateReinvestment(ctx, sale.ID, lot.ID, req.Amount, sale.TotalProceeds.Sub(req.Amount)); err != nil {
			return storageErr(err)
		}

		updated, err = saleRepo.GetSale(ctx, sale.ID)
		return storageErr(err)
	})
	if err != nil {
		return model.Sale{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"sale_id": saleID,
		"lot_id":  req.LotID,
		"amount":  req.Amount.String(),
	}).Info("reinvestment linked")

	return updated, nil
}

// GetSale retrieves a sale with its assignments.
func (s *SaleService) GetSale(ctx context.Context, saleID string) (model.Sale, error) {
	sale, err := s.saleRepo.GetSale(ctx, saleID)
	return sale, storageErr(err)
}

// GetSales retrieves an account's sales, newest first, optionally for one ticker.
func (s *SaleService) GetSales(ctx context.Context, accountID, ticker string) ([]model.Sale, error) {
	if _, err := s.accountRepo.GetAccount(ctx, accountID); err != nil {
		return nil, storageErr(err)
	}
	sales, err := s.saleRepo.GetSales(ctx, accountID, normalizeTicker(ticker))
	return sales, storageErr(err)
}

// DeleteSale removes a sale and its assignments in one transaction, returning
// the assigned shares to their lots.
func (s *SaleService) DeleteSale(ctx context.Context, saleID string) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		saleRepo := s.saleRepo.WithTx(tx)

		sale, err := saleRepo.GetSale(ctx, saleID)
		if err != nil {
			return storageErr(err)
		}
		if err := s.accountRepo.WithTx(tx).TouchAccount(ctx, sale.AccountID, s.now().UTC()); err != nil {
			return storageErr(err)
		}
		if err := saleRepo.DeleteAssignmentsBySale(ctx, saleID); err != nil {
			return storageErr(err)
		}
		return storageErr(saleRepo.DeleteSale(ctx, saleID))
	})
	if err != nil {
		return err
	}

	s.logger.WithField("sale_id", saleID).Info("sale deleted")
	return nil
}
