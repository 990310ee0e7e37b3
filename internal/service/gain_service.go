package service

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/price"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/repository"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/tolerance"
)

// GainService aggregates realized and unrealized gain/loss.
type GainService struct {
	db          *sql.DB
	accountRepo *repository.AccountRepository
	lotRepo     *repository.LotRepository
	saleRepo    *repository.SaleRepository
	oracle      price.Oracle
	concurrency int
	logger      *logrus.Entry
}

// NewGainService creates a new GainService. concurrency bounds the number of
// price lookups in flight for one summary.
func NewGainService(
	db *sql.DB,
	accountRepo *repository.AccountRepository,
	lotRepo *repository.LotRepository,
	saleRepo *repository.SaleRepository,
	oracle price.Oracle,
	concurrency int,
	logger *logrus.Logger,
) *GainService {
	return &GainService{
		db:          db,
		accountRepo: accountRepo,
		lotRepo:     lotRepo,
		saleRepo:    saleRepo,
		oracle:      oracle,
		concurrency: max(concurrency, 1),
		logger:      logger.WithField("component", "gain_service"),
	}
}

// GainSummary computes gain/loss for an account, or one of its tickers when
// ticker is non-empty. It does not write anything.
//
// Realized figures are sums over the recorded assignments. Unrealized
// figures value the remaining shares of each open lot at the oracle's current
// price; lots with no more than tolerance.Epsilon remaining are left out.
// Assignments and lots are read in one transaction.
// A ticker whose price cannot be obtained is reported with PriceAvailable
// false and left out of the unrealized total, which is then marked
// incomplete. Cancellation of ctx aborts the whole summary.
func (s *GainService) GainSummary(ctx context.Context, accountID, ticker string) (model.GainSummary, error) {
	ticker = normalizeTicker(ticker)

	if _, err := s.accountRepo.GetAccount(ctx, accountID); err != nil {
		return model.GainSummary{}, storageErr(err)
	}

	var realized []model.RealizedAssignment
	var lots []model.Lot
	err := readTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if realized, err = s.saleRepo.WithTx(tx).GetRealizedAssignments(ctx, accountID, ticker); err != nil {
			return storageErr(err)
		}
		lots, err = s.lotRepo.WithTx(tx).GetLots(ctx, accountID, ticker)
		return storageErr(err)
	})
	if err != nil {
		return model.GainSummary{}, err
	}

	summary := model.GainSummary{
		AccountID:          accountID,
		Ticker:             ticker,
		RealizedGainLoss:   decimal.Zero,
		RealizedCostBasis:  decimal.Zero,
		RealizedProceeds:   decimal.Zero,
		UnrealizedGainLoss: decimal.Zero,
		UnrealizedComplete: true,
		UnavailableTickers: []string{},
	}

	byTicker := make(map[string]*model.TickerGain)
	gainFor := func(t string) *model.TickerGain {
		g, ok := byTicker[t]
		if !ok {
			g = &model.TickerGain{
				Ticker:             t,
				SharesRemaining:    decimal.Zero,
				CostBasisRemaining: decimal.Zero,
				RealizedGainLoss:   decimal.Zero,
			}
			byTicker[t] = g
		}
		return g
	}

	for _, a := range realized {
		summary.RealizedGainLoss = summary.RealizedGainLoss.Add(a.RealizedGainLoss)
		summary.RealizedCostBasis = summary.RealizedCostBasis.Add(a.CostBasis)
		summary.RealizedProceeds = summary.RealizedProceeds.Add(a.Proceeds)

		g := gainFor(a.Ticker)
		g.RealizedGainLoss = g.RealizedGainLoss.Add(a.RealizedGainLoss)
	}

	for _, l := range lots {
		g := gainFor(l.Ticker)
		if !tolerance.IsOpen(l.QuantityRemaining) {
			continue
		}
		g.SharesRemaining = g.SharesRemaining.Add(l.QuantityRemaining)
		g.CostBasisRemaining = g.CostBasisRemaining.Add(l.CostBasisRemaining())
	}

	tickers := make([]string, 0, len(byTicker))
	for t := range byTicker {
		tickers = append(tickers, t)
	}
	slices.Sort(tickers)

	if err := s.applyPrices(ctx, tickers, byTicker); err != nil {
		return model.GainSummary{}, err
	}

	summary.Tickers = make([]model.TickerGain, 0, len(tickers))
	for _, t := range tickers {
		g := byTicker[t]
		switch {
		case g.UnrealizedGainLoss.Valid:
			summary.UnrealizedGainLoss = summary.UnrealizedGainLoss.Add(g.UnrealizedGainLoss.Decimal)
		case tolerance.IsOpen(g.SharesRemaining):
			summary.UnrealizedComplete = false
			summary.UnavailableTickers = append(summary.UnavailableTickers, t)
		}
		summary.Tickers = append(summary.Tickers, *g)
	}

	return summary, nil
}

// applyPrices looks up current prices for tickers with open shares, at most
// s.concurrency at a time, and fills in the unrealized figures. Tickers
// without open shares have zero unrealized gain and need no price.
func (s *GainService) applyPrices(ctx context.Context, tickers []string, byTicker map[string]*model.TickerGain) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	prices := make([]decimal.NullDecimal, len(tickers))
	for i, t := range tickers {
		if !tolerance.IsOpen(byTicker[t].SharesRemaining) {
			continue
		}
		g.Go(func() error {
			p, err := s.oracle.CurrentPrice(gctx, t)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					if ctx.Err() != nil {
						return ctx.Err()
					}
				}
				s.logger.WithError(err).WithField("ticker", t).Warn("price unavailable")
				return nil
			}
			prices[i] = decimal.NewNullDecimal(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, t := range tickers {
		tg := byTicker[t]
		if !tolerance.IsOpen(tg.SharesRemaining) {
			tg.MarketValue = decimal.NewNullDecimal(decimal.Zero)
			tg.UnrealizedGainLoss = decimal.NewNullDecimal(decimal.Zero)
			continue
		}
		if !prices[i].Valid {
			continue
		}
		value := tg.SharesRemaining.Mul(prices[i].Decimal)
		tg.PriceAvailable = true
		tg.CurrentPrice = prices[i]
		tg.MarketValue = decimal.NewNullDecimal(value)
		tg.UnrealizedGainLoss = decimal.NewNullDecimal(value.Sub(tg.CostBasisRemaining))
	}

	return nil
}

// SharesRemaining reports how a lot's acquired shares split into assigned and remaining.
func (s *GainService) SharesRemaining(ctx context.Context, lotID string) (model.LotBalance, error) {
	lot, err := s.lotRepo.GetLot(ctx, lotID)
	if err != nil {
		return model.LotBalance{}, storageErr(err)
	}
	return lot.Balance(), nil
}
