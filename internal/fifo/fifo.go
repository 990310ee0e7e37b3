// Package fifo assigns sold shares to purchase lots, oldest lot first.
//
// The planner is pure: it reads lot balances and returns allocations without
// touching storage, so the same code backs both previews and committed sales.
package fifo

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/apperrors"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/model"
	"github.com/ndewijer/Lot-Ledger-Backend/internal/tolerance"
)

// Allocation is the share of a sale drawn from one lot.
type Allocation struct {
	LotID      string
	AcquiredOn time.Time
	UnitCost   decimal.Decimal
	Available  decimal.Decimal
	Quantity   decimal.Decimal
	CostBasis  decimal.Decimal
}

// Plan is the outcome of walking the lots for a requested quantity.
type Plan struct {
	Requested      decimal.Decimal
	TotalAvailable decimal.Decimal
	TotalCostBasis decimal.Decimal
	Allocations    []Allocation
	Sufficient     bool
}

// Allocated sums the quantities of all allocations.
func (p Plan) Allocated() decimal.Decimal {
	total := decimal.Zero
	for _, a := range p.Allocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// RemainingAfter is the share count left across the lots once the plan is applied.
// It is null when the lots cannot cover the request.
func (p Plan) RemainingAfter() decimal.NullDecimal {
	if !p.Sufficient {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(p.TotalAvailable.Sub(p.Requested))
}

// Order returns a copy of lots sorted by acquisition date, ties broken by lot ID.
func Order(lots []model.Lot) []model.Lot {
	ordered := slices.Clone(lots)
	slices.SortStableFunc(ordered, func(a, b model.Lot) int {
		if c := a.AcquiredOn.Compare(b.AcquiredOn); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return ordered
}

// Preview walks the lots oldest-first without requiring the request to be covered.
// When the lots are insufficient the plan allocates everything that is open.
func Preview(lots []model.Lot, quantity decimal.Decimal) (Plan, error) {
	if !quantity.IsPositive() {
		return Plan{}, apperrors.ErrInvalidQuantity
	}

	ordered := Order(lots)

	plan := Plan{
		Requested:      quantity,
		TotalAvailable: decimal.Zero,
		TotalCostBasis: decimal.Zero,
	}
	for _, l := range ordered {
		plan.TotalAvailable = plan.TotalAvailable.Add(l.QuantityRemaining)
	}
	plan.Sufficient = tolerance.Covers(plan.TotalAvailable, quantity)

	remaining := quantity
	for _, l := range ordered {
		if tolerance.IsZero(remaining) {
			break
		}
		if !tolerance.IsOpen(l.QuantityRemaining) {
			continue
		}

		take := decimal.Min(remaining, l.QuantityRemaining)
		costBasis := take.Mul(l.UnitCost)
		plan.Allocations = append(plan.Allocations, Allocation{
			LotID:      l.ID,
			AcquiredOn: l.AcquiredOn,
			UnitCost:   l.UnitCost,
			Available:  l.QuantityRemaining,
			Quantity:   take,
			CostBasis:  costBasis,
		})
		plan.TotalCostBasis = plan.TotalCostBasis.Add(costBasis)
		remaining = remaining.Sub(take)
	}

	// Dust lots count toward the total but are never drawn from.
	if plan.Sufficient && !tolerance.IsZero(remaining) {
		plan.Sufficient = false
	}

	return plan, nil
}

// Assign plans a sale that must be fully covered by the lots.
// It returns ErrInsufficientLots, and no allocations, when it cannot be.
func Assign(lots []model.Lot, quantity decimal.Decimal) (Plan, error) {
	plan, err := Preview(lots, quantity)
	if err != nil {
		return Plan{}, err
	}
	if !plan.Sufficient {
		return Plan{}, fmt.Errorf("%w: available %s, requested %s",
			apperrors.ErrInsufficientLots, plan.TotalAvailable.String(), quantity.String())
	}
	return plan, nil
}
