// Package tolerance centralizes the share-reconciliation slack used by the ledger.
//
// Quantities are exact decimals, but user input (and amounts converted to
// shares through a price) can leave residues far below anything a broker
// would report. Every comparison that decides whether shares are "used up"
// or "enough" goes through this package.
package tolerance

import "github.com/shopspring/decimal"

// Epsilon is the reconciliation tolerance for share quantities.
var Epsilon = decimal.New(1, -4)

// IsZero reports whether |d| is within Epsilon of zero.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// IsOpen reports whether a remaining quantity is large enough to draw from.
func IsOpen(remaining decimal.Decimal) bool {
	return remaining.GreaterThan(Epsilon)
}

// Equal reports whether a and b differ by at most Epsilon.
func Equal(a, b decimal.Decimal) bool {
	return IsZero(a.Sub(b))
}

// Covers reports whether available is enough to satisfy requested, allowing Epsilon of slack.
func Covers(available, requested decimal.Decimal) bool {
	return available.GreaterThanOrEqual(requested.Sub(Epsilon))
}
