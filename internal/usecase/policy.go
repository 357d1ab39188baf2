package usecase

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Verdict classifies a received on-chain amount against the frozen expectation.
type Verdict string

const (
	VerdictMatch     Verdict = "match"
	VerdictUnderpaid Verdict = "underpaid"
	VerdictOverpaid  Verdict = "overpaid"
)

// Policy compares received amounts with expected ones.
type Policy struct {
	// Tolerance is the absolute difference still accepted as a match.
	Tolerance decimal.Decimal
	// SettleMismatch moves confirmed mismatches to UNDERPAID or OVERPAID instead of ignoring them.
	SettleMismatch bool
}

// Classify compares both amounts at on-chain precision.
func (p Policy) Classify(expected, received decimal.Decimal) Verdict {
	diff := received.Round(model.OnChainPrecision).Sub(expected.Round(model.OnChainPrecision))
	if diff.Abs().LessThanOrEqual(p.Tolerance.Abs()) {
		return VerdictMatch
	}
	if diff.IsNegative() {
		return VerdictUnderpaid
	}
	return VerdictOverpaid
}
