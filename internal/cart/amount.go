package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxPledge is the largest amount a single line item may carry.
var MaxPledge = decimal.NewFromInt(1_000_000)

// Exponent bounds keep every comparison and sum on small integers. Values
// outside them are rejected before any arithmetic runs.
const (
	minAmountExponent = -18
	maxAmountExponent = 6
	amountPlaces      = 2
)

// ValidateAmount reports whether amount is a positive whole-cent pledge no
// larger than MaxPledge.
func ValidateAmount(amount decimal.Decimal) error {
	if exp := amount.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return fmt.Errorf("%w: amount is out of range", ErrInvalidAmount)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidAmount)
	}
	if amount.GreaterThan(MaxPledge) {
		return fmt.Errorf("%w: amount exceeds %s", ErrInvalidAmount, MaxPledge.StringFixed(amountPlaces))
	}
	if !amount.Round(amountPlaces).Equal(amount) {
		return fmt.Errorf("%w: amount has more than %d decimal places", ErrInvalidAmount, amountPlaces)
	}
	return nil
}
