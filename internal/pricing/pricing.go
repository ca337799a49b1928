package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned for negative, non-finite or out-of-range
// pricing inputs instead of silently defaulting them to zero.
var ErrInvalidInput = errors.New("invalid input")

// Round is the single rounding point for monetary values. All amounts the
// API returns are whole rupees, rounded half away from zero.
func Round(v float64) int64 {
	return int64(math.Round(v))
}

// EffectivePrice derives the unit price actually charged from the listed
// price and a discount percentage.
func EffectivePrice(listed float64, discountPct int) (int64, error) {
	if listed < 0 || math.IsNaN(listed) || math.IsInf(listed, 0) {
		return 0, fmt.Errorf("%w: listed price %v", ErrInvalidInput, listed)
	}
	if discountPct < 0 || discountPct > 100 {
		return 0, fmt.Errorf("%w: discount %d%%", ErrInvalidInput, discountPct)
	}
	if discountPct == 0 {
		return Round(listed), nil
	}
	return Round(listed * (1 - float64(discountPct)/100)), nil
}

// ListedPrice back-solves the pre-discount listed price from a desired
// final price. Admin data entry uses this so a product can be keyed in by
// the price the customer should pay. A 100% discount has no inverse.
func ListedPrice(final float64, discountPct int) (int64, error) {
	if final < 0 || math.IsNaN(final) || math.IsInf(final, 0) {
		return 0, fmt.Errorf("%w: final price %v", ErrInvalidInput, final)
	}
	if discountPct < 0 || discountPct >= 100 {
		return 0, fmt.Errorf("%w: discount %d%%", ErrInvalidInput, discountPct)
	}
	if discountPct == 0 {
		return Round(final), nil
	}
	return Round(final / (1 - float64(discountPct)/100)), nil
}
