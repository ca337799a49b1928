package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		listed float64
		pct    int
		want   int64
	}{
		{name: "no discount", listed: 1000, pct: 0, want: 1000},
		{name: "ten percent", listed: 1000, pct: 10, want: 900},
		{name: "rounds up", listed: 999, pct: 15, want: 849},
		{name: "full discount", listed: 500, pct: 100, want: 0},
		{name: "fractional listed", listed: 499.5, pct: 0, want: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EffectivePrice(tt.listed, tt.pct)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListedPrice(t *testing.T) {
	t.Parallel()

	// Admin enters the final price and the discount; the listed price is
	// back-solved: round(900 / 0.9) = 1000.
	got, err := ListedPrice(900, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got)

	got, err = ListedPrice(750, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(750), got)
}

func TestListedPriceRejectsFullDiscount(t *testing.T) {
	t.Parallel()

	_, err := ListedPrice(900, 100)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestInvalidInputs(t *testing.T) {
	t.Parallel()

	_, err := EffectivePrice(-1, 10)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = EffectivePrice(100, -5)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = EffectivePrice(100, 101)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = EffectivePrice(math.NaN(), 10)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = ListedPrice(math.Inf(1), 10)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDiscountRoundTrip(t *testing.T) {
	t.Parallel()

	// For any listed price and discount in [0,99], back-solving the
	// effective price recovers the listed price within one rupee.
	for _, listed := range []int64{1, 49, 100, 999, 1000, 12345, 99999} {
		for pct := 0; pct <= 99; pct++ {
			eff, err := EffectivePrice(float64(listed), pct)
			require.NoError(t, err)

			back, err := ListedPrice(float64(eff), pct)
			require.NoError(t, err)

			diff := back - listed
			if diff < 0 {
				diff = -diff
			}
			// Rounding the effective price loses at most half a rupee,
			// which the inverse magnifies by 1/(1-pct/100).
			tol := int64(math.Ceil(0.5/(1-float64(pct)/100))) + 1
			assert.LessOrEqual(t, diff, tol, "listed=%d pct=%d eff=%d back=%d", listed, pct, eff, back)
		}
	}

	// Within the common discount range the round trip stays within one rupee.
	for _, listed := range []int64{100, 900, 1000, 2500} {
		for pct := 0; pct <= 50; pct++ {
			eff, _ := EffectivePrice(float64(listed), pct)
			back, _ := ListedPrice(float64(eff), pct)
			assert.InDelta(t, listed, back, 1, "listed=%d pct=%d", listed, pct)
		}
	}
}
