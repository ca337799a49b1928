package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeathera-byte/3layered/internal/pricing"
)

func TestAddItemMergesSameKey(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 500, Quantity: 1}))
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 500, Quantity: 2}))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, uint(3), lines[0].Quantity)
}

func TestAddItemKeepsCustomizedLinesDistinct(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 500, Quantity: 1}))
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 500, Quantity: 1, Customization: "engrave name"}))
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 500, Quantity: 1, DriveLink: "https://drive.example/f"}))

	// Same product, three distinct merge keys, three lines.
	require.Len(t, c.Lines(), 3)
	assert.Equal(t, uint(3), c.TotalItems())
}

func TestAddItemRejectsBrokenDiscountInvariant(t *testing.T) {
	t.Parallel()

	c := New()
	err := c.AddItem(Line{ProductID: 1, Price: 950, OriginalPrice: 1000, DiscountPct: 10, Quantity: 1})
	require.ErrorIs(t, err, pricing.ErrInvalidInput)

	err = c.AddItem(Line{ProductID: 1, Price: 900, DiscountPct: 10, Quantity: 1})
	require.ErrorIs(t, err, pricing.ErrInvalidInput)

	require.Empty(t, c.Lines())
}

func TestUpdateQuantityFloor(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddItem(Line{ProductID: 7, Price: 100, Quantity: 5}))

	c.UpdateQuantity(7, 2)
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, uint(2), c.Lines()[0].Quantity)

	c.UpdateQuantity(7, 0)
	assert.Empty(t, c.Lines())

	require.NoError(t, c.AddItem(Line{ProductID: 7, Price: 100, Quantity: 1}))
	c.UpdateQuantity(7, -1)
	assert.Empty(t, c.Lines())
}

func TestRemoveItemDropsFirstMatch(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 100, Quantity: 1}))
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 100, Quantity: 1, Customization: "matte finish"}))

	c.RemoveItem(1)
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "matte finish", lines[0].Customization)
}

func TestAggregates(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddItem(Line{
		ProductID:     1,
		Price:         900,
		OriginalPrice: 1000,
		DiscountPct:   10,
		Quantity:      2,
		Customization: "engrave name",
	}))

	assert.Equal(t, int64(1800), c.Subtotal())
	assert.Equal(t, int64(2000), c.OriginalSubtotal())
	assert.Equal(t, int64(200), c.TotalSavings())
	assert.True(t, c.HasCustomizedItems())
	assert.Equal(t, int64(300), c.CustomizationFee(300))
	assert.Equal(t, uint(2), c.TotalItems())
}

func TestSavingsNeverNegative(t *testing.T) {
	t.Parallel()

	carts := []*Cart{New(), New(), New()}
	require.NoError(t, carts[1].AddItem(Line{ProductID: 1, Price: 100, Quantity: 3}))
	require.NoError(t, carts[2].AddItem(Line{ProductID: 2, Price: 425, OriginalPrice: 500, DiscountPct: 15, Quantity: 1}))
	require.NoError(t, carts[2].AddItem(Line{ProductID: 3, Price: 60, Quantity: 10}))

	for _, c := range carts {
		assert.GreaterOrEqual(t, c.TotalSavings(), int64(0))
	}
}

func TestCustomizationFeeZeroWithoutCustomLines(t *testing.T) {
	t.Parallel()

	c := New()
	require.NoError(t, c.AddItem(Line{ProductID: 1, Price: 100, Quantity: 1}))

	assert.False(t, c.HasCustomizedItems())
	assert.Zero(t, c.CustomizationFee(300))
}
