// Package cart holds the in-memory cart aggregate. It is pure: handlers
// load persisted cart rows, build a Cart and read totals off it, so the
// arithmetic is testable without a database.
package cart

import (
	"fmt"

	"github.com/makeathera-byte/3layered/internal/pricing"
)

// Line is one cart entry. Price and OriginalPrice are whole rupees per
// unit; OriginalPrice is zero when no discount applies.
type Line struct {
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	Price         int64  `json:"price"`
	OriginalPrice int64  `json:"original_price,omitempty"`
	DiscountPct   int    `json:"discount_percentage,omitempty"`
	Quantity      uint   `json:"quantity"`
	Customization string `json:"customization,omitempty"`
	DriveLink     string `json:"drive_link,omitempty"`
}

// sameKey reports whether two lines merge. A customized addition of a
// product never merges into a plain one: the merge key is the product id
// plus the customization text plus the drive link.
func (l Line) sameKey(other Line) bool {
	return l.ProductID == other.ProductID &&
		l.Customization == other.Customization &&
		l.DriveLink == other.DriveLink
}

type Cart struct {
	lines []Line
}

func New() *Cart {
	return &Cart{}
}

// AddItem appends a line, or increments quantity when a line with the same
// merge key already exists. Lines keep insertion order.
func (c *Cart) AddItem(l Line) error {
	if l.ProductID == 0 {
		return fmt.Errorf("%w: product id required", pricing.ErrInvalidInput)
	}
	if l.Quantity < 1 {
		l.Quantity = 1
	}
	if l.DiscountPct > 0 {
		if l.OriginalPrice <= 0 {
			return fmt.Errorf("%w: discounted line needs an original price", pricing.ErrInvalidInput)
		}
		want, err := pricing.EffectivePrice(float64(l.OriginalPrice), l.DiscountPct)
		if err != nil {
			return err
		}
		if l.Price != want {
			return fmt.Errorf("%w: price %d does not match %d%% off %d", pricing.ErrInvalidInput, l.Price, l.DiscountPct, l.OriginalPrice)
		}
	}
	for i := range c.lines {
		if c.lines[i].sameKey(l) {
			c.lines[i].Quantity += l.Quantity
			return nil
		}
	}
	c.lines = append(c.lines, l)
	return nil
}

// RemoveItem drops the first line for the product id.
func (c *Cart) RemoveItem(productID uint) {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// UpdateQuantity sets the quantity of the first line for the product id.
// Anything below one removes the line; a negative-quantity line can never
// exist.
func (c *Cart) UpdateQuantity(productID uint, qty int) {
	if qty < 1 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Quantity = uint(qty)
			return
		}
	}
}

// Clear empties the cart. Checkout calls it only after an order number
// has been issued.
func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) TotalItems() uint {
	var n uint
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, l := range c.lines {
		sum += l.Price * int64(l.Quantity)
	}
	return sum
}

// OriginalSubtotal is the pre-discount subtotal; lines without a discount
// count at their charged price.
func (c *Cart) OriginalSubtotal() int64 {
	var sum int64
	for _, l := range c.lines {
		unit := l.OriginalPrice
		if unit == 0 {
			unit = l.Price
		}
		sum += unit * int64(l.Quantity)
	}
	return sum
}

func (c *Cart) TotalSavings() int64 {
	s := c.OriginalSubtotal() - c.Subtotal()
	if s < 0 {
		return 0
	}
	return s
}

func (c *Cart) HasCustomizedItems() bool {
	for _, l := range c.lines {
		if l.Customization != "" {
			return true
		}
	}
	return false
}

// CustomizationFee is a flat surcharge applied once when any line carries
// customization text. The fee amount is configuration, not a constant.
func (c *Cart) CustomizationFee(flatFee int64) int64 {
	if c.HasCustomizedItems() {
		return flatFee
	}
	return 0
}
