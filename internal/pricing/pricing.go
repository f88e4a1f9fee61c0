// Package pricing composes per-unit and order prices from a dish base price
// and the extra prices of the options selected for it. All functions are pure.
package pricing

import "github.com/tablemenu/api/internal/money"

// Priced is anything with a unit price and a quantity, such as a cart line.
type Priced interface {
	PricedUnit() money.Amount
	PricedQuantity() int
}

// UnitPrice returns base + sum(extras).
func UnitPrice(base money.Amount, extras ...money.Amount) money.Amount {
	total := base
	for _, e := range extras {
		total += e
	}
	return total
}

// LineSubtotal returns unit price times quantity.
func LineSubtotal(unit money.Amount, quantity int) money.Amount {
	return unit.Mul(quantity)
}

// OrderTotal sums unit price x quantity over all lines.
func OrderTotal[T Priced](lines []T) money.Amount {
	var total money.Amount
	for _, l := range lines {
		total += LineSubtotal(l.PricedUnit(), l.PricedQuantity())
	}
	return total
}

// CheckedOrderTotal is OrderTotal that fails with money.ErrOverflow when a
// line subtotal or the running total leaves the int64 range.
func CheckedOrderTotal[T Priced](lines []T) (money.Amount, error) {
	var total money.Amount
	for _, l := range lines {
		sub, err := l.PricedUnit().MulChecked(l.PricedQuantity())
		if err != nil {
			return 0, err
		}
		if total, err = total.AddChecked(sub); err != nil {
			return 0, err
		}
	}
	return total, nil
}
