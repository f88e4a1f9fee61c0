// Package cart holds a diner's working order before it is submitted.
package cart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/tablemenu/api/internal/customization"
	"github.com/tablemenu/api/internal/money"
	"github.com/tablemenu/api/internal/pricing"
)

// MaxQuantity is the largest quantity a single line may carry.
const MaxQuantity = 999

// Errors returned by cart mutations.
var (
	ErrInvalidQuantity = errors.New("quantity must be between 0 and 999")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Item identifies the dish being added, with the price it had when added.
type Item struct {
	DishID    uuid.UUID
	DishName  string
	BasePrice money.Amount
}

// Line is one dish instance in the cart.
type Line struct {
	DishID     uuid.UUID                 `json:"dishId"`
	DishName   string                    `json:"dishName"`
	BasePrice  money.Amount              `json:"basePrice"`
	Quantity   int                       `json:"quantity"`
	Selections []customization.Selection `json:"selections"`
	Comment    string                    `json:"comment,omitempty"`
	UnitPrice  money.Amount              `json:"unitPrice"`
}

func (l Line) PricedUnit() money.Amount { return l.UnitPrice }
func (l Line) PricedQuantity() int      { return l.Quantity }

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() money.Amount {
	return pricing.LineSubtotal(l.UnitPrice, l.Quantity)
}

func (l Line) plain() bool {
	return len(l.Selections) == 0 && l.Comment == ""
}

// Cart is an ordered list of lines. The zero value is an empty cart.
type Cart struct {
	Lines []Line `json:"lines"`
}

// Add appends a quantity-1 line and returns its index. A plain addition
// (no selections, no comment) of a dish that already has a plain line bumps
// that line's quantity instead, unless it is already at MaxQuantity.
func (c *Cart) Add(item Item, selections []customization.Selection, comment string) int {
	line := Line{
		DishID:     item.DishID,
		DishName:   item.DishName,
		BasePrice:  item.BasePrice,
		Quantity:   1,
		Selections: append([]customization.Selection{}, selections...),
		Comment:    comment,
	}
	line.UnitPrice = pricing.UnitPrice(line.BasePrice, customization.Extras(line.Selections)...)

	if line.plain() {
		for i, l := range c.Lines {
			if l.DishID == line.DishID && l.plain() && l.Quantity < MaxQuantity {
				c.Lines[i].Quantity++
				return i
			}
		}
	}

	c.Lines = append(c.Lines, line)
	return len(c.Lines) - 1
}

// UpdateLine sets the quantity of the line at index. Quantity 0 removes the
// line. A non-nil comment replaces the line's comment.
func (c *Cart) UpdateLine(index, quantity int, comment *string) error {
	if quantity < 0 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if index < 0 || index >= len(c.Lines) {
		return ErrLineNotFound
	}
	if quantity == 0 {
		return c.RemoveLine(index)
	}

	c.Lines[index].Quantity = quantity
	if comment != nil {
		c.Lines[index].Comment = *comment
	}
	return nil
}

// RemoveLine deletes the line at index.
func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.Lines) {
		return ErrLineNotFound
	}
	c.Lines = append(c.Lines[:index], c.Lines[index+1:]...)
	return nil
}

// Reprice recomputes every line's unit price from its base price and selections.
func (c *Cart) Reprice() {
	for i := range c.Lines {
		l := &c.Lines[i]
		l.UnitPrice = pricing.UnitPrice(l.BasePrice, customization.Extras(l.Selections)...)
	}
}

// Total returns the order total over all lines.
func (c *Cart) Total() money.Amount {
	return pricing.OrderTotal(c.Lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
