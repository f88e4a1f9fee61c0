package money

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// Errors returned when converting external values into amounts.
var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must be >= 0")
	ErrTooPrecise     = errors.New("amount has more decimal places than the currency allows")
	ErrOverflow       = errors.New("amount out of range")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// Amount is a price expressed in minor units of the configured currency
// (e.g. 5000 XAF with exponent 0, or 1250 cents for 12.50 EUR).
type Amount int64

// Mul returns the amount multiplied by a quantity.
func (a Amount) Mul(qty int) Amount {
	return a * Amount(qty)
}

// MulChecked is Mul for non-negative operands, failing with ErrOverflow
// instead of wrapping.
func (a Amount) MulChecked(qty int) (Amount, error) {
	if a < 0 || qty < 0 {
		return 0, ErrOverflow
	}
	if qty != 0 && int64(a) > math.MaxInt64/int64(qty) {
		return 0, ErrOverflow
	}
	return a * Amount(qty), nil
}

// AddChecked is a + b for non-negative operands, failing with ErrOverflow
// instead of wrapping.
func (a Amount) AddChecked(b Amount) (Amount, error) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Currency describes how amounts convert to and from their decimal form.
type Currency struct {
	Code     string
	Exponent int32
}

// Parse converts a decimal string in major units into minor units.
func (c Currency) Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return c.FromDecimal(d)
}

// FromDecimal converts a decimal in major units into minor units.
func (c Currency) FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	minor := d.Shift(c.Exponent)
	if !minor.IsInteger() {
		return 0, ErrTooPrecise
	}
	if minor.GreaterThan(maxMinor) {
		return 0, ErrInvalidAmount
	}
	return Amount(minor.IntPart()), nil
}

// Decimal returns the amount in major units.
func (c Currency) Decimal(a Amount) decimal.Decimal {
	return decimal.New(int64(a), -c.Exponent)
}

// Format renders the amount with exactly Exponent decimal places.
func (c Currency) Format(a Amount) string {
	return c.Decimal(a).StringFixed(c.Exponent)
}

// Number renders the amount as a JSON number in major units.
func (c Currency) Number(a Amount) json.Number {
	return json.Number(c.Format(a))
}
