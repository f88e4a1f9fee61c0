package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablemenu/api/internal/money"
)

type line struct {
	unit money.Amount
	qty  int
}

func (l line) PricedUnit() money.Amount { return l.unit }
func (l line) PricedQuantity() int      { return l.qty }

func TestUnitPrice(t *testing.T) {
	tests := []struct {
		name   string
		base   money.Amount
		extras []money.Amount
		want   money.Amount
	}{
		{name: "no_extras", base: 5000, want: 5000},
		{name: "two_extras", base: 5000, extras: []money.Amount{500, 300}, want: 5800},
		{name: "zero_extra", base: 1200, extras: []money.Amount{0}, want: 1200},
		{name: "free_dish", base: 0, extras: []money.Amount{250}, want: 250},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UnitPrice(tc.base, tc.extras...))
		})
	}
}

func TestUnitPriceDoesNotMutateExtras(t *testing.T) {
	extras := []money.Amount{500, 300}
	UnitPrice(5000, extras...)
	assert.Equal(t, []money.Amount{500, 300}, extras)
}

func TestOrderTotal(t *testing.T) {
	lines := []line{{unit: 5800, qty: 2}, {unit: 1200, qty: 1}}
	assert.Equal(t, money.Amount(12800), OrderTotal(lines))
}

func TestOrderTotal_Empty(t *testing.T) {
	assert.Equal(t, money.Amount(0), OrderTotal([]line{}))
}

func TestOrderTotal_RecomputedAfterQuantityChange(t *testing.T) {
	lines := []line{{unit: 5800, qty: 2}}
	assert.Equal(t, money.Amount(11600), OrderTotal(lines))

	lines[0].qty = 3
	assert.Equal(t, money.Amount(17400), OrderTotal(lines))
}

func TestCheckedOrderTotal(t *testing.T) {
	total, err := CheckedOrderTotal([]line{{unit: 5800, qty: 2}, {unit: 1200, qty: 1}})
	require.NoError(t, err)
	assert.Equal(t, money.Amount(12800), total)

	_, err = CheckedOrderTotal([]line{{unit: math.MaxInt64 / 2, qty: 3}})
	assert.ErrorIs(t, err, money.ErrOverflow, "line subtotal overflow")

	_, err = CheckedOrderTotal([]line{{unit: math.MaxInt64, qty: 1}, {unit: 1, qty: 1}})
	assert.ErrorIs(t, err, money.ErrOverflow, "running total overflow")

	// A unit price that already wrapped while adding extras.
	_, err = CheckedOrderTotal([]line{{unit: UnitPrice(math.MaxInt64, 1), qty: 1}})
	assert.ErrorIs(t, err, money.ErrOverflow, "wrapped unit price")
}
