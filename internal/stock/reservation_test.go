package stock

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lunch-system/internal/domain"
)

func menuEntry(id string, qty *int) domain.ActiveMenuEntry {
	return domain.ActiveMenuEntry{
		Dish:     domain.Dish{ID: id, Name: "dish " + id, Category: domain.CategoryPrimo, Price: domain.NewMoney(decimal.NewFromInt(5))},
		Quantity: qty,
	}
}

func orderOf(ids ...string) domain.Order {
	o := domain.Order{ID: "o", Matricola: "100"}
	for _, id := range ids {
		o.Items = append(o.Items, domain.OrderItem{ID: id, Quantity: 1})
	}
	return o
}

func TestReserveDecrementsTrackedStock(t *testing.T) {
	menu := []domain.ActiveMenuEntry{menuEntry("a", domain.IntPtr(3)), menuEntry("b", nil)}

	next, err := Reserve(orderOf("a", "b"), menu)
	require.NoError(t, err)

	assert.Equal(t, 2, *next[0].Quantity)
	assert.Nil(t, next[1].Quantity)
	assert.Equal(t, 3, *menu[0].Quantity, "input must not be mutated")
}

func TestReserveSoldOut(t *testing.T) {
	sold := menuEntry("a", domain.IntPtr(5))
	sold.IsSoldOut = true

	_, err := Reserve(orderOf("a"), []domain.ActiveMenuEntry{sold})
	assert.ErrorIs(t, err, ErrSoldOut)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "dish a", se.DishName)
}

func TestReserveIsAllOrNothing(t *testing.T) {
	menu := []domain.ActiveMenuEntry{menuEntry("a", domain.IntPtr(4)), menuEntry("b", domain.IntPtr(0))}

	next, err := Reserve(orderOf("a", "b"), menu)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Nil(t, next)
	assert.Equal(t, 4, *menu[0].Quantity)
	assert.Equal(t, 0, *menu[1].Quantity)
}

func TestReserveAggregatesRepeatedItems(t *testing.T) {
	menu := []domain.ActiveMenuEntry{menuEntry("a", domain.IntPtr(1))}

	_, err := Reserve(orderOf("a", "a"), menu)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestReserveIgnoresUnknownDish(t *testing.T) {
	menu := []domain.ActiveMenuEntry{menuEntry("a", domain.IntPtr(1))}

	next, err := Reserve(orderOf("ghost"), menu)
	require.NoError(t, err)
	assert.Equal(t, menu, next)
}

func TestReleaseRestoresOnlyTrackedActiveEntries(t *testing.T) {
	menu := []domain.ActiveMenuEntry{menuEntry("a", domain.IntPtr(0)), menuEntry("b", nil)}

	next := Release(orderOf("a", "b", "removed"), menu)
	assert.Equal(t, 1, *next[0].Quantity)
	assert.Nil(t, next[1].Quantity)
	assert.Len(t, next, 2)
	assert.Equal(t, 0, *menu[0].Quantity)
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	menu := []domain.ActiveMenuEntry{
		menuEntry("a", domain.IntPtr(2)),
		menuEntry("b", nil),
		menuEntry("c", domain.IntPtr(7)),
	}
	order := orderOf("a", "b", "c")

	reserved, err := Reserve(order, menu)
	require.NoError(t, err)
	assert.Equal(t, menu, Release(order, reserved))
}

func TestBackToBackOrdersForLastUnit(t *testing.T) {
	menu := []domain.ActiveMenuEntry{menuEntry("C", domain.IntPtr(1))}
	first, second := orderOf("C"), orderOf("C")

	menu, err := Reserve(first, menu)
	require.NoError(t, err)
	assert.Equal(t, 0, *menu[0].Quantity)

	_, err = Reserve(second, menu)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	menu = Release(first, menu)
	assert.Equal(t, 1, *menu[0].Quantity)

	menu, err = Reserve(orderOf("C"), menu)
	require.NoError(t, err)
	assert.Equal(t, 0, *menu[0].Quantity)
}

func TestStockNeverNegative(t *testing.T) {
	menu := []domain.ActiveMenuEntry{menuEntry("a", domain.IntPtr(3)), menuEntry("b", domain.IntPtr(1))}
	var placed []domain.Order

	for i := 0; i < 50; i++ {
		if i%3 == 2 && len(placed) > 0 {
			menu = Release(placed[0], menu)
			placed = placed[1:]
		} else {
			o := orderOf("a", "b")
			if i%2 == 0 {
				o = orderOf("a")
			}
			if next, err := Reserve(o, menu); err == nil {
				menu = next
				placed = append(placed, o)
			}
		}
		for _, e := range menu {
			assert.GreaterOrEqual(t, *e.Quantity, 0)
		}
	}
}
