// Package stock applies order quantities to the active menu. Reserve and
// Release are pure: they return a new menu and never touch their input.
package stock

import (
	"errors"
	"fmt"

	"lunch-system/internal/domain"
)

var (
	ErrSoldOut           = errors.New("sold out")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Error reports which dish blocked a reservation.
type Error struct {
	Kind      error
	DishID    string
	DishName  string
	Available int
	Requested int
}

func (e *Error) Error() string {
	if e.Kind == ErrInsufficientStock {
		return fmt.Sprintf("%s: %s (available %d, requested %d)", e.Kind, e.DishName, e.Available, e.Requested)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.DishName)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// demand sums quantities per dish so repeated lines are checked as one.
func demand(items []domain.OrderItem) (map[string]int, []string) {
	totals := make(map[string]int, len(items))
	var ids []string
	for _, it := range items {
		if _, seen := totals[it.ID]; !seen {
			ids = append(ids, it.ID)
		}
		totals[it.ID] += it.Quantity
	}
	return totals, ids
}

// Reserve validates every item of the order against the menu and, when all
// of them are available, returns a copy of the menu with stock decremented.
// On failure the returned menu is nil and the input is unchanged.
//
// Items without a matching menu entry have no stock effect.
func Reserve(order domain.Order, menu []domain.ActiveMenuEntry) ([]domain.ActiveMenuEntry, error) {
	totals, ids := demand(order.Items)
	index := make(map[string]int, len(menu))
	for i, e := range menu {
		index[e.ID] = i
	}

	for _, id := range ids {
		i, ok := index[id]
		if !ok {
			continue
		}
		e := menu[i]
		want := totals[id]
		if e.IsSoldOut {
			return nil, &Error{Kind: ErrSoldOut, DishID: e.ID, DishName: e.Name, Requested: want}
		}
		if e.Quantity != nil && *e.Quantity < want {
			return nil, &Error{Kind: ErrInsufficientStock, DishID: e.ID, DishName: e.Name, Available: *e.Quantity, Requested: want}
		}
	}

	next := domain.CloneMenu(menu)
	for _, id := range ids {
		i, ok := index[id]
		if !ok || next[i].Quantity == nil {
			continue
		}
		*next[i].Quantity -= totals[id]
	}
	return next, nil
}

// Release gives an order's quantities back to the menu. Entries with
// unlimited stock and dishes no longer on the menu are left alone.
func Release(order domain.Order, menu []domain.ActiveMenuEntry) []domain.ActiveMenuEntry {
	totals, _ := demand(order.Items)
	next := domain.CloneMenu(menu)
	for i := range next {
		q, ok := totals[next[i].ID]
		if !ok || next[i].Quantity == nil {
			continue
		}
		*next[i].Quantity += q
	}
	return next
}
