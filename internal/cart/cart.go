// Package cart holds the selection rules an employee goes through while
// building a lunch order. The rules are advisory: the server re-validates
// stock on submission and never trusts a client-side selection.
package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"lunch-system/internal/domain"
)

var (
	// Budget is the maximum total of a selection.
	Budget = decimal.RequireFromString("15.00")
	// SideThreshold is the Main price above which no side dish may be added.
	SideThreshold = decimal.RequireFromString("7.50")
)

var (
	ErrBudgetExceeded             = errors.New("budget exceeded")
	ErrSideBlockedByExpensiveMain = errors.New("side dish not allowed with this main dish")
	ErrDishUnavailable            = errors.New("dish is not available")
)

// Outcome describes what a Toggle did to the selection.
type Outcome struct {
	Added   bool
	Removed bool
	Evicted []domain.Dish
	Notices []string
}

// Cart is a selection set keyed by dish id. Each dish is selected at most once.
type Cart struct {
	selected map[string]domain.ActiveMenuEntry
	order    []string
}

func New() *Cart {
	return &Cart{selected: make(map[string]domain.ActiveMenuEntry)}
}

// Restore rebuilds a cart by replaying ids through Toggle against the
// active menu, so a selection handed back by a client obeys the same rules
// as one built interactively. Ids that are unknown, repeated, rejected by a
// rule or evicted by a later id are returned in dropped.
func Restore(menu []domain.ActiveMenuEntry, ids []string) (c *Cart, dropped []string) {
	c = New()
	byID := make(map[string]domain.ActiveMenuEntry, len(menu))
	for _, e := range menu {
		byID[e.ID] = e
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		e, ok := byID[id]
		if !ok || seen[id] {
			dropped = append(dropped, id)
			continue
		}
		seen[id] = true

		out, err := c.Toggle(e)
		if err != nil {
			dropped = append(dropped, id)
			continue
		}
		for _, d := range out.Evicted {
			dropped = append(dropped, d.ID)
		}
	}
	return c, dropped
}

func (c *Cart) Has(id string) bool {
	_, ok := c.selected[id]
	return ok
}

func (c *Cart) Len() int {
	return len(c.selected)
}

// IDs returns the selected dish ids in selection order.
func (c *Cart) IDs() []string {
	return append([]string{}, c.order...)
}

// Items converts the selection into order items, one unit per dish.
func (c *Cart) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, domain.OrderItem{ID: id, Quantity: 1})
	}
	return items
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.selected {
		total = total.Add(e.Price.Decimal)
	}
	return total
}

// Toggle removes item when it is already selected, otherwise tries to add it.
//
// Checks run in a fixed order: budget, main exclusivity, price-conditioned
// side eligibility, side exclusivity, one-per-category. A rejected attempt
// leaves the selection untouched.
func (c *Cart) Toggle(item domain.ActiveMenuEntry) (Outcome, error) {
	if c.Has(item.ID) {
		c.remove(item.ID)
		return Outcome{Removed: true}, nil
	}

	if !item.Available() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrDishUnavailable, item.Name)
	}

	if c.Total().Add(item.Price.Decimal).GreaterThan(Budget) {
		return Outcome{}, fmt.Errorf("%w: max %s", ErrBudgetExceeded, Budget.StringFixed(2))
	}

	var out Outcome
	switch {
	case item.Category.IsMain():
		out.Evicted = append(out.Evicted, c.evict(func(e domain.ActiveMenuEntry) bool {
			return e.Category.IsMain()
		})...)
		if item.Price.GreaterThan(SideThreshold) {
			sides := c.evict(func(e domain.ActiveMenuEntry) bool { return e.Category.IsSide() })
			for _, s := range sides {
				out.Notices = append(out.Notices, fmt.Sprintf("%s removed: no side dish with a main above %s", s.Name, SideThreshold.StringFixed(2)))
			}
			out.Evicted = append(out.Evicted, sides...)
		}
	case item.Category.IsSide():
		if main, ok := c.main(); ok && main.Price.GreaterThan(SideThreshold) {
			return Outcome{}, fmt.Errorf("%w: %s", ErrSideBlockedByExpensiveMain, main.Name)
		}
		out.Evicted = append(out.Evicted, c.evict(func(e domain.ActiveMenuEntry) bool {
			return e.Category.IsSide()
		})...)
	default:
		out.Evicted = append(out.Evicted, c.evict(func(e domain.ActiveMenuEntry) bool {
			return e.Category == item.Category
		})...)
	}

	c.put(item)
	out.Added = true
	return out, nil
}

func (c *Cart) main() (domain.ActiveMenuEntry, bool) {
	for _, id := range c.order {
		if e := c.selected[id]; e.Category.IsMain() {
			return e, true
		}
	}
	return domain.ActiveMenuEntry{}, false
}

func (c *Cart) evict(match func(domain.ActiveMenuEntry) bool) []domain.Dish {
	var gone []domain.Dish
	for _, id := range c.IDs() {
		if e := c.selected[id]; match(e) {
			c.remove(id)
			gone = append(gone, e.Dish)
		}
	}
	return gone
}

func (c *Cart) put(e domain.ActiveMenuEntry) {
	c.selected[e.ID] = e
	c.order = append(c.order, e.ID)
}

func (c *Cart) remove(id string) {
	delete(c.selected, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
