package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"lunch-system/internal/domain"
)

type DishCount struct {
	DishID string `json:"dishId"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

type TableOccupancy struct {
	TableID  string `json:"tableId"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Seated   int    `json:"seated"`
}

// Summary is what the kitchen prepares for the day.
type Summary struct {
	Orders  int              `json:"orders"`
	Dishes  []DishCount      `json:"dishes"`
	Revenue domain.Money     `json:"revenue"`
	Tables  []TableOccupancy `json:"tables"`
}

// Summarize counts ordered units per dish. Names come from today's menu,
// then the archive, and "???" when the dish is gone from both.
func Summarize(doc domain.Document) Summary {
	names := make(map[string]string)
	prices := make(map[string]decimal.Decimal)
	for _, d := range doc.AllDishes {
		names[d.ID] = d.Name
		prices[d.ID] = d.Price.Decimal
	}
	for _, e := range doc.ActiveMenu {
		names[e.ID] = e.Name
		prices[e.ID] = e.Price.Decimal
	}

	counts := make(map[string]int)
	revenue := decimal.Zero
	for _, o := range doc.Orders {
		for _, it := range o.Items {
			counts[it.ID] += it.Quantity
			if p, ok := prices[it.ID]; ok {
				revenue = revenue.Add(p.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
		}
	}

	dishes := make([]DishCount, 0, len(counts))
	for id, n := range counts {
		name, ok := names[id]
		if !ok {
			name = "???"
		}
		dishes = append(dishes, DishCount{DishID: id, Name: name, Count: n})
	}
	sort.Slice(dishes, func(i, j int) bool {
		if dishes[i].Count != dishes[j].Count {
			return dishes[i].Count > dishes[j].Count
		}
		return dishes[i].Name < dishes[j].Name
	})

	tables := make([]TableOccupancy, 0, len(doc.Tables))
	for _, t := range doc.Tables {
		tables = append(tables, TableOccupancy{TableID: t.ID, Name: t.Name, Capacity: t.Capacity, Seated: doc.SeatsTaken(t.ID)})
	}

	return Summary{Orders: len(doc.Orders), Dishes: dishes, Revenue: domain.NewMoney(revenue), Tables: tables}
}
