package domain

import "time"

type Category string

const (
	CategoryPrimo    Category = "primo"
	CategorySecondo  Category = "secondo"
	CategoryContorno Category = "contorno"
	CategoryBevanda  Category = "bevanda"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPrimo, CategorySecondo, CategoryContorno, CategoryBevanda:
		return true
	}
	return false
}

// IsMain reports whether the category belongs to the Main group (primo or secondo).
func (c Category) IsMain() bool {
	return c == CategoryPrimo || c == CategorySecondo
}

func (c Category) IsSide() bool {
	return c == CategoryContorno
}

// Dish is an archived dish. The archive outlives the daily menu.
type Dish struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Price    Money    `json:"price"`
}

// ActiveMenuEntry is a dish offered today. A nil Quantity means unlimited stock.
type ActiveMenuEntry struct {
	Dish
	Quantity  *int `json:"quantity,omitempty"`
	IsSoldOut bool `json:"isSoldOut"`
}

// Available reports whether the entry can be selected for a new order.
func (e ActiveMenuEntry) Available() bool {
	if e.IsSoldOut {
		return false
	}
	return e.Quantity == nil || *e.Quantity > 0
}

// Unlimited reports whether the entry does not track stock.
func (e ActiveMenuEntry) Unlimited() bool {
	return e.Quantity == nil
}

type OrderItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	ID           string      `json:"id"`
	EmployeeName string      `json:"employeeName"`
	Matricola    string      `json:"matricola"`
	Table        string      `json:"table,omitempty"`
	Items        []OrderItem `json:"items"`
	Timestamp    time.Time   `json:"timestamp"`
}

type Config struct {
	DisableCutoff bool `json:"disableCutoff"`
}

type Feedback struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Table is a seating table. Capacity 0 means no seat limit.
type Table struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// Document is the single shared JSON document every client polls and mutates.
type Document struct {
	ActiveMenu []ActiveMenuEntry `json:"activeMenu"`
	AllDishes  []Dish            `json:"allDishes"`
	Orders     []Order           `json:"orders"`
	Feedbacks  []Feedback        `json:"feedbacks"`
	Config     Config            `json:"config"`
	Tables     []Table           `json:"tables"`
	Revision   int64             `json:"revision"`
}
