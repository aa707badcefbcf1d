package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"lunch-system/internal/domain"
)

func decode(raw json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return fmt.Errorf("%w: payload required", domain.ErrInvalidPayload)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidPayload, fmt.Sprintf(format, args...))
}

type idPayload struct {
	ID string `json:"id"`
}

func (p idPayload) validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return invalid("id required")
	}
	return nil
}

type dishPayload struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`
	Price    domain.Money    `json:"price"`
}

func (p dishPayload) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name required")
	}
	if !p.Category.Valid() {
		return invalid("unknown category %q", p.Category)
	}
	if !p.Price.IsPositive() {
		return invalid("price must be greater than 0")
	}
	return nil
}

func validateMenu(menu []domain.ActiveMenuEntry) error {
	seen := make(map[string]bool, len(menu))
	for _, e := range menu {
		if e.ID == "" {
			return invalid("menu entry without id")
		}
		if seen[e.ID] {
			return invalid("dish %s listed twice", e.ID)
		}
		seen[e.ID] = true
		if !e.Category.Valid() {
			return invalid("unknown category %q for %s", e.Category, e.ID)
		}
		if e.Quantity != nil && *e.Quantity < 0 {
			return invalid("negative quantity for %s", e.ID)
		}
	}
	return nil
}

// stockPatch is a partial update of one active entry. Unlimited clears the
// tracked quantity.
type stockPatch struct {
	ID        string `json:"id"`
	Quantity  *int   `json:"quantity"`
	IsSoldOut *bool  `json:"isSoldOut"`
	Unlimited bool   `json:"unlimited"`
}

func (p stockPatch) validate() error {
	if p.ID == "" {
		return invalid("id required")
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return invalid("quantity must not be negative")
	}
	if p.Quantity != nil && p.Unlimited {
		return invalid("quantity and unlimited are exclusive")
	}
	return nil
}

type orderPayload struct {
	EmployeeName string             `json:"employeeName"`
	Matricola    string             `json:"matricola"`
	Table        string             `json:"table"`
	Items        []domain.OrderItem `json:"items"`
}

func isName(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalize trims the free-text fields and sets every item quantity to one.
func (p *orderPayload) normalize() error {
	p.EmployeeName = strings.TrimSpace(p.EmployeeName)
	p.Matricola = strings.TrimSpace(p.Matricola)
	p.Table = strings.TrimSpace(p.Table)

	if p.EmployeeName == "" || !isName(p.EmployeeName) {
		return invalid("employeeName must contain only letters and spaces")
	}
	if p.Matricola == "" || !isDigits(p.Matricola) {
		return invalid("matricola must be numeric")
	}
	if len(p.Items) == 0 {
		return invalid("at least one item is required")
	}
	seen := make(map[string]bool, len(p.Items))
	for i, it := range p.Items {
		if it.ID == "" {
			return invalid("item without id")
		}
		if seen[it.ID] {
			return invalid("dish %s selected twice", it.ID)
		}
		seen[it.ID] = true
		switch it.Quantity {
		case 0, 1:
			p.Items[i].Quantity = 1
		default:
			return invalid("quantity for %s must be 1", it.ID)
		}
	}
	return nil
}

type cancelPayload struct {
	OrderID   string `json:"orderId"`
	Matricola string `json:"matricola"`
}

type idsPayload struct {
	IDs []string `json:"ids"`
}

type feedbackPayload struct {
	Text string `json:"text"`
}

type configPayload struct {
	Key string `json:"key"`
}

type tablePayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity *int   `json:"capacity"`
}

func (p tablePayload) validate() error {
	if p.Capacity != nil && *p.Capacity < 0 {
		return invalid("capacity must not be negative")
	}
	return nil
}
