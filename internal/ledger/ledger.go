package ledger

import (
	"fmt"
	"strings"

	"lunch-system/internal/domain"
	"lunch-system/internal/stock"
)

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrReferenceNotFound, kind, id)
}

// Apply authorizes and runs one action against a copy of doc. On error the
// returned document is the untouched input, so callers can hand it back to
// the client as-is.
func Apply(doc domain.Document, req Request, env Env) (domain.Document, Effect, error) {
	if err := Authorize(req.Action, env.Role); err != nil {
		return doc, Effect{}, err
	}

	next := doc.Clone()
	next.Normalize()

	var (
		eff Effect
		err error
	)
	switch req.Action {
	case ActionAddDishToArchive:
		err = addDish(&next, req, env)
	case ActionRemoveDishFromArchive:
		err = removeDish(&next, req)
	case ActionSetActiveMenu:
		err = setActiveMenu(&next, req)
	case ActionUpdateDishStock:
		err = updateDishStock(&next, req)
	case ActionPlaceOrder:
		eff, err = placeOrder(&next, req, env)
	case ActionCancelOrder:
		eff, err = cancelOrder(&next, req, env)
	case ActionDeleteOrders:
		eff, err = deleteOrders(&next, req)
	case ActionDeleteAllOrders:
		eff = Effect{Event: EventOrdersDeleted, Gone: next.Orders}
		next.Orders = []domain.Order{}
	case ActionSubmitFeedback:
		err = submitFeedback(&next, req, env)
	case ActionDeleteFeedback:
		err = deleteFeedback(&next, req)
	case ActionToggleConfig:
		err = toggleConfig(&next, req)
	case ActionAddTable:
		err = addTable(&next, req, env)
	case ActionUpdateTable:
		err = updateTable(&next, req)
	case ActionRemoveTable:
		err = removeTable(&next, req)
	case ActionResetDay:
		eff = Effect{Event: EventDayReset, Gone: next.Orders}
		next.ActiveMenu = []domain.ActiveMenuEntry{}
		next.Orders = []domain.Order{}
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnknownAction, req.Action)
	}
	if err != nil {
		return doc, Effect{}, err
	}
	return next, eff, nil
}

func addDish(doc *domain.Document, req Request, env Env) error {
	var p dishPayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = env.NewID()
	} else if _, ok := doc.FindDish(p.ID); ok {
		return invalid("dish %s already exists", p.ID)
	}
	doc.AllDishes = append(doc.AllDishes, domain.Dish{
		ID:       p.ID,
		Name:     strings.TrimSpace(p.Name),
		Category: p.Category,
		Price:    p.Price,
	})
	return nil
}

// removeDish deletes from the archive only; today's menu keeps its copy.
func removeDish(doc *domain.Document, req Request) error {
	var p idPayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	i, ok := doc.FindDish(p.ID)
	if !ok {
		return notFound("dish", p.ID)
	}
	doc.AllDishes = append(doc.AllDishes[:i], doc.AllDishes[i+1:]...)
	return nil
}

func setActiveMenu(doc *domain.Document, req Request) error {
	var menu []domain.ActiveMenuEntry
	if err := decode(req.Payload, &menu); err != nil {
		return err
	}
	if err := validateMenu(menu); err != nil {
		return err
	}
	if menu == nil {
		menu = []domain.ActiveMenuEntry{}
	}
	doc.ActiveMenu = menu
	return nil
}

func updateDishStock(doc *domain.Document, req Request) error {
	var p stockPatch
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	i, ok := doc.FindMenuEntry(p.ID)
	if !ok {
		return notFound("menu entry", p.ID)
	}
	e := &doc.ActiveMenu[i]
	if p.Quantity != nil {
		e.Quantity = domain.IntPtr(*p.Quantity)
	}
	if p.Unlimited {
		e.Quantity = nil
	}
	if p.IsSoldOut != nil {
		e.IsSoldOut = *p.IsSoldOut
	}
	return nil
}

func placeOrder(doc *domain.Document, req Request, env Env) (Effect, error) {
	var p orderPayload
	if err := decode(req.Payload, &p); err != nil {
		return Effect{}, err
	}
	if err := p.normalize(); err != nil {
		return Effect{}, err
	}

	if env.OrderingOpen != nil && !env.OrderingOpen(doc.Config.DisableCutoff) {
		return Effect{}, domain.ErrOrderingClosed
	}

	if existing, ok := doc.OrderByBadge(p.Matricola); ok {
		return Effect{}, fmt.Errorf("%w: order %s", domain.ErrDuplicateOrder, existing.ID)
	}

	if p.Table != "" {
		i, ok := doc.FindTable(p.Table)
		if !ok {
			return Effect{}, notFound("table", p.Table)
		}
		if t := doc.Tables[i]; t.Capacity > 0 && doc.SeatsTaken(t.ID) >= t.Capacity {
			return Effect{}, fmt.Errorf("%w: %s", domain.ErrTableFull, t.Name)
		}
	}

	order := domain.Order{
		ID:           env.NewID(),
		EmployeeName: p.EmployeeName,
		Matricola:    p.Matricola,
		Table:        p.Table,
		Items:        p.Items,
		Timestamp:    env.Now,
	}

	menu, err := stock.Reserve(order, doc.ActiveMenu)
	if err != nil {
		return Effect{}, err
	}
	doc.ActiveMenu = menu
	doc.Orders = append(doc.Orders, order)
	return Effect{Event: EventOrderPlaced, Placed: &order}, nil
}

// cancelOrder gives the stock back before dropping the order. Employees may
// only cancel the order registered under their own badge.
func cancelOrder(doc *domain.Document, req Request, env Env) (Effect, error) {
	var p cancelPayload
	if err := decode(req.Payload, &p); err != nil {
		return Effect{}, err
	}
	if p.OrderID == "" {
		return Effect{}, invalid("orderId required")
	}
	i, ok := doc.FindOrder(p.OrderID)
	if !ok {
		return Effect{}, notFound("order", p.OrderID)
	}
	order := doc.Orders[i]
	if !env.Role.Satisfies(domain.RoleAdmin) && order.Matricola != strings.TrimSpace(p.Matricola) {
		return Effect{}, fmt.Errorf("%w: order belongs to another badge", domain.ErrForbidden)
	}

	doc.ActiveMenu = stock.Release(order, doc.ActiveMenu)
	doc.Orders = append(doc.Orders[:i], doc.Orders[i+1:]...)
	return Effect{Event: EventOrderCancelled, Gone: []domain.Order{order}}, nil
}

// deleteOrders is the admin bulk delete. Like DELETE_ALL_ORDERS it does not
// restore stock.
func deleteOrders(doc *domain.Document, req Request) (Effect, error) {
	var p idsPayload
	if err := decode(req.Payload, &p); err != nil {
		return Effect{}, err
	}
	if len(p.IDs) == 0 {
		return Effect{}, invalid("ids required")
	}
	drop := make(map[string]bool, len(p.IDs))
	for _, id := range p.IDs {
		if _, ok := doc.FindOrder(id); !ok {
			return Effect{}, notFound("order", id)
		}
		drop[id] = true
	}
	kept := make([]domain.Order, 0, len(doc.Orders))
	var gone []domain.Order
	for _, o := range doc.Orders {
		if drop[o.ID] {
			gone = append(gone, o)
			continue
		}
		kept = append(kept, o)
	}
	doc.Orders = kept
	return Effect{Event: EventOrdersDeleted, Gone: gone}, nil
}

func submitFeedback(doc *domain.Document, req Request, env Env) error {
	var p feedbackPayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return invalid("text required")
	}
	doc.Feedbacks = append(doc.Feedbacks, domain.Feedback{ID: env.NewID(), Text: text, Timestamp: env.Now})
	return nil
}

func deleteFeedback(doc *domain.Document, req Request) error {
	var p idPayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	for i, fb := range doc.Feedbacks {
		if fb.ID == p.ID {
			doc.Feedbacks = append(doc.Feedbacks[:i], doc.Feedbacks[i+1:]...)
			return nil
		}
	}
	return notFound("feedback", p.ID)
}

func toggleConfig(doc *domain.Document, req Request) error {
	var p configPayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	switch p.Key {
	case "disableCutoff":
		doc.Config.DisableCutoff = !doc.Config.DisableCutoff
	default:
		return invalid("unknown config key %q", p.Key)
	}
	return nil
}

func addTable(doc *domain.Document, req Request, env Env) error {
	var p tablePayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return invalid("name required")
	}
	if p.ID == "" {
		p.ID = env.NewID()
	} else if _, ok := doc.FindTable(p.ID); ok {
		return invalid("table %s already exists", p.ID)
	}
	t := domain.Table{ID: p.ID, Name: name}
	if p.Capacity != nil {
		t.Capacity = *p.Capacity
	}
	doc.Tables = append(doc.Tables, t)
	return nil
}

func updateTable(doc *domain.Document, req Request) error {
	var p tablePayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return invalid("id required")
	}
	if err := p.validate(); err != nil {
		return err
	}
	i, ok := doc.FindTable(p.ID)
	if !ok {
		return notFound("table", p.ID)
	}
	if name := strings.TrimSpace(p.Name); name != "" {
		doc.Tables[i].Name = name
	}
	if p.Capacity != nil {
		doc.Tables[i].Capacity = *p.Capacity
	}
	return nil
}

func removeTable(doc *domain.Document, req Request) error {
	var p idPayload
	if err := decode(req.Payload, &p); err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	i, ok := doc.FindTable(p.ID)
	if !ok {
		return notFound("table", p.ID)
	}
	doc.Tables = append(doc.Tables[:i], doc.Tables[i+1:]...)
	return nil
}
