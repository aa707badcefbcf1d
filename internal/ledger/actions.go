// Package ledger implements the tagged-action protocol over the shared
// document. Every action is a pure (document, payload) -> document transform.
package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"lunch-system/internal/domain"
)

type Action string

const (
	ActionAddDishToArchive      Action = "ADD_DISH_TO_ARCHIVE"
	ActionRemoveDishFromArchive Action = "REMOVE_DISH_FROM_ARCHIVE"
	ActionSetActiveMenu         Action = "SET_ACTIVE_MENU"
	ActionUpdateDishStock       Action = "UPDATE_DISH_STOCK"
	ActionPlaceOrder            Action = "PLACE_ORDER"
	ActionCancelOrder           Action = "CANCEL_ORDER"
	ActionDeleteOrders          Action = "DELETE_ORDERS"
	ActionDeleteAllOrders       Action = "DELETE_ALL_ORDERS"
	ActionSubmitFeedback        Action = "SUBMIT_FEEDBACK"
	ActionDeleteFeedback        Action = "DELETE_FEEDBACK"
	ActionToggleConfig          Action = "TOGGLE_CONFIG"
	ActionAddTable              Action = "ADD_TABLE"
	ActionUpdateTable           Action = "UPDATE_TABLE"
	ActionRemoveTable           Action = "REMOVE_TABLE"
	ActionResetDay              Action = "RESET_DAY"
)

var requiredRoles = map[Action]domain.Role{
	ActionAddDishToArchive:      domain.RoleAdmin,
	ActionRemoveDishFromArchive: domain.RoleAdmin,
	ActionSetActiveMenu:         domain.RoleAdmin,
	ActionUpdateDishStock:       domain.RoleAdmin,
	ActionPlaceOrder:            domain.RoleEmployee,
	ActionCancelOrder:           domain.RoleEmployee,
	ActionDeleteOrders:          domain.RoleAdmin,
	ActionDeleteAllOrders:       domain.RoleAdmin,
	ActionSubmitFeedback:        domain.RoleEmployee,
	ActionDeleteFeedback:        domain.RoleAdmin,
	ActionToggleConfig:          domain.RoleSuperAdmin,
	ActionAddTable:              domain.RoleAdmin,
	ActionUpdateTable:           domain.RoleAdmin,
	ActionRemoveTable:           domain.RoleAdmin,
	ActionResetDay:              domain.RoleAdmin,
}

// RequiredRole returns the minimum role allowed to dispatch a.
func RequiredRole(a Action) (domain.Role, error) {
	role, ok := requiredRoles[a]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownAction, a)
	}
	return role, nil
}

// Authorize checks the caller's role against the action.
func Authorize(a Action, caller domain.Role) error {
	required, err := RequiredRole(a)
	if err != nil {
		return err
	}
	if caller.Satisfies(required) {
		return nil
	}
	if caller.Satisfies(domain.RoleAdmin) {
		return fmt.Errorf("%w: %s requires %s", domain.ErrForbidden, a, required)
	}
	return fmt.Errorf("%w: %s requires %s", domain.ErrUnauthorized, a, required)
}

// Request is the body of a mutation: {"action": ..., "payload": ...}.
type Request struct {
	Action  Action          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Env carries what a transform needs from outside the document.
type Env struct {
	Now          time.Time
	NewID        func() string
	Role         domain.Role
	OrderingOpen func(disableCutoff bool) bool
}

// Event names published after a successful mutation.
const (
	EventOrderPlaced    = "order.placed"
	EventOrderCancelled = "order.cancelled"
	EventOrdersDeleted  = "orders.deleted"
	EventDayReset       = "day.reset"
)

// Effect describes the side of a mutation other components care about.
type Effect struct {
	Event  string
	Placed *domain.Order
	Gone   []domain.Order
}
