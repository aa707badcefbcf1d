package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"lunch-system/internal/cart"
	"lunch-system/internal/cutoff"
	"lunch-system/internal/domain"
	"lunch-system/internal/gateway/middleware"
	"lunch-system/internal/ledger"
	"lunch-system/internal/services/lunch"
	"lunch-system/internal/stock"
	"lunch-system/internal/store"
)

const requestTimeout = 10 * time.Second

// LunchService is the part of lunch.Service the HTTP layer needs.
type LunchService interface {
	Dispatch(ctx context.Context, req ledger.Request, role domain.Role) (lunch.Result, error)
	Document(ctx context.Context) (domain.Document, error)
	OrderingOpen(ctx context.Context) (bool, domain.Document, error)
	Gate() *cutoff.Gate
	StorageMode() string
}

type LunchHTTPHandler struct {
	svc LunchService
}

func NewLunchHTTPHandler(svc LunchService) *LunchHTTPHandler {
	return &LunchHTTPHandler{svc: svc}
}

// documentView is the document as the polling clients read it.
type documentView struct {
	domain.Document
	StorageMode  string `json:"_storageMode"`
	OrderingOpen bool   `json:"orderingOpen"`
}

type dispatchResponse struct {
	documentView
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order,omitempty"`
	Error   string        `json:"error,omitempty"`
	Code    string        `json:"code,omitempty"`
	DishID  string        `json:"dishId,omitempty"`
}

type actionRequest struct {
	Action  ledger.Action   `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type toggleRequest struct {
	Selected []string `json:"selected"`
	DishID   string   `json:"dishId" binding:"required"`
}

func (h *LunchHTTPHandler) view(doc domain.Document) documentView {
	return documentView{
		Document:     doc,
		StorageMode:  h.svc.StorageMode(),
		OrderingOpen: h.svc.Gate().Open(doc.Config.DisableCutoff),
	}
}

func errorBody(msg, code string) gin.H {
	return gin.H{"success": false, "error": msg, "code": code}
}

// GetData serves the whole document.
func (h *LunchHTTPHandler) GetData(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.svc.Document(ctx)
	if err != nil {
		status, code := classify(err)
		c.JSON(status, errorBody(err.Error(), code))
		return
	}
	c.JSON(http.StatusOK, h.view(doc))
}

// PostData dispatches one {action, payload} request.
func (h *LunchHTTPHandler) PostData(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid request format", "INVALID_PAYLOAD"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	role := middleware.RoleFrom(c)
	res, err := h.svc.Dispatch(ctx, ledger.Request{Action: req.Action, Payload: req.Payload}, role)
	if err != nil {
		status, code := classify(err)
		body := dispatchResponse{Success: false, Error: err.Error(), Code: code}

		doc := res.Document
		if doc.ActiveMenu == nil && status != http.StatusServiceUnavailable {
			if current, derr := h.svc.Document(ctx); derr == nil {
				doc = current
			}
		}
		if doc.ActiveMenu == nil {
			c.JSON(status, errorBody(err.Error(), code))
			return
		}
		body.documentView = h.view(doc)

		var se *stock.Error
		if errors.As(err, &se) {
			body.DishID = se.DishID
		}
		c.JSON(status, body)
		return
	}

	status := http.StatusOK
	if req.Action == ledger.ActionPlaceOrder {
		status = http.StatusCreated
	}
	c.JSON(status, dispatchResponse{
		documentView: h.view(res.Document),
		Success:      true,
		Order:        res.Placed,
	})
}

func (h *LunchHTTPHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	open, doc, err := h.svc.OrderingOpen(ctx)
	if err != nil {
		status, code := classify(err)
		c.JSON(status, errorBody(err.Error(), code))
		return
	}
	gate := h.svc.Gate()
	now := gate.Now()
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"orderingOpen":  open,
		"cutoff":        gate.Cutoff(now),
		"disableCutoff": doc.Config.DisableCutoff,
		"now":           now,
	})
}

// OrderByBadge returns the outstanding order for a badge number.
func (h *LunchHTTPHandler) OrderByBadge(c *gin.Context) {
	matricola := strings.TrimSpace(c.Param("matricola"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.svc.Document(ctx)
	if err != nil {
		status, code := classify(err)
		c.JSON(status, errorBody(err.Error(), code))
		return
	}
	order, ok := doc.OrderByBadge(matricola)
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("no order for badge "+matricola, "REFERENCE_NOT_FOUND"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// ToggleCart evaluates one cart toggle against the current active menu.
// The selection round-trips through the client and is re-checked on every
// call; ids that no longer fit are reported in dropped. Nothing is stored.
func (h *LunchHTTPHandler) ToggleCart(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("Invalid request format", "INVALID_PAYLOAD"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.svc.Document(ctx)
	if err != nil {
		status, code := classify(err)
		c.JSON(status, errorBody(err.Error(), code))
		return
	}
	i, ok := doc.FindMenuEntry(req.DishID)
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("dish "+req.DishID+" is not on today's menu", "REFERENCE_NOT_FOUND"))
		return
	}

	selection, dropped := cart.Restore(doc.ActiveMenu, req.Selected)
	if dropped == nil {
		dropped = []string{}
	}
	out, err := selection.Toggle(doc.ActiveMenu[i])
	if err != nil {
		code := "DISH_UNAVAILABLE"
		switch {
		case errors.Is(err, cart.ErrBudgetExceeded):
			code = "BUDGET_EXCEEDED"
		case errors.Is(err, cart.ErrSideBlockedByExpensiveMain):
			code = "SIDE_BLOCKED_BY_EXPENSIVE_MAIN"
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success":  false,
			"error":    err.Error(),
			"code":     code,
			"selected": selection.IDs(),
			"dropped":  dropped,
			"total":    domain.NewMoney(selection.Total()),
		})
		return
	}

	evicted := make([]string, 0, len(out.Evicted))
	for _, d := range out.Evicted {
		evicted = append(evicted, d.ID)
	}
	notices := out.Notices
	if notices == nil {
		notices = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"selected": selection.IDs(),
		"dropped":  dropped,
		"total":    domain.NewMoney(selection.Total()),
		"added":    out.Added,
		"removed":  out.Removed,
		"evicted":  evicted,
		"notices":  notices,
	})
}

// Summary is the kitchen view: units per dish, revenue, table occupancy.
func (h *LunchHTTPHandler) Summary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	doc, err := h.svc.Document(ctx)
	if err != nil {
		status, code := classify(err)
		c.JSON(status, errorBody(err.Error(), code))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "summary": ledger.Summarize(doc)})
}

// classify maps service errors onto HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownAction):
		return http.StatusBadRequest, "UNKNOWN_ACTION"
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, "INVALID_PAYLOAD"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrOrderingClosed):
		return http.StatusForbidden, "ORDERING_CLOSED"
	case errors.Is(err, domain.ErrReferenceNotFound):
		return http.StatusNotFound, "REFERENCE_NOT_FOUND"
	case errors.Is(err, stock.ErrSoldOut):
		return http.StatusConflict, "SOLD_OUT"
	case errors.Is(err, stock.ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrDuplicateOrder):
		return http.StatusConflict, "DUPLICATE_ORDER"
	case errors.Is(err, domain.ErrTableFull):
		return http.StatusConflict, "TABLE_FULL"
	case errors.Is(err, store.ErrRevisionConflict):
		return http.StatusConflict, "REVISION_CONFLICT"
	case errors.Is(err, lunch.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, lunch.ErrBusy), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "BUSY"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
