package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablemenu/api/internal/cart"
	"github.com/tablemenu/api/internal/customization"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/enum"
	"github.com/tablemenu/api/internal/middleware"
	"github.com/tablemenu/api/internal/money"
	"github.com/tablemenu/api/internal/service"
	"github.com/tablemenu/api/internal/session"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	Submit(ctx context.Context, sess *session.Session) (*service.SubmitResult, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderLines(ctx context.Context, orderID uuid.UUID) ([]database.OrderLine, error)
}

// OrderHandler handles diner order submission and the staff order views.
type OrderHandler struct {
	svc      OrderServicer
	store    OrderStore
	currency money.Currency
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, currency money.Currency) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, currency: currency}
}

// RegisterDinerRoutes registers the session-scoped endpoints. Submission is
// wrapped in limit. Expected to be mounted at /orders behind RequireTableSession.
func (h *OrderHandler) RegisterDinerRoutes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/", h.Submit)
	r.Get("/{id}", h.GetForTable)
}

// RegisterAdminRoutes registers the staff endpoints.
// Expected to be mounted at /admin/orders behind Authenticate.
func (h *OrderHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type updateStatusRequest struct {
	Status string `json:"status"`
}

type submitResponse struct {
	OrderID  uuid.UUID   `json:"orderId"`
	Total    json.Number `json:"total"`
	Status   string      `json:"status"`
	Currency string      `json:"currency"`
}

type orderLineResponse struct {
	LineNo     int32               `json:"lineNo"`
	DishID     *uuid.UUID          `json:"dishId"`
	DishName   string              `json:"dishName"`
	Quantity   int32               `json:"quantity"`
	UnitPrice  json.Number         `json:"unitPrice"`
	Subtotal   json.Number         `json:"subtotal"`
	Comment    *string             `json:"comment"`
	Selections []selectionResponse `json:"selections"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	TableID         uuid.UUID           `json:"tableId"`
	TableNumber     int32               `json:"tableNumber"`
	Status          string              `json:"status"`
	Total           json.Number         `json:"total"`
	Currency        string              `json:"currency"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	StatusChangedAt time.Time           `json:"statusChangedAt"`
	Lines           []orderLineResponse `json:"lines,omitempty"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int32           `json:"limit"`
	Offset int32           `json:"offset"`
}

func (h *OrderHandler) toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:              o.ID,
		TableID:         o.TableID,
		TableNumber:     o.TableNumber,
		Status:          o.Status,
		Total:           h.currency.Number(money.Amount(o.Total)),
		Currency:        o.Currency,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		StatusChangedAt: o.StatusChangedAt,
	}
}

func (h *OrderHandler) toOrderLineResponse(l database.OrderLine) orderLineResponse {
	resp := orderLineResponse{
		LineNo:     l.LineNo,
		DishName:   l.DishName,
		Quantity:   l.Quantity,
		UnitPrice:  h.currency.Number(money.Amount(l.UnitPrice)),
		Subtotal:   h.currency.Number(money.Amount(l.Subtotal)),
		Selections: []selectionResponse{},
	}
	if l.DishID.Valid {
		id := uuid.UUID(l.DishID.Bytes)
		resp.DishID = &id
	}
	if l.Comment.Valid {
		resp.Comment = &l.Comment.String
	}

	var selections []customization.Selection
	if err := json.Unmarshal(l.Customizations, &selections); err != nil {
		log.Printf("ERROR: decode customizations of order line %s: %v", l.ID, err)
	}
	for _, s := range selections {
		resp.Selections = append(resp.Selections, toSelectionResponse(h.currency, s))
	}
	return resp
}

// --- Diner handlers ---

// Submit turns the session's cart into an order. On failure the cart is left
// as it was.
func (h *OrderHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Submit(r.Context(), sess)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "cart is empty", "EMPTY_CART")
		case errors.Is(err, service.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_QUANTITY")
		case errors.Is(err, money.ErrOverflow):
			writeError(w, http.StatusBadRequest, "order total is too large", "AMOUNT_TOO_LARGE")
		case errors.Is(err, service.ErrDishUnavailable):
			writeError(w, http.StatusBadRequest, err.Error(), "DISH_UNAVAILABLE")
		case errors.Is(err, service.ErrNoSession):
			writeError(w, http.StatusUnauthorized, "table session required", "SESSION_EXPIRED")
		case errors.Is(err, cart.ErrSubmissionInProgress):
			writeError(w, http.StatusConflict, "order submission already in progress", "SUBMISSION_IN_PROGRESS")
		default:
			writeInternalError(w, "submit order", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		OrderID:  result.Order.ID,
		Total:    h.currency.Number(money.Amount(result.Order.Total)),
		Status:   result.Order.Status,
		Currency: result.Order.Currency,
	})
}

// GetForTable returns an order placed from the session's table.
func (h *OrderHandler) GetForTable(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID", "INVALID_ID")
		return
	}

	h.writeOrder(w, r, id, &sess.TableID)
}

// --- Staff handlers ---

// List handles GET /admin/orders?status=&tableId=&updated_since=&limit=&offset=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	params := database.ListOrdersParams{Limit: limit, Offset: offset}

	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		if !enum.IsOrderStatus(s) {
			writeError(w, http.StatusBadRequest, "invalid status "+s, "INVALID_STATUS")
			return
		}
		params.Status = pgtype.Text{String: s, Valid: true}
	}
	if s := q.Get("tableId"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid table ID", "INVALID_TABLE_ID")
			return
		}
		params.TableID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if s := q.Get("updated_since"); s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "updated_since must be an RFC 3339 timestamp", "INVALID_UPDATED_SINCE")
			return
		}
		params.UpdatedSince = pgtype.Timestamptz{Time: t, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		writeInternalError(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = h.toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID", "INVALID_ID")
		return
	}

	h.writeOrder(w, r, id, nil)
}

// UpdateStatus sets any order status; concurrent updates are last-writer-wins.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID", "INVALID_ID")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "status must be one of received, preparing, ready, served, cancelled", "INVALID_STATUS")
		case errors.Is(err, service.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order not found", "NOT_FOUND")
		default:
			writeInternalError(w, "update order status", err)
		}
		return
	}

	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		log.Printf("INFO: order %s set to %s by %s", order.ID, order.Status, claims.Username)
	}

	writeJSON(w, http.StatusOK, h.toOrderResponse(order))
}

// --- Helpers ---

// writeOrder writes the order with its lines. A non-nil tableID hides
// orders from other tables.
func (h *OrderHandler) writeOrder(w http.ResponseWriter, r *http.Request, id uuid.UUID, tableID *uuid.UUID) {
	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "get order", err)
		return
	}
	if tableID != nil && order.TableID != *tableID {
		writeError(w, http.StatusNotFound, "order not found", "NOT_FOUND")
		return
	}

	lines, err := h.store.ListOrderLines(r.Context(), order.ID)
	if err != nil {
		writeInternalError(w, "list order lines", err)
		return
	}

	resp := h.toOrderResponse(order)
	resp.Lines = make([]orderLineResponse, len(lines))
	for i, l := range lines {
		resp.Lines[i] = h.toOrderLineResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}
