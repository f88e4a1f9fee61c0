package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tablemenu/api/internal/cart"
	"github.com/tablemenu/api/internal/customization"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/money"
	"github.com/tablemenu/api/internal/session"
)

// CartStore is satisfied by *cart.RedisStore.
type CartStore interface {
	Load(ctx context.Context, sess *session.Session) (*cart.Cart, error)
	Update(ctx context.Context, sess *session.Session, fn func(*cart.Cart) error) (*cart.Cart, error)
}

// DishLookup is satisfied by *database.Queries.
type DishLookup interface {
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
}

// CartHandler serves the diner's cart. All routes expect a table session
// in the request context.
type CartHandler struct {
	carts    CartStore
	dishes   DishLookup
	groups   GroupResolver
	currency money.Currency
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(carts CartStore, dishes DishLookup, groups GroupResolver, currency money.Currency) *CartHandler {
	return &CartHandler{carts: carts, dishes: dishes, groups: groups, currency: currency}
}

// RegisterRoutes registers cart endpoints. Expected to be mounted at /cart.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/lines", h.AddLine)
	r.Patch("/lines/{index}", h.UpdateLine)
	r.Delete("/lines/{index}", h.RemoveLine)
}

// --- Request / Response types ---

type choiceRequest struct {
	GroupID  int64  `json:"groupId"`
	OptionID int64  `json:"optionId"`
	Note     string `json:"note"`
}

type addLineRequest struct {
	DishID     string          `json:"dishId"`
	Selections []choiceRequest `json:"selections"`
	Comment    string          `json:"comment"`
}

type updateLineRequest struct {
	Quantity *int    `json:"quantity"`
	Comment  *string `json:"comment"`
}

type selectionResponse struct {
	GroupID    int64       `json:"groupId"`
	GroupName  string      `json:"groupName"`
	OptionID   int64       `json:"optionId"`
	OptionName string      `json:"optionName"`
	ExtraPrice json.Number `json:"extraPrice"`
	Note       string      `json:"note,omitempty"`
}

type cartLineResponse struct {
	Index      int                 `json:"index"`
	DishID     uuid.UUID           `json:"dishId"`
	DishName   string              `json:"dishName"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  json.Number         `json:"unitPrice"`
	Subtotal   json.Number         `json:"subtotal"`
	Selections []selectionResponse `json:"selections"`
	Comment    string              `json:"comment,omitempty"`
}

type cartResponse struct {
	Lines     []cartLineResponse `json:"lines"`
	Total     json.Number        `json:"total"`
	Currency  string             `json:"currency"`
	LineIndex *int               `json:"lineIndex,omitempty"`
}

func (h *CartHandler) toCartResponse(c *cart.Cart) cartResponse {
	resp := cartResponse{
		Lines:    make([]cartLineResponse, len(c.Lines)),
		Total:    h.currency.Number(c.Total()),
		Currency: h.currency.Code,
	}
	for i, l := range c.Lines {
		line := cartLineResponse{
			Index:      i,
			DishID:     l.DishID,
			DishName:   l.DishName,
			Quantity:   l.Quantity,
			UnitPrice:  h.currency.Number(l.UnitPrice),
			Subtotal:   h.currency.Number(l.Subtotal()),
			Selections: make([]selectionResponse, len(l.Selections)),
			Comment:    l.Comment,
		}
		for j, s := range l.Selections {
			line.Selections[j] = toSelectionResponse(h.currency, s)
		}
		resp.Lines[i] = line
	}
	return resp
}

func toSelectionResponse(c money.Currency, s customization.Selection) selectionResponse {
	return selectionResponse{
		GroupID:    s.GroupID,
		GroupName:  s.GroupName,
		OptionID:   s.OptionID,
		OptionName: s.OptionName,
		ExtraPrice: c.Number(s.ExtraPrice),
		Note:       s.Note,
	}
}

// --- Handlers ---

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	c, err := h.carts.Load(r.Context(), sess)
	if err != nil {
		writeInternalError(w, "load cart", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toCartResponse(c))
}

// AddLine customizes a dish and adds it to the cart. A dish without option
// groups is added with no selections.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	if strings.TrimSpace(req.DishID) == "" {
		writeError(w, http.StatusBadRequest, "dishId is required", "MISSING_DISH_ID")
		return
	}
	dishID, err := uuid.Parse(req.DishID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish ID", "INVALID_DISH_ID")
		return
	}

	dish, err := h.dishes.GetDish(r.Context(), dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "dish not found", "DISH_NOT_FOUND")
			return
		}
		writeInternalError(w, "get dish", err)
		return
	}
	if !dish.IsAvailable {
		writeError(w, http.StatusBadRequest, dish.Name+" is not available", "DISH_UNAVAILABLE")
		return
	}

	groups, err := h.groups.Resolve(r.Context(), dishID)
	if err != nil {
		writeInternalError(w, "resolve customizations", err)
		return
	}

	choices := make([]customization.Choice, len(req.Selections))
	for i, s := range req.Selections {
		choices[i] = customization.Choice{GroupID: s.GroupID, OptionID: s.OptionID, Note: strings.TrimSpace(s.Note)}
	}
	selections, err := customization.Apply(groups, choices)
	if err != nil {
		writeSelectionError(w, err)
		return
	}

	item := cart.Item{DishID: dish.ID, DishName: dish.Name, BasePrice: money.Amount(dish.BasePrice)}
	comment := strings.TrimSpace(req.Comment)

	var index int
	c, err := h.carts.Update(r.Context(), sess, func(c *cart.Cart) error {
		index = c.Add(item, selections, comment)
		return nil
	})
	if err != nil {
		writeCartError(w, "add cart line", err)
		return
	}

	resp := h.toCartResponse(c)
	resp.LineIndex = &index
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateLine sets a line's quantity (0 removes it) and optionally its comment.
func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	index, ok := parseLineIndex(w, r)
	if !ok {
		return
	}

	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 || *req.Quantity > cart.MaxQuantity {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("quantity must be an integer between 0 and %d", cart.MaxQuantity), "INVALID_QUANTITY")
		return
	}
	if req.Comment != nil {
		trimmed := strings.TrimSpace(*req.Comment)
		req.Comment = &trimmed
	}

	c, err := h.carts.Update(r.Context(), sess, func(c *cart.Cart) error {
		return c.UpdateLine(index, *req.Quantity, req.Comment)
	})
	if err != nil {
		writeCartError(w, "update cart line", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toCartResponse(c))
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	index, ok := parseLineIndex(w, r)
	if !ok {
		return
	}

	c, err := h.carts.Update(r.Context(), sess, func(c *cart.Cart) error {
		return c.RemoveLine(index)
	})
	if err != nil {
		writeCartError(w, "remove cart line", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toCartResponse(c))
}

// --- Helpers ---

func requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "table session required", "SESSION_EXPIRED")
	}
	return sess, ok
}

func parseLineIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, http.StatusBadRequest, "line index must be a non-negative integer", "INVALID_INDEX")
		return 0, false
	}
	return index, true
}

func writeSelectionError(w http.ResponseWriter, err error) {
	var missing *customization.MissingRequiredSelectionError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, missingSelectionResponse{
			Error:     err.Error(),
			Code:      "MISSING_REQUIRED_SELECTION",
			GroupID:   missing.GroupID,
			GroupName: missing.GroupName,
		})
	case errors.Is(err, customization.ErrUnknownGroup):
		writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_OPTION_GROUP")
	case errors.Is(err, customization.ErrUnknownOption):
		writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_OPTION")
	case errors.Is(err, customization.ErrNoteNotAllowed):
		writeError(w, http.StatusBadRequest, err.Error(), "NOTE_NOT_ALLOWED")
	default:
		writeInternalError(w, "apply selections", err)
	}
}

type missingSelectionResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	GroupID   int64  `json:"groupId"`
	GroupName string `json:"groupName"`
}

func writeCartError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "cart line not found", "LINE_NOT_FOUND")
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_QUANTITY")
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "table session expired", "SESSION_EXPIRED")
	case errors.Is(err, cart.ErrConflict):
		writeError(w, http.StatusConflict, "cart was modified concurrently, retry", "CART_CONFLICT")
	default:
		writeInternalError(w, op, err)
	}
}
