package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/money"
)

// DishOptionStore defines the database methods needed by dish option handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type DishOptionStore interface {
	ListDishOptions(ctx context.Context, arg database.ListDishOptionsParams) ([]database.DishOption, error)
	GetDishOption(ctx context.Context, id int64) (database.DishOption, error)
	CreateDishOption(ctx context.Context, arg database.CreateDishOptionParams) (database.DishOption, error)
	UpdateDishOption(ctx context.Context, arg database.UpdateDishOptionParams) (database.DishOption, error)
	DeleteDishOption(ctx context.Context, id int64) (int64, error)
}

// DishOptionHandler handles dish option CRUD endpoints.
type DishOptionHandler struct {
	store    DishOptionStore
	currency money.Currency
}

// NewDishOptionHandler creates a new DishOptionHandler.
func NewDishOptionHandler(store DishOptionStore, currency money.Currency) *DishOptionHandler {
	return &DishOptionHandler{store: store, currency: currency}
}

// RegisterRoutes registers dish option endpoints on the given Chi router.
// Expected to be mounted at /dish-options; writes are wrapped in guard.
func (h *DishOptionHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(guard).Post("/", h.Create)
	r.With(guard).Put("/{id}", h.Update)
	r.With(guard).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

// Fields are kept raw so each one can be rejected with its own code.
type dishOptionRequest struct {
	OptionGroupID json.RawMessage `json:"optionGroupId"`
	Name          json.RawMessage `json:"name"`
	ExtraPrice    json.RawMessage `json:"extraPrice"`
	IsAvailable   json.RawMessage `json:"isAvailable"`
	DisplayOrder  json.RawMessage `json:"displayOrder"`
}

type dishOptionResponse struct {
	ID            int64       `json:"id"`
	OptionGroupID int64       `json:"optionGroupId"`
	Name          string      `json:"name"`
	ExtraPrice    json.Number `json:"extraPrice"`
	IsAvailable   bool        `json:"isAvailable"`
	DisplayOrder  int32       `json:"displayOrder"`
	CreatedAt     time.Time   `json:"createdAt"`
}

func (h *DishOptionHandler) toDishOptionResponse(o database.DishOption) dishOptionResponse {
	return dishOptionResponse{
		ID:            o.ID,
		OptionGroupID: o.OptionGroupID,
		Name:          o.Name,
		ExtraPrice:    h.currency.Number(money.Amount(o.ExtraPrice)),
		IsAvailable:   o.IsAvailable,
		DisplayOrder:  o.DisplayOrder,
		CreatedAt:     o.CreatedAt,
	}
}

// --- Handlers ---

// List returns options, optionally filtered by ?optionGroupId=.
func (h *DishOptionHandler) List(w http.ResponseWriter, r *http.Request) {
	var groupID pgtype.Int8
	if v := r.URL.Query().Get("optionGroupId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "optionGroupId must be a valid integer", "INVALID_OPTION_GROUP_ID")
			return
		}
		groupID = pgtype.Int8{Int64: id, Valid: true}
	}
	limit, offset := pagination(r)

	options, err := h.store.ListDishOptions(r.Context(), database.ListDishOptionsParams{
		OptionGroupID: groupID,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		writeInternalError(w, "list dish options", err)
		return
	}

	resp := make([]dishOptionResponse, len(options))
	for i, o := range options {
		resp[i] = h.toDishOptionResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DishOptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	option, err := h.store.GetDishOption(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Dish option not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "get dish option", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toDishOptionResponse(option))
}

// Create adds an option. extraPrice defaults to 0, isAvailable to true.
func (h *DishOptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dishOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	if !present(req.OptionGroupID) {
		writeError(w, http.StatusBadRequest, "optionGroupId is required", "MISSING_REQUIRED_FIELDS")
		return
	}
	name, ok := parseName(req.Name)
	if !ok {
		writeError(w, http.StatusBadRequest, "name is required and must be a non-empty string", "MISSING_REQUIRED_FIELDS")
		return
	}

	arg := database.CreateDishOptionParams{Name: name, IsAvailable: true}
	var err error
	if arg.OptionGroupID, err = parseRefID(req.OptionGroupID); err != nil {
		writeError(w, http.StatusBadRequest, "optionGroupId must be a valid integer", "INVALID_OPTION_GROUP_ID")
		return
	}
	if present(req.ExtraPrice) {
		price, err := parseAmount(h.currency, req.ExtraPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "extraPrice must be a valid non-negative number", "INVALID_EXTRA_PRICE")
			return
		}
		arg.ExtraPrice = int64(price)
	}
	if present(req.IsAvailable) {
		if arg.IsAvailable, err = parseBool(req.IsAvailable); err != nil {
			writeError(w, http.StatusBadRequest, "isAvailable must be a boolean", "INVALID_IS_AVAILABLE")
			return
		}
	}
	if present(req.DisplayOrder) {
		if arg.DisplayOrder, err = parseInt32(req.DisplayOrder); err != nil {
			writeError(w, http.StatusBadRequest, "displayOrder must be a valid integer", "INVALID_DISPLAY_ORDER")
			return
		}
	}

	option, err := h.store.CreateDishOption(r.Context(), arg)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "option group does not exist", "INVALID_OPTION_GROUP_ID")
			return
		}
		writeInternalError(w, "create dish option", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toDishOptionResponse(option))
}

// Update applies a partial update; omitted fields keep their values.
func (h *DishOptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req dishOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	arg := database.UpdateDishOptionParams{ID: id}
	if present(req.OptionGroupID) {
		gid, err := parseInt64(req.OptionGroupID)
		if err != nil || gid <= 0 {
			writeError(w, http.StatusBadRequest, "Valid option group ID is required", "INVALID_OPTION_GROUP_ID")
			return
		}
		arg.OptionGroupID = pgtype.Int8{Int64: gid, Valid: true}
	}
	if present(req.Name) {
		name, ok := parseName(req.Name)
		if !ok {
			writeError(w, http.StatusBadRequest, "name must be a non-empty string", "INVALID_NAME")
			return
		}
		arg.Name = pgtype.Text{String: name, Valid: true}
	}
	if present(req.ExtraPrice) {
		price, err := parseAmount(h.currency, req.ExtraPrice)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Valid extra price is required", "INVALID_EXTRA_PRICE")
			return
		}
		arg.ExtraPrice = pgtype.Int8{Int64: int64(price), Valid: true}
	}
	if present(req.IsAvailable) {
		v, err := parseBool(req.IsAvailable)
		if err != nil {
			writeError(w, http.StatusBadRequest, "isAvailable must be a boolean", "INVALID_IS_AVAILABLE")
			return
		}
		arg.IsAvailable = pgtype.Bool{Bool: v, Valid: true}
	}
	if present(req.DisplayOrder) {
		v, err := parseInt32(req.DisplayOrder)
		if err != nil {
			writeError(w, http.StatusBadRequest, "displayOrder must be a valid integer", "INVALID_DISPLAY_ORDER")
			return
		}
		arg.DisplayOrder = pgtype.Int4{Int32: v, Valid: true}
	}

	option, err := h.store.UpdateDishOption(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Dish option not found", "NOT_FOUND")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "option group does not exist", "INVALID_OPTION_GROUP_ID")
			return
		}
		writeInternalError(w, "update dish option", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toDishOptionResponse(option))
}

func (h *DishOptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if _, err := h.store.DeleteDishOption(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Dish option not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "delete dish option", err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse{Message: "Dish option deleted successfully", ID: id})
}

// --- Helpers ---

func parseName(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// parseRefID accepts an integer ID sent either as a number or a numeric string.
func parseRefID(raw json.RawMessage) (int64, error) {
	id, err := parseInt64(raw)
	if err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, err
		}
		if id, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
			return 0, err
		}
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
