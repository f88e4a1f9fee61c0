package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablemenu/api/internal/customization"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/money"
)

// DishStore defines the database methods needed by dish handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type DishStore interface {
	ListDishes(ctx context.Context, categoryID pgtype.UUID) ([]database.Dish, error)
	GetDish(ctx context.Context, id uuid.UUID) (database.Dish, error)
	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.Dish, error)
	UpdateDish(ctx context.Context, arg database.UpdateDishParams) (database.Dish, error)
	DeleteDish(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	FindCategoryByLabel(ctx context.Context, label string) (database.Category, error)
}

// GroupResolver resolves the customization groups of a dish.
// Satisfied by *customization.Resolver.
type GroupResolver interface {
	Resolve(ctx context.Context, dishID uuid.UUID) ([]customization.Group, error)
}

// DishHandler handles dish CRUD and the per-dish options aggregate.
type DishHandler struct {
	store    DishStore
	groups   GroupResolver
	currency money.Currency
}

// NewDishHandler creates a new DishHandler.
func NewDishHandler(store DishStore, groups GroupResolver, currency money.Currency) *DishHandler {
	return &DishHandler{store: store, groups: groups, currency: currency}
}

// RegisterRoutes registers dish endpoints on the given Chi router.
// Expected to be mounted at /dishes; writes are wrapped in guard.
func (h *DishHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/options", h.Options)
	r.With(guard).Post("/", h.Create)
	r.With(guard).Put("/{id}", h.Update)
	r.With(guard).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

// dishRequest accepts either categoryId or the legacy free-text category
// label, which is resolved against category name and emoji.
type dishRequest struct {
	CategoryID  string          `json:"categoryId"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	BasePrice   json.RawMessage `json:"basePrice"`
	ImageURL    string          `json:"imageUrl"`
	IsAvailable *bool           `json:"isAvailable"`
}

type dishResponse struct {
	ID          uuid.UUID   `json:"id"`
	CategoryID  *uuid.UUID  `json:"categoryId"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	BasePrice   json.Number `json:"basePrice"`
	ImageURL    *string     `json:"imageUrl"`
	IsAvailable bool        `json:"isAvailable"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (h *DishHandler) toDishResponse(d database.Dish) dishResponse {
	resp := dishResponse{
		ID:          d.ID,
		Name:        d.Name,
		BasePrice:   h.currency.Number(money.Amount(d.BasePrice)),
		IsAvailable: d.IsAvailable,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.CategoryID.Valid {
		id := uuid.UUID(d.CategoryID.Bytes)
		resp.CategoryID = &id
	}
	if d.Description.Valid {
		resp.Description = &d.Description.String
	}
	if d.ImageUrl.Valid {
		resp.ImageURL = &d.ImageUrl.String
	}
	return resp
}

type optionResponse struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	ExtraPrice   json.Number `json:"extraPrice"`
	IsAvailable  bool        `json:"isAvailable"`
	DisplayOrder int32       `json:"displayOrder"`
}

type optionGroupTreeResponse struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	SelectionType string           `json:"selectionType"`
	IsRequired    bool             `json:"isRequired"`
	DisplayOrder  int32            `json:"displayOrder"`
	AllowNote     bool             `json:"allowNote"`
	Options       []optionResponse `json:"options"`
}

type dishOptionsResponse struct {
	OptionGroups []optionGroupTreeResponse `json:"optionGroups"`
}

// --- Handlers ---

// List returns dishes, optionally filtered by ?categoryId=.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	var categoryID pgtype.UUID
	if v := r.URL.Query().Get("categoryId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category ID", "INVALID_CATEGORY_ID")
			return
		}
		categoryID = pgtype.UUID{Bytes: id, Valid: true}
	}

	dishes, err := h.store.ListDishes(r.Context(), categoryID)
	if err != nil {
		writeInternalError(w, "list dishes", err)
		return
	}

	resp := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		resp[i] = h.toDishResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *DishHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish ID", "INVALID_ID")
		return
	}

	dish, err := h.store.GetDish(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "dish not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "get dish", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toDishResponse(dish))
}

// Options returns the dish's option groups with their available options.
func (h *DishHandler) Options(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Dish ID is required", "MISSING_DISH_ID")
		return
	}
	dishID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish ID", "INVALID_DISH_ID")
		return
	}

	groups, err := h.groups.Resolve(r.Context(), dishID)
	if err != nil {
		if errors.Is(err, customization.ErrMissingDishKey) {
			writeError(w, http.StatusBadRequest, "Dish ID is required", "MISSING_DISH_ID")
			return
		}
		writeInternalError(w, "resolve dish options", err)
		return
	}
	if len(groups) == 0 {
		writeError(w, http.StatusNotFound, "No option groups found for this dish", "NO_OPTION_GROUPS")
		return
	}

	resp := dishOptionsResponse{OptionGroups: make([]optionGroupTreeResponse, len(groups))}
	for i, g := range groups {
		tree := optionGroupTreeResponse{
			ID:            g.ID,
			Name:          g.Name,
			SelectionType: g.SelectionType,
			IsRequired:    g.IsRequired,
			DisplayOrder:  g.DisplayOrder,
			AllowNote:     g.AllowNote,
			Options:       make([]optionResponse, len(g.Options)),
		}
		for j, o := range g.Options {
			tree.Options[j] = optionResponse{
				ID:           o.ID,
				Name:         o.Name,
				ExtraPrice:   h.currency.Number(o.ExtraPrice),
				IsAvailable:  true,
				DisplayOrder: o.DisplayOrder,
			}
		}
		resp.OptionGroups[i] = tree
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	params, ok := h.dishParams(w, r, req)
	if !ok {
		return
	}

	dish, err := h.store.CreateDish(r.Context(), database.CreateDishParams{
		CategoryID:  params.CategoryID,
		Name:        params.Name,
		Description: params.Description,
		BasePrice:   params.BasePrice,
		ImageUrl:    params.ImageUrl,
		IsAvailable: params.IsAvailable,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "category does not exist", "INVALID_CATEGORY_ID")
			return
		}
		writeInternalError(w, "create dish", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toDishResponse(dish))
}

func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish ID", "INVALID_ID")
		return
	}

	var req dishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	params, ok := h.dishParams(w, r, req)
	if !ok {
		return
	}
	params.ID = id

	dish, err := h.store.UpdateDish(r.Context(), params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "dish not found", "NOT_FOUND")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "category does not exist", "INVALID_CATEGORY_ID")
			return
		}
		writeInternalError(w, "update dish", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toDishResponse(dish))
}

// Delete removes a dish and its option groups. Submitted order lines keep
// their snapshot.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish ID", "INVALID_ID")
		return
	}

	if _, err := h.store.DeleteDish(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "dish not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "delete dish", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// dishParams validates req and writes a 4xx/5xx response on failure.
func (h *DishHandler) dishParams(w http.ResponseWriter, r *http.Request, req dishRequest) (database.UpdateDishParams, bool) {
	var p database.UpdateDishParams

	p.Name = strings.TrimSpace(req.Name)
	if p.Name == "" || !present(req.BasePrice) {
		writeError(w, http.StatusBadRequest, "name and basePrice are required", "MISSING_REQUIRED_FIELDS")
		return p, false
	}

	price, err := parseAmount(h.currency, req.BasePrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "basePrice must be a non-negative amount in "+h.currency.Code, "INVALID_BASE_PRICE")
		return p, false
	}
	p.BasePrice = int64(price)

	switch {
	case req.CategoryID != "":
		id, err := uuid.Parse(req.CategoryID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid category ID", "INVALID_CATEGORY_ID")
			return p, false
		}
		p.CategoryID = pgtype.UUID{Bytes: id, Valid: true}
	case strings.TrimSpace(req.Category) != "":
		c, err := h.store.FindCategoryByLabel(r.Context(), req.Category)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusBadRequest, "unknown category "+req.Category, "UNKNOWN_CATEGORY")
				return p, false
			}
			writeInternalError(w, "find category by label", err)
			return p, false
		}
		p.CategoryID = pgtype.UUID{Bytes: c.ID, Valid: true}
	}

	if d := strings.TrimSpace(req.Description); d != "" {
		p.Description = pgtype.Text{String: d, Valid: true}
	}
	if u := strings.TrimSpace(req.ImageURL); u != "" {
		p.ImageUrl = pgtype.Text{String: u, Valid: true}
	}
	p.IsAvailable = true
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	return p, true
}
