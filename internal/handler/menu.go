package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/money"
)

// MenuStore defines the database methods needed to build the diner menu.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListCategories(ctx context.Context) ([]database.Category, error)
	ListAvailableDishes(ctx context.Context) ([]database.Dish, error)
	ListDishIDsWithOptionGroups(ctx context.Context) ([]uuid.UUID, error)
}

// MenuHandler serves the diner-facing menu.
type MenuHandler struct {
	store    MenuStore
	currency money.Currency
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, currency money.Currency) *MenuHandler {
	return &MenuHandler{store: store, currency: currency}
}

// --- Response types ---

type menuDish struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description *string     `json:"description"`
	BasePrice   json.Number `json:"basePrice"`
	ImageURL    *string     `json:"imageUrl"`
	HasOptions  bool        `json:"hasOptions"`
}

type menuCategory struct {
	ID           *uuid.UUID `json:"id"`
	Name         string     `json:"name"`
	Emoji        string     `json:"emoji"`
	DisplayOrder int32      `json:"displayOrder"`
	Dishes       []menuDish `json:"dishes"`
}

type menuResponse struct {
	Currency   string         `json:"currency"`
	Categories []menuCategory `json:"categories"`
}

// --- Handlers ---

// Get returns categories in display order, each with its available dishes.
// Categories without available dishes are left out; dishes without a
// category are grouped last under "Other".
func (h *MenuHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.store.ListCategories(ctx)
	if err != nil {
		writeInternalError(w, "list categories", err)
		return
	}
	dishes, err := h.store.ListAvailableDishes(ctx)
	if err != nil {
		writeInternalError(w, "list available dishes", err)
		return
	}
	withOptions, err := h.store.ListDishIDsWithOptionGroups(ctx)
	if err != nil {
		writeInternalError(w, "list dishes with options", err)
		return
	}

	hasOptions := make(map[uuid.UUID]bool, len(withOptions))
	for _, id := range withOptions {
		hasOptions[id] = true
	}

	byCategory := make(map[uuid.UUID][]menuDish)
	var other []menuDish
	for _, d := range dishes {
		md := menuDish{
			ID:         d.ID,
			Name:       d.Name,
			BasePrice:  h.currency.Number(money.Amount(d.BasePrice)),
			HasOptions: hasOptions[d.ID],
		}
		if d.Description.Valid {
			md.Description = &d.Description.String
		}
		if d.ImageUrl.Valid {
			md.ImageURL = &d.ImageUrl.String
		}
		if !d.CategoryID.Valid {
			other = append(other, md)
			continue
		}
		cid := uuid.UUID(d.CategoryID.Bytes)
		byCategory[cid] = append(byCategory[cid], md)
	}

	resp := menuResponse{Currency: h.currency.Code, Categories: []menuCategory{}}
	for _, c := range categories {
		items := byCategory[c.ID]
		if len(items) == 0 {
			continue
		}
		id := c.ID
		resp.Categories = append(resp.Categories, menuCategory{
			ID:           &id,
			Name:         c.Name,
			Emoji:        c.Emoji,
			DisplayOrder: c.DisplayOrder,
			Dishes:       items,
		})
	}
	if len(other) > 0 {
		resp.Categories = append(resp.Categories, menuCategory{Name: "Other", Dishes: other})
	}

	writeJSON(w, http.StatusOK, resp)
}
