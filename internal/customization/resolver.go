// Package customization resolves the option groups that apply to a dish and
// turns diner choices into the selection snapshot stored on a cart line.
package customization

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/money"
)

// Errors returned while resolving or applying customizations.
var (
	ErrMissingDishKey = errors.New("dish id is required")
	ErrUnknownGroup   = errors.New("option group does not belong to dish")
	ErrUnknownOption  = errors.New("option not found or unavailable")
	ErrNoteNotAllowed = errors.New("option group does not accept a note")
)

// MissingRequiredSelectionError names the first required group left without a selection.
type MissingRequiredSelectionError struct {
	GroupID   int64
	GroupName string
}

func (e *MissingRequiredSelectionError) Error() string {
	return fmt.Sprintf("option group %q requires a selection", e.GroupName)
}

// Catalog defines the database methods needed by the resolver.
// Satisfied by *database.Queries.
type Catalog interface {
	ListOptionGroupsByDish(ctx context.Context, dishID uuid.UUID) ([]database.DishOptionGroup, error)
	ListAvailableOptionsByGroups(ctx context.Context, groupIDs []int64) ([]database.DishOption, error)
}

// Option is one available choice inside a Group.
type Option struct {
	ID           int64
	Name         string
	ExtraPrice   money.Amount
	DisplayOrder int32
}

// Group is an option group with its available options, both in display order.
type Group struct {
	ID            int64
	DishID        uuid.UUID
	Name          string
	SelectionType string
	IsRequired    bool
	DisplayOrder  int32
	AllowNote     bool
	Options       []Option
}

func (g Group) option(id int64) (Option, bool) {
	for _, o := range g.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Resolver loads the customization choices for a dish.
type Resolver struct {
	store Catalog
}

// NewResolver creates a new Resolver.
func NewResolver(store Catalog) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the dish's option groups ordered by display order, each
// carrying only its available options. A dish without groups yields an empty
// slice.
func (r *Resolver) Resolve(ctx context.Context, dishID uuid.UUID) ([]Group, error) {
	if dishID == uuid.Nil {
		return nil, ErrMissingDishKey
	}

	rows, err := r.store.ListOptionGroupsByDish(ctx, dishID)
	if err != nil {
		return nil, fmt.Errorf("list option groups: %w", err)
	}
	if len(rows) == 0 {
		return []Group{}, nil
	}

	groups := make([]Group, len(rows))
	ids := make([]int64, len(rows))
	index := make(map[int64]int, len(rows))
	for i, g := range rows {
		groups[i] = Group{
			ID:            g.ID,
			DishID:        g.DishID,
			Name:          g.Name,
			SelectionType: g.SelectionType,
			IsRequired:    g.IsRequired,
			DisplayOrder:  g.DisplayOrder,
			AllowNote:     g.AllowNote,
			Options:       []Option{},
		}
		ids[i] = g.ID
		index[g.ID] = i
	}

	opts, err := r.store.ListAvailableOptionsByGroups(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	for _, o := range opts {
		i, ok := index[o.OptionGroupID]
		if !ok || !o.IsAvailable {
			continue
		}
		groups[i].Options = append(groups[i].Options, Option{
			ID:           o.ID,
			Name:         o.Name,
			ExtraPrice:   money.Amount(o.ExtraPrice),
			DisplayOrder: o.DisplayOrder,
		})
	}

	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].DisplayOrder != groups[b].DisplayOrder {
			return groups[a].DisplayOrder < groups[b].DisplayOrder
		}
		return groups[a].ID < groups[b].ID
	})
	for i := range groups {
		o := groups[i].Options
		sort.SliceStable(o, func(a, b int) bool {
			if o[a].DisplayOrder != o[b].DisplayOrder {
				return o[a].DisplayOrder < o[b].DisplayOrder
			}
			return o[a].ID < o[b].ID
		})
	}

	return groups, nil
}
