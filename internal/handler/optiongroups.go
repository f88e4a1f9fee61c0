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
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/enum"
)

// OptionGroupStore defines the database methods needed by option group handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OptionGroupStore interface {
	ListOptionGroups(ctx context.Context, arg database.ListOptionGroupsParams) ([]database.DishOptionGroup, error)
	GetOptionGroup(ctx context.Context, id int64) (database.DishOptionGroup, error)
	CreateOptionGroup(ctx context.Context, arg database.CreateOptionGroupParams) (database.DishOptionGroup, error)
	UpdateOptionGroup(ctx context.Context, arg database.UpdateOptionGroupParams) (database.DishOptionGroup, error)
	DeleteOptionGroup(ctx context.Context, id int64) (int64, error)
}

// OptionGroupHandler handles option group CRUD endpoints.
type OptionGroupHandler struct {
	store OptionGroupStore
}

// NewOptionGroupHandler creates a new OptionGroupHandler.
func NewOptionGroupHandler(store OptionGroupStore) *OptionGroupHandler {
	return &OptionGroupHandler{store: store}
}

// RegisterRoutes registers option group endpoints on the given Chi router.
// Expected to be mounted at /option-groups; writes are wrapped in guard.
func (h *OptionGroupHandler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.With(guard).Post("/", h.Create)
	r.With(guard).Put("/{id}", h.Update)
	r.With(guard).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOptionGroupRequest struct {
	DishID        string `json:"dishId"`
	Name          string `json:"name"`
	SelectionType string `json:"selectionType"`
	IsRequired    *bool  `json:"isRequired"`
	DisplayOrder  *int32 `json:"displayOrder"`
	AllowNote     *bool  `json:"allowNote"`
}

// Nil fields are left unchanged.
type updateOptionGroupRequest struct {
	DishID        *string `json:"dishId"`
	Name          *string `json:"name"`
	SelectionType *string `json:"selectionType"`
	IsRequired    *bool   `json:"isRequired"`
	DisplayOrder  *int32  `json:"displayOrder"`
	AllowNote     *bool   `json:"allowNote"`
}

type optionGroupResponse struct {
	ID            int64     `json:"id"`
	DishID        uuid.UUID `json:"dishId"`
	Name          string    `json:"name"`
	SelectionType string    `json:"selectionType"`
	IsRequired    bool      `json:"isRequired"`
	DisplayOrder  int32     `json:"displayOrder"`
	AllowNote     bool      `json:"allowNote"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toOptionGroupResponse(g database.DishOptionGroup) optionGroupResponse {
	return optionGroupResponse{
		ID:            g.ID,
		DishID:        g.DishID,
		Name:          g.Name,
		SelectionType: g.SelectionType,
		IsRequired:    g.IsRequired,
		DisplayOrder:  g.DisplayOrder,
		AllowNote:     g.AllowNote,
		CreatedAt:     g.CreatedAt,
	}
}

type deletedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// --- Handlers ---

// List returns option groups, optionally filtered by ?dishId=, paginated
// by ?limit= (default 50, max 100) and ?offset=.
func (h *OptionGroupHandler) List(w http.ResponseWriter, r *http.Request) {
	var dishID pgtype.UUID
	if v := r.URL.Query().Get("dishId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dishId must be a valid dish ID", "INVALID_DISH_ID")
			return
		}
		dishID = pgtype.UUID{Bytes: id, Valid: true}
	}
	limit, offset := pagination(r)

	groups, err := h.store.ListOptionGroups(r.Context(), database.ListOptionGroupsParams{
		DishID: dishID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeInternalError(w, "list option groups", err)
		return
	}

	resp := make([]optionGroupResponse, len(groups))
	for i, g := range groups {
		resp[i] = toOptionGroupResponse(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OptionGroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	group, err := h.store.GetOptionGroup(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Option group not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "get option group", err)
		return
	}

	writeJSON(w, http.StatusOK, toOptionGroupResponse(group))
}

func (h *OptionGroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOptionGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	if req.DishID == "" || req.Name == "" || req.SelectionType == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: dishId, name, and selectionType are required", "MISSING_REQUIRED_FIELDS")
		return
	}
	dishID, err := uuid.Parse(strings.TrimSpace(req.DishID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "dishId must be a valid dish ID", "INVALID_DISH_ID")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name must be a non-empty string", "INVALID_NAME")
		return
	}
	if !enum.IsSelectionType(req.SelectionType) {
		writeError(w, http.StatusBadRequest, `selectionType must be either "single" or "multiple"`, "INVALID_SELECTION_TYPE")
		return
	}

	arg := database.CreateOptionGroupParams{
		DishID:        dishID,
		Name:          name,
		SelectionType: req.SelectionType,
	}
	if req.IsRequired != nil {
		arg.IsRequired = *req.IsRequired
	}
	if req.DisplayOrder != nil {
		arg.DisplayOrder = *req.DisplayOrder
	}
	if req.AllowNote != nil {
		arg.AllowNote = *req.AllowNote
	}

	group, err := h.store.CreateOptionGroup(r.Context(), arg)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "dish does not exist", "INVALID_DISH_ID")
			return
		}
		writeInternalError(w, "create option group", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOptionGroupResponse(group))
}

// Update applies a partial update; omitted fields keep their values.
func (h *OptionGroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req updateOptionGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	arg := database.UpdateOptionGroupParams{ID: id}
	if req.DishID != nil {
		dishID, err := uuid.Parse(strings.TrimSpace(*req.DishID))
		if err != nil {
			writeError(w, http.StatusBadRequest, "dishId must be a valid dish ID", "INVALID_DISH_ID")
			return
		}
		arg.DishID = pgtype.UUID{Bytes: dishID, Valid: true}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name must be a non-empty string", "INVALID_NAME")
			return
		}
		arg.Name = pgtype.Text{String: name, Valid: true}
	}
	if req.SelectionType != nil {
		if !enum.IsSelectionType(*req.SelectionType) {
			writeError(w, http.StatusBadRequest, `Selection type must be "single" or "multiple"`, "INVALID_SELECTION_TYPE")
			return
		}
		arg.SelectionType = pgtype.Text{String: *req.SelectionType, Valid: true}
	}
	if req.IsRequired != nil {
		arg.IsRequired = pgtype.Bool{Bool: *req.IsRequired, Valid: true}
	}
	if req.DisplayOrder != nil {
		arg.DisplayOrder = pgtype.Int4{Int32: *req.DisplayOrder, Valid: true}
	}
	if req.AllowNote != nil {
		arg.AllowNote = pgtype.Bool{Bool: *req.AllowNote, Valid: true}
	}

	group, err := h.store.UpdateOptionGroup(r.Context(), arg)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Option group not found", "NOT_FOUND")
			return
		}
		if isForeignKeyViolation(err) {
			writeError(w, http.StatusBadRequest, "dish does not exist", "INVALID_DISH_ID")
			return
		}
		writeInternalError(w, "update option group", err)
		return
	}

	writeJSON(w, http.StatusOK, toOptionGroupResponse(group))
}

// Delete removes a group together with its options.
func (h *OptionGroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if _, err := h.store.DeleteOptionGroup(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Option group not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "delete option group", err)
		return
	}

	writeJSON(w, http.StatusOK, deletedResponse{Message: "Option group deleted successfully", ID: id})
}

// --- Helpers ---

// parseIDParam reads the numeric {id} URL parameter.
func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Valid ID is required", "INVALID_ID")
		return 0, false
	}
	return id, true
}
