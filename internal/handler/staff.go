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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// StaffStore defines the database methods needed by staff handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type StaffStore interface {
	ListStaffUsers(ctx context.Context) ([]database.StaffUser, error)
	GetStaffUser(ctx context.Context, id uuid.UUID) (database.StaffUser, error)
	CreateStaffUser(ctx context.Context, arg database.CreateStaffUserParams) (database.StaffUser, error)
	UpdateStaffUser(ctx context.Context, arg database.UpdateStaffUserParams) (database.StaffUser, error)
	UpdateStaffPassword(ctx context.Context, arg database.UpdateStaffPasswordParams) (uuid.UUID, error)
	SoftDeleteStaffUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// StaffHandler manages staff accounts.
type StaffHandler struct {
	store StaffStore
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(store StaffStore) *StaffHandler {
	return &StaffHandler{store: store}
}

// RegisterRoutes registers staff CRUD endpoints on the given Chi router.
// Expected to be mounted at /admin/staff behind RequireRole(ADMIN).
func (h *StaffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createStaffRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type updateStaffRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

type staffResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

func toStaffResponse(u database.StaffUser) staffResponse {
	return staffResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// --- Handlers ---

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListStaffUsers(r.Context())
	if err != nil {
		writeInternalError(w, "list staff", err)
		return
	}

	resp := make([]staffResponse, len(users))
	for i, u := range users {
		resp[i] = toStaffResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff ID", "INVALID_ID")
		return
	}

	user, err := h.store.GetStaffUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "staff user not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "get staff", err)
		return
	}

	writeJSON(w, http.StatusOK, toStaffResponse(user))
}

// Create adds a staff account with a bcrypt-hashed password.
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	if req.Username == "" || req.Password == "" || req.FullName == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "username, password, fullName and role are required", "MISSING_REQUIRED_FIELDS")
		return
	}
	if !enum.IsUserRole(req.Role) {
		writeError(w, http.StatusBadRequest, "role must be ADMIN or STAFF", "INVALID_ROLE")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters", "INVALID_PASSWORD")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeInternalError(w, "create staff: hash password", err)
		return
	}

	user, err := h.store.CreateStaffUser(r.Context(), database.CreateStaffUserParams{
		Username:     req.Username,
		PasswordHash: string(hashed),
		FullName:     req.FullName,
		Role:         req.Role,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "username already exists", "DUPLICATE_USERNAME")
			return
		}
		writeInternalError(w, "create staff", err)
		return
	}

	writeJSON(w, http.StatusCreated, toStaffResponse(user))
}

// Update replaces a staff account's profile. A non-empty password also
// resets the password.
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff ID", "INVALID_ID")
		return
	}

	var req updateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	if req.Username == "" || req.FullName == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "username, fullName and role are required", "MISSING_REQUIRED_FIELDS")
		return
	}
	if !enum.IsUserRole(req.Role) {
		writeError(w, http.StatusBadRequest, "role must be ADMIN or STAFF", "INVALID_ROLE")
		return
	}
	if req.Password != "" && len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters", "INVALID_PASSWORD")
		return
	}

	user, err := h.store.UpdateStaffUser(r.Context(), database.UpdateStaffUserParams{
		Username: req.Username,
		FullName: req.FullName,
		Role:     req.Role,
		ID:       id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "staff user not found", "NOT_FOUND")
			return
		}
		if isUniqueViolation(err) {
			writeError(w, http.StatusConflict, "username already exists", "DUPLICATE_USERNAME")
			return
		}
		writeInternalError(w, "update staff", err)
		return
	}

	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeInternalError(w, "update staff: hash password", err)
			return
		}
		if _, err := h.store.UpdateStaffPassword(r.Context(), database.UpdateStaffPasswordParams{
			PasswordHash: string(hashed),
			ID:           id,
		}); err != nil {
			writeInternalError(w, "update staff password", err)
			return
		}
		log.Printf("INFO: password reset for staff user %s", id)
	}

	writeJSON(w, http.StatusOK, toStaffResponse(user))
}

// Delete deactivates a staff account; existing tokens stop refreshing.
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid staff ID", "INVALID_ID")
		return
	}

	if _, err := h.store.SoftDeleteStaffUser(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "staff user not found", "NOT_FOUND")
			return
		}
		writeInternalError(w, "delete staff", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
