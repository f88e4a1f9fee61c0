package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/session"
)

// TableLookup is satisfied by *database.Queries.
type TableLookup interface {
	GetDiningTableByNumber(ctx context.Context, tableNumber int32) (database.DiningTable, error)
}

// SessionManager is satisfied by *session.Store.
type SessionManager interface {
	Create(ctx context.Context, tableID uuid.UUID, tableNumber int32) (*session.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CartClearer is satisfied by *cart.RedisStore.
type CartClearer interface {
	Clear(ctx context.Context, sess *session.Session) error
}

// SessionHandler starts and ends diner table sessions.
type SessionHandler struct {
	tables   TableLookup
	sessions SessionManager
	carts    CartClearer
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(tables TableLookup, sessions SessionManager, carts CartClearer) *SessionHandler {
	return &SessionHandler{tables: tables, sessions: sessions, carts: carts}
}

// RegisterRoutes registers POST /sessions. DELETE /sessions/current is
// registered separately behind RequireTableSession.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.Start)
}

// --- Request / Response types ---

type startSessionRequest struct {
	TableNumber int32 `json:"tableNumber"`
}

type sessionResponse struct {
	SessionID   uuid.UUID `json:"sessionId"`
	TableID     uuid.UUID `json:"tableId"`
	TableNumber int32     `json:"tableNumber"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// --- Handlers ---

// Start opens a session for the table a diner scanned or typed in.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "tableNumber must be a positive integer", "INVALID_TABLE_NUMBER")
		return
	}
	if req.TableNumber <= 0 {
		writeError(w, http.StatusBadRequest, "tableNumber must be a positive integer", "INVALID_TABLE_NUMBER")
		return
	}

	table, err := h.tables.GetDiningTableByNumber(r.Context(), req.TableNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "table not found", "TABLE_NOT_FOUND")
			return
		}
		writeInternalError(w, "get table", err)
		return
	}
	if !table.IsActive {
		writeError(w, http.StatusNotFound, "table not found", "TABLE_NOT_FOUND")
		return
	}

	sess, err := h.sessions.Create(r.Context(), table.ID, table.TableNumber)
	if err != nil {
		writeInternalError(w, "create session", err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID:   sess.ID,
		TableID:     sess.TableID,
		TableNumber: sess.TableNumber,
		ExpiresAt:   sess.ExpiresAt,
	})
}

// End deletes the current session and its cart.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "table session required", "SESSION_EXPIRED")
		return
	}

	if err := h.carts.Clear(r.Context(), sess); err != nil {
		writeInternalError(w, "clear cart", err)
		return
	}
	if err := h.sessions.Delete(r.Context(), sess.ID); err != nil {
		writeInternalError(w, "delete session", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
