package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/tablemenu/api/internal/session"
)

// SessionHeader carries the diner's table session ID.
const SessionHeader = "X-Session-ID"

// SessionLoader is satisfied by *session.Store.
type SessionLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*session.Session, error)
}

// RequireTableSession loads the diner session named by the X-Session-ID
// header (or the session query parameter) into the request context.
func RequireTableSession(sessions SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(SessionHeader)
			if raw == "" {
				raw = r.URL.Query().Get("session")
			}
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "table session required", "SESSION_EXPIRED")
				return
			}

			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid table session", "SESSION_EXPIRED")
				return
			}

			sess, err := sessions.Get(r.Context(), id)
			if err != nil {
				if errors.Is(err, session.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "table session expired", "SESSION_EXPIRED")
					return
				}
				log.Printf("ERROR: load session: %v", err)
				writeError(w, http.StatusInternalServerError, "Internal server error: "+err.Error(), "INTERNAL_ERROR")
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}
