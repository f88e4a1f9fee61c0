package middleware

import (
	"fmt"
	"net/http"

	"github.com/tablemenu/api/internal/session"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

// RateLimit limits requests per table session, or per client IP for
// requests without a loaded one. Mount it after RequireTableSession to key
// on the session; the raw header is never trusted. formatted uses limiter
// syntax, e.g. "30-M".
func RateLimit(store limiter.Store, formatted string) (func(http.Handler) http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}

	instance := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			if sess, ok := session.FromContext(r.Context()); ok {
				return "session:" + sess.ID.String()
			}
			return "ip:" + instance.GetIPKey(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "too many requests", "RATE_LIMITED")
		}),
	)
	return mw.Handler, nil
}
