package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tablemenu/api/internal/cart"
	"github.com/tablemenu/api/internal/config"
	"github.com/tablemenu/api/internal/customization"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/enum"
	"github.com/tablemenu/api/internal/events"
	"github.com/tablemenu/api/internal/handler"
	mw "github.com/tablemenu/api/internal/middleware"
	"github.com/tablemenu/api/internal/service"
	"github.com/tablemenu/api/internal/session"
	"github.com/tablemenu/api/internal/ws"
	"github.com/ulule/limiter/v3"
)

// New creates a Chi router with all application routes wired up.
// Diner routes require a table session; admin routes require a staff JWT.
func New(cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, hub *ws.Hub, publisher events.Publisher, limits limiter.Store) (chi.Router, error) {
	queries := database.New(pool)
	currency := cfg.Currency()
	sessions := session.NewStore(rdb, cfg.SessionTTL)
	carts := cart.NewRedisStore(rdb)
	resolver := customization.NewResolver(queries)

	rateLimit, err := mw.RateLimit(limits, cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.SessionHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket routes authenticate via query param and must not be cut
	// off by the request timeout.
	r.Get("/ws/staff/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeStaffWS(hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeTableWS(hub, sessions, w, r)
	})

	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}, carts, publisher, currency)
	orderHandler := handler.NewOrderHandler(orderService, queries, currency)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		// Auth routes (public)
		authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
		authHandler.RegisterRoutes(r)

		// Catalog: reads are public, writes need an ADMIN token.
		adminOnly := chi.Chain(mw.Authenticate(cfg.JWTSecret), mw.RequireRole(enum.UserRoleAdmin)).Handler

		categoryHandler := handler.NewCategoryHandler(queries)
		r.Route("/categories", func(r chi.Router) { categoryHandler.RegisterRoutes(r, adminOnly) })

		dishHandler := handler.NewDishHandler(queries, resolver, currency)
		r.Route("/dishes", func(r chi.Router) { dishHandler.RegisterRoutes(r, adminOnly) })

		optionGroupHandler := handler.NewOptionGroupHandler(queries)
		r.Route("/option-groups", func(r chi.Router) { optionGroupHandler.RegisterRoutes(r, adminOnly) })

		dishOptionHandler := handler.NewDishOptionHandler(queries, currency)
		r.Route("/dish-options", func(r chi.Router) { dishOptionHandler.RegisterRoutes(r, adminOnly) })

		// Table sessions
		sessionHandler := handler.NewSessionHandler(queries, sessions, carts)
		r.With(rateLimit).Group(sessionHandler.RegisterRoutes)

		// Diner routes (require a live table session)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireTableSession(sessions))

			r.Delete("/sessions/current", sessionHandler.End)

			menuHandler := handler.NewMenuHandler(queries, currency)
			r.Get("/menu", menuHandler.Get)

			cartHandler := handler.NewCartHandler(carts, queries, resolver, currency)
			r.Route("/cart", cartHandler.RegisterRoutes)

			r.Route("/orders", func(r chi.Router) { orderHandler.RegisterDinerRoutes(r, rateLimit) })
		})

		// Staff routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleStaff))
				r.Route("/orders", orderHandler.RegisterAdminRoutes)

				tableHandler := handler.NewTableHandler(queries, cfg.PublicBaseURL)
				r.Route("/tables", tableHandler.RegisterRoutes)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin))
				staffHandler := handler.NewStaffHandler(queries)
				r.Route("/staff", staffHandler.RegisterRoutes)
			})
		})
	})

	log.Println("Router initialized with all handlers")
	return r, nil
}
