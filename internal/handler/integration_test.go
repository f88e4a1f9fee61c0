//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tablemenu/api/internal/config"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/enum"
	"github.com/tablemenu/api/internal/events"
	"github.com/tablemenu/api/internal/router"
	"github.com/tablemenu/api/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow drives a diner from table scan to a staff status change
// against a real PostgreSQL database.
func TestIntegrationFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	if err := database.Migrate(connStr); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := &config.Config{
		Port:             "8081",
		DatabaseURL:      connStr,
		JWTSecret:        "integration-test-secret",
		CurrencyCode:     "XAF",
		CurrencyExponent: 0,
		SessionTTL:       30 * time.Minute,
		RequestTimeout:   10 * time.Second,
		AllowedOrigins:   []string{"*"},
		PublicBaseURL:    "https://menu.example.com",
		RateLimit:        "1000-M",
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	r, err := router.New(cfg, pool, rdb, hub, events.NewHubPublisher(hub), memory.NewStore())
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap an admin and a table directly in the database ---
	seedAdmin(t, ctx, pool, "admin", "password123")
	queries := database.New(pool)
	if _, err := queries.UpsertDiningTable(ctx, 5); err != nil {
		t.Fatalf("seed table: %v", err)
	}

	// --- 2. Login as admin ---
	status, body := httpJSON(t, server, http.MethodPost, "/auth/login", map[string]interface{}{
		"username": "admin",
		"password": "password123",
	}, nil)
	requireStatus(t, "login", status, http.StatusOK, body)
	admin := map[string]string{"Authorization": "Bearer " + body["accessToken"].(string)}

	// --- 3. Build a dish with one required and one optional group ---
	status, body = httpJSON(t, server, http.MethodPost, "/categories", map[string]interface{}{
		"name": "Plats", "emoji": "🍔",
	}, admin)
	requireStatus(t, "create category", status, http.StatusCreated, body)
	categoryID := body["id"].(string)

	status, body = httpJSON(t, server, http.MethodPost, "/dishes", map[string]interface{}{
		"categoryId": categoryID,
		"name":       "Hamburger Classique",
		"basePrice":  5000,
	}, admin)
	requireStatus(t, "create dish", status, http.StatusCreated, body)
	dishID := body["id"].(string)

	cookingGroup := createGroup(t, server, admin, dishID, "Cuisson de la Viande", enum.SelectionTypeSingle, true)
	wellDone := createOption(t, server, admin, cookingGroup, "Bien cuit", 0)
	extrasGroup := createGroup(t, server, admin, dishID, "Ajouter des Suppléments", enum.SelectionTypeMultiple, false)
	bacon := createOption(t, server, admin, extrasGroup, "Bacon", 500)

	// Unauthenticated writes are rejected
	status, body = httpJSON(t, server, http.MethodPost, "/dishes", map[string]interface{}{
		"name": "Sneaky", "basePrice": 1,
	}, nil)
	requireStatus(t, "anonymous create dish", status, http.StatusUnauthorized, body)

	// --- 4. Diner scans table 5 ---
	status, body = httpJSON(t, server, http.MethodPost, "/sessions", map[string]interface{}{
		"tableNumber": 5,
	}, nil)
	requireStatus(t, "start session", status, http.StatusCreated, body)
	diner := map[string]string{"X-Session-ID": body["sessionId"].(string)}

	status, body = httpJSON(t, server, http.MethodGet, "/menu", nil, diner)
	requireStatus(t, "menu", status, http.StatusOK, body)

	// --- 5. Required group must be answered ---
	status, body = httpJSON(t, server, http.MethodPost, "/cart/lines", map[string]interface{}{
		"dishId": dishID,
	}, diner)
	requireStatus(t, "add without required", status, http.StatusBadRequest, body)
	if body["code"] != "MISSING_REQUIRED_SELECTION" {
		t.Fatalf("code: got %v, want MISSING_REQUIRED_SELECTION", body["code"])
	}

	status, body = httpJSON(t, server, http.MethodPost, "/cart/lines", map[string]interface{}{
		"dishId": dishID,
		"selections": []map[string]interface{}{
			{"groupId": cookingGroup, "optionId": wellDone},
			{"groupId": extrasGroup, "optionId": bacon},
		},
		"comment": "  sans cornichons ",
	}, diner)
	requireStatus(t, "add line", status, http.StatusCreated, body)
	if got := fmt.Sprint(body["total"]); got != "5500" {
		t.Fatalf("cart total: got %s, want 5500", got)
	}

	// --- 6. Submit ---
	status, body = httpJSON(t, server, http.MethodPost, "/orders", nil, diner)
	requireStatus(t, "submit", status, http.StatusCreated, body)
	orderID := body["orderId"].(string)
	if got := fmt.Sprint(body["total"]); got != "5500" {
		t.Fatalf("order total: got %s, want 5500", got)
	}
	if body["status"] != enum.OrderStatusReceived {
		t.Fatalf("order status: got %v, want received", body["status"])
	}

	// Cart is emptied by a successful submission
	status, body = httpJSON(t, server, http.MethodGet, "/cart", nil, diner)
	requireStatus(t, "cart after submit", status, http.StatusOK, body)
	if lines := body["lines"].([]interface{}); len(lines) != 0 {
		t.Fatalf("cart lines after submit: got %d, want 0", len(lines))
	}

	status, body = httpJSON(t, server, http.MethodPost, "/orders", nil, diner)
	requireStatus(t, "resubmit", status, http.StatusBadRequest, body)

	// --- 7. Diner reads back the snapshot ---
	status, body = httpJSON(t, server, http.MethodGet, "/orders/"+orderID, nil, diner)
	requireStatus(t, "get order", status, http.StatusOK, body)
	lines := body["lines"].([]interface{})
	if len(lines) != 1 {
		t.Fatalf("order lines: got %d, want 1", len(lines))
	}
	line := lines[0].(map[string]interface{})
	if line["dishName"] != "Hamburger Classique" {
		t.Errorf("dishName: got %v", line["dishName"])
	}
	if line["comment"] != "sans cornichons" {
		t.Errorf("comment: got %v, want trimmed", line["comment"])
	}
	if sels := line["selections"].([]interface{}); len(sels) != 2 {
		t.Errorf("selections: got %d, want 2", len(sels))
	}

	// --- 8. Staff sees and advances the order ---
	status, body = httpJSON(t, server, http.MethodGet, "/admin/orders?status=received", nil, admin)
	requireStatus(t, "list orders", status, http.StatusOK, body)
	orders := body["orders"].([]interface{})
	if len(orders) != 1 || orders[0].(map[string]interface{})["id"] != orderID {
		t.Fatalf("admin orders: got %v", orders)
	}

	status, body = httpJSON(t, server, http.MethodPatch, "/admin/orders/"+orderID+"/status", map[string]interface{}{
		"status": enum.OrderStatusPreparing,
	}, admin)
	requireStatus(t, "update status", status, http.StatusOK, body)
	if body["status"] != enum.OrderStatusPreparing {
		t.Fatalf("status: got %v, want preparing", body["status"])
	}

	// Snapshot survives catalog edits
	status, body = httpJSON(t, server, http.MethodPut, "/dishes/"+dishID, map[string]interface{}{
		"categoryId": categoryID,
		"name":       "Burger Maison",
		"basePrice":  9000,
	}, admin)
	requireStatus(t, "update dish", status, http.StatusOK, body)

	status, body = httpJSON(t, server, http.MethodGet, "/admin/orders/"+orderID, nil, admin)
	requireStatus(t, "admin get order", status, http.StatusOK, body)
	if got := fmt.Sprint(body["total"]); got != "5500" {
		t.Errorf("total after dish edit: got %s, want 5500", got)
	}
	line = body["lines"].([]interface{})[0].(map[string]interface{})
	if line["dishName"] != "Hamburger Classique" {
		t.Errorf("dishName after dish edit: got %v", line["dishName"])
	}

	// --- 9. Diner leaves ---
	status, body = httpJSON(t, server, http.MethodDelete, "/sessions/current", nil, diner)
	if status != http.StatusNoContent {
		t.Fatalf("end session: got %d, body %v", status, body)
	}
	status, body = httpJSON(t, server, http.MethodGet, "/cart", nil, diner)
	requireStatus(t, "cart after end", status, http.StatusUnauthorized, body)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tablemenu_test"),
		tcpostgres.WithUsername("tablemenu"),
		tcpostgres.WithPassword("tablemenu"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return connStr, cleanup
}

func seedAdmin(t *testing.T, ctx context.Context, pool *pgxpool.Pool, username, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	_, err = database.New(pool).CreateStaffUser(ctx, database.CreateStaffUserParams{
		Username:     username,
		PasswordHash: string(hashed),
		FullName:     "Integration Admin",
		Role:         enum.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
}

func createGroup(t *testing.T, server *httptest.Server, admin map[string]string, dishID, name, selectionType string, required bool) int64 {
	t.Helper()
	status, body := httpJSON(t, server, http.MethodPost, "/option-groups", map[string]interface{}{
		"dishId":        dishID,
		"name":          name,
		"selectionType": selectionType,
		"isRequired":    required,
	}, admin)
	requireStatus(t, "create option group "+name, status, http.StatusCreated, body)
	return int64(body["id"].(float64))
}

func createOption(t *testing.T, server *httptest.Server, admin map[string]string, groupID int64, name string, extra int64) int64 {
	t.Helper()
	status, body := httpJSON(t, server, http.MethodPost, "/dish-options", map[string]interface{}{
		"optionGroupId": groupID,
		"name":          name,
		"extraPrice":    extra,
	}, admin)
	requireStatus(t, "create dish option "+name, status, http.StatusCreated, body)
	return int64(body["id"].(float64))
}

// --- HTTP helpers ---

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}

	// List endpoints answer with a bare array; only objects are decoded.
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	var result map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &result); err != nil {
			t.Fatalf("%s %s: decode object: %v", method, path, err)
		}
	}
	return resp.StatusCode, result
}

func requireStatus(t *testing.T, step string, got, want int, body map[string]interface{}) {
	t.Helper()
	if got != want {
		t.Fatalf("%s: status %d, want %d, body: %v", step, got, want, body)
	}
}
