package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tablemenu/api/internal/cart"
	"github.com/tablemenu/api/internal/customization"
	"github.com/tablemenu/api/internal/database"
	"github.com/tablemenu/api/internal/handler"
	"github.com/tablemenu/api/internal/session"
)

// cartFixture is a grilled fish with a required single-choice side and
// optional sauces that accept a note.
type cartFixture struct {
	router *chi.Mux
	carts  *cart.RedisStore
	sess   *session.Session
	fish   database.Dish
	beer   database.Dish
	closed database.Dish
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	_, rdb := newRedis(t)

	f := &cartFixture{
		carts:  cart.NewRedisStore(rdb),
		fish:   database.Dish{ID: uuid.New(), Name: "Poisson braisé", BasePrice: 5000, IsAvailable: true},
		beer:   database.Dish{ID: uuid.New(), Name: "33 Export", BasePrice: 800, IsAvailable: true},
		closed: database.Dish{ID: uuid.New(), Name: "Kondrè", BasePrice: 4000, IsAvailable: false},
	}
	now := time.Now()
	f.sess = &session.Session{ID: uuid.New(), TableID: uuid.New(), TableNumber: 3, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	dishes := newMockDishStore()
	for _, d := range []database.Dish{f.fish, f.beer, f.closed} {
		dishes.dishes[d.ID] = d
	}
	groups := &stubResolver{groups: map[uuid.UUID][]customization.Group{
		f.fish.ID: {
			{ID: 1, DishID: f.fish.ID, Name: "Accompagnement", SelectionType: "single", IsRequired: true, Options: []customization.Option{
				{ID: 10, Name: "Miondo"},
				{ID: 11, Name: "Plantain frit", ExtraPrice: 500},
			}},
			{ID: 2, DishID: f.fish.ID, Name: "Sauces", SelectionType: "multiple", AllowNote: true, DisplayOrder: 1, Options: []customization.Option{
				{ID: 20, Name: "Piment", ExtraPrice: 100},
				{ID: 21, Name: "Moutarde", ExtraPrice: 150},
			}},
		},
	}}

	h := handler.NewCartHandler(f.carts, dishes, groups, xaf)
	f.router = chi.NewRouter()
	f.router.With(withSession(f.sess)).Route("/cart", h.RegisterRoutes)
	return f
}

func (f *cartFixture) add(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	rr := doRequest(t, f.router, "POST", "/cart/lines", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add line: got %d; body: %s", rr.Code, rr.Body.String())
	}
	return decodeResponse(t, rr)
}

func lines(resp map[string]interface{}) []map[string]interface{} {
	raw := resp["lines"].([]interface{})
	out := make([]map[string]interface{}, len(raw))
	for i, l := range raw {
		out[i] = l.(map[string]interface{})
	}
	return out
}

// --- Tests ---

func TestCartGet_Empty(t *testing.T) {
	f := newCartFixture(t)

	rr := doRequest(t, f.router, "GET", "/cart", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if len(lines(resp)) != 0 || resp["total"] != float64(0) || resp["currency"] != "XAF" {
		t.Errorf("unexpected empty cart: %v", resp)
	}
}

func TestCartAdd_PricesSelections(t *testing.T) {
	f := newCartFixture(t)

	resp := f.add(t, `{"dishId":"`+f.fish.ID.String()+`","selections":[
		{"groupId":2,"optionId":21},
		{"groupId":1,"optionId":10},
		{"groupId":1,"optionId":11},
		{"groupId":2,"optionId":20,"note":" bien fort "}
	],"comment":"sans arêtes"}`)

	if resp["lineIndex"] != float64(0) {
		t.Errorf("lineIndex: got %v, want 0", resp["lineIndex"])
	}
	line := lines(resp)[0]
	// 5000 + 500 (plantain replaces miondo) + 150 + 100
	if line["unitPrice"] != float64(5750) || line["subtotal"] != float64(5750) {
		t.Errorf("unexpected prices: %v", line)
	}
	if resp["total"] != float64(5750) {
		t.Errorf("total: got %v, want 5750", resp["total"])
	}

	sels := line["selections"].([]interface{})
	if len(sels) != 3 {
		t.Fatalf("expected 3 selections, got %d", len(sels))
	}
	wantOrder := []string{"Plantain frit", "Piment", "Moutarde"}
	for i, want := range wantOrder {
		if got := sels[i].(map[string]interface{})["optionName"]; got != want {
			t.Errorf("selection %d: got %v, want %s", i, got, want)
		}
	}
	if sels[1].(map[string]interface{})["note"] != "bien fort" {
		t.Errorf("note should be trimmed and kept, got %v", sels[1])
	}
	if line["comment"] != "sans arêtes" {
		t.Errorf("comment: got %v", line["comment"])
	}
}

func TestCartAdd_MergesPlainLines(t *testing.T) {
	f := newCartFixture(t)
	body := `{"dishId":"` + f.beer.ID.String() + `"}`

	f.add(t, body)
	resp := f.add(t, body)

	ls := lines(resp)
	if len(ls) != 1 {
		t.Fatalf("expected plain additions to merge, got %d lines", len(ls))
	}
	if ls[0]["quantity"] != float64(2) || resp["total"] != float64(1600) {
		t.Errorf("unexpected merged line: %v total %v", ls[0], resp["total"])
	}

	resp = f.add(t, `{"dishId":"`+f.beer.ID.String()+`","comment":"bien glacée"}`)
	if len(lines(resp)) != 2 || resp["lineIndex"] != float64(1) {
		t.Errorf("commented line should not merge: %v", resp)
	}
}

func TestCartAdd_Errors(t *testing.T) {
	f := newCartFixture(t)
	fish := f.fish.ID.String()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"missing dish", `{}`, http.StatusBadRequest, "MISSING_DISH_ID"},
		{"bad dish", `{"dishId":"nope"}`, http.StatusBadRequest, "INVALID_DISH_ID"},
		{"unknown dish", `{"dishId":"` + uuid.NewString() + `"}`, http.StatusNotFound, "DISH_NOT_FOUND"},
		{"unavailable", `{"dishId":"` + f.closed.ID.String() + `"}`, http.StatusBadRequest, "DISH_UNAVAILABLE"},
		{"unknown group", `{"dishId":"` + fish + `","selections":[{"groupId":9,"optionId":10}]}`, http.StatusBadRequest, "UNKNOWN_OPTION_GROUP"},
		{"unknown option", `{"dishId":"` + fish + `","selections":[{"groupId":1,"optionId":99}]}`, http.StatusBadRequest, "UNKNOWN_OPTION"},
		{"note refused", `{"dishId":"` + fish + `","selections":[{"groupId":1,"optionId":10,"note":"x"}]}`, http.StatusBadRequest, "NOTE_NOT_ALLOWED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, f.router, "POST", "/cart/lines", tc.body)
			assertError(t, rr, tc.status, tc.code)
		})
	}
}

func TestCartAdd_MissingRequiredSelection(t *testing.T) {
	f := newCartFixture(t)

	rr := doRequest(t, f.router, "POST", "/cart/lines",
		`{"dishId":"`+f.fish.ID.String()+`","selections":[{"groupId":2,"optionId":20}]}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rr)
	if resp["code"] != "MISSING_REQUIRED_SELECTION" || resp["groupId"] != float64(1) || resp["groupName"] != "Accompagnement" {
		t.Errorf("unexpected error body: %v", resp)
	}

	c, err := f.carts.Load(context.Background(), f.sess)
	if err != nil {
		t.Fatalf("load cart: %v", err)
	}
	if !c.IsEmpty() {
		t.Error("rejected line must not reach the cart")
	}
}

func TestCartUpdateLine(t *testing.T) {
	f := newCartFixture(t)
	f.add(t, `{"dishId":"`+f.beer.ID.String()+`"}`)

	rr := doRequest(t, f.router, "PATCH", "/cart/lines/0", `{"quantity":3,"comment":" pas trop froide "}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	line := lines(resp)[0]
	if line["quantity"] != float64(3) || line["subtotal"] != float64(2400) || line["comment"] != "pas trop froide" {
		t.Errorf("unexpected line: %v", line)
	}

	rr = doRequest(t, f.router, "PATCH", "/cart/lines/0", `{"quantity":-1}`)
	assertError(t, rr, http.StatusBadRequest, "INVALID_QUANTITY")

	rr = doRequest(t, f.router, "PATCH", "/cart/lines/0", `{"comment":"x"}`)
	assertError(t, rr, http.StatusBadRequest, "INVALID_QUANTITY")

	rr = doRequest(t, f.router, "PATCH", "/cart/lines/0", `{"quantity":1000}`)
	assertError(t, rr, http.StatusBadRequest, "INVALID_QUANTITY")

	rr = doRequest(t, f.router, "PATCH", "/cart/lines/0", `{"quantity":4294967297}`)
	assertError(t, rr, http.StatusBadRequest, "INVALID_QUANTITY")

	rr = doRequest(t, f.router, "GET", "/cart", nil)
	if q := lines(decodeResponse(t, rr))[0]["quantity"]; q != float64(3) {
		t.Errorf("quantity after rejected updates: got %v, want 3", q)
	}

	rr = doRequest(t, f.router, "PATCH", "/cart/lines/5", `{"quantity":1}`)
	assertError(t, rr, http.StatusNotFound, "LINE_NOT_FOUND")

	rr = doRequest(t, f.router, "PATCH", "/cart/lines/first", `{"quantity":1}`)
	assertError(t, rr, http.StatusBadRequest, "INVALID_INDEX")
}

func TestCartUpdateLine_ZeroRemoves(t *testing.T) {
	f := newCartFixture(t)
	f.add(t, `{"dishId":"`+f.beer.ID.String()+`"}`)

	rr := doRequest(t, f.router, "PATCH", "/cart/lines/0", `{"quantity":0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeResponse(t, rr); len(lines(resp)) != 0 {
		t.Errorf("quantity 0 should remove the line, got %v", resp)
	}
}

func TestCartRemoveLine(t *testing.T) {
	f := newCartFixture(t)
	f.add(t, `{"dishId":"`+f.beer.ID.String()+`"}`)
	f.add(t, `{"dishId":"`+f.fish.ID.String()+`","selections":[{"groupId":1,"optionId":10}]}`)

	rr := doRequest(t, f.router, "DELETE", "/cart/lines/0", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	ls := lines(resp)
	if len(ls) != 1 || ls[0]["dishName"] != "Poisson braisé" || ls[0]["index"] != float64(0) {
		t.Errorf("unexpected remaining lines: %v", ls)
	}

	rr = doRequest(t, f.router, "DELETE", "/cart/lines/3", nil)
	assertError(t, rr, http.StatusNotFound, "LINE_NOT_FOUND")
}

func TestCart_RequiresSession(t *testing.T) {
	_, rdb := newRedis(t)
	h := handler.NewCartHandler(cart.NewRedisStore(rdb), newMockDishStore(), &stubResolver{}, xaf)
	r := chi.NewRouter()
	r.Route("/cart", h.RegisterRoutes)

	rr := doRequest(t, r, "GET", "/cart", nil)
	assertError(t, rr, http.StatusUnauthorized, "SESSION_EXPIRED")
}

func TestCart_ExpiredSessionRejectsWrites(t *testing.T) {
	_, rdb := newRedis(t)
	past := time.Now().Add(-time.Minute)
	sess := &session.Session{ID: uuid.New(), TableID: uuid.New(), TableNumber: 1, ExpiresAt: past}
	dishes := newMockDishStore()
	beer := database.Dish{ID: uuid.New(), Name: "Top", BasePrice: 600, IsAvailable: true}
	dishes.dishes[beer.ID] = beer

	h := handler.NewCartHandler(cart.NewRedisStore(rdb), dishes, &stubResolver{}, xaf)
	r := chi.NewRouter()
	r.With(withSession(sess)).Route("/cart", h.RegisterRoutes)

	rr := doRequest(t, r, "POST", "/cart/lines", `{"dishId":"`+beer.ID.String()+`"}`)
	assertError(t, rr, http.StatusUnauthorized, "SESSION_EXPIRED")
}
