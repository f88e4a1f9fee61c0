package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tablemenu/api/internal/auth"
	"github.com/tablemenu/api/internal/session"
)

const testSecret = "test-secret"

type stubSessions map[uuid.UUID]*session.Session

func (s stubSessions) Get(_ context.Context, id uuid.UUID) (*session.Session, error) {
	sess, ok := s[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func waitForClients(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount(room) != n {
		if time.Now().After(deadline) {
			t.Fatalf("room %s: expected %d clients, have %d", room, n, hub.ClientCount(room))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServeStaffWS_RejectsMissingToken(t *testing.T) {
	hub := runHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeStaffWS(hub, testSecret, w, r)
	}))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/staff/orders"), nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestServeStaffWS_ReceivesBroadcast(t *testing.T) {
	hub := runHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeStaffWS(hub, testSecret, w, r)
	}))
	defer srv.Close()

	token, err := auth.GenerateToken(testSecret, uuid.New(), "kitchen", "STAFF")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/staff/orders?token="+token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, StaffRoom, 1)
	hub.Broadcast(StaffRoom, Event{Type: "order.created", Payload: json.RawMessage(`{"orderId":"x"}`)})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != "order.created" {
		t.Errorf("type: got %q", got.Type)
	}
}

func TestServeTableWS_JoinsTableRoom(t *testing.T) {
	hub := runHub(t)
	sess := &session.Session{ID: uuid.New(), TableID: uuid.New(), TableNumber: 5, ExpiresAt: time.Now().Add(time.Hour)}
	sessions := stubSessions{sess.ID: sess}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeTableWS(hub, sessions, w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/orders?session="+sess.ID.String()), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, TableRoom(sess.TableID), 1)
}

func TestServeTableWS_RejectsUnknownSession(t *testing.T) {
	hub := runHub(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeTableWS(hub, stubSessions{}, w, r)
	}))
	defer srv.Close()

	for _, q := range []string{"", "?session=not-a-uuid", "?session=" + uuid.NewString()} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/orders"+q), nil)
		if err == nil {
			t.Fatalf("%q: expected dial to fail", q)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%q: expected 401", q)
		}
	}
}
