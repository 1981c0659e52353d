package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newTestClient(staffID uuid.UUID, topics ...string) *client {
	return &client{staffID: staffID, topics: topics, send: make(chan []byte, 8)}
}

func TestHub_PublishToTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	staffID := uuid.New()
	cl := newTestClient(staffID, StaffTopic(staffID))
	other := newTestClient(uuid.New(), StaffTopic(uuid.New()))
	hub.register(cl)
	hub.register(other)

	event := NewEvent(EventChatMessage, StaffTopic(staffID), map[string]string{"content": "hello"})
	if err := hub.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case raw := <-cl.send:
		var got Event
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if got.Type != EventChatMessage {
			t.Errorf("expected chat.message, got %s", got.Type)
		}
	default:
		t.Fatal("subscriber did not receive the event")
	}

	select {
	case <-other.send:
		t.Fatal("unrelated client received a private inbox event")
	default:
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	cl := newTestClient(uuid.New(), TopicPatients)
	hub.register(cl)
	hub.unregister(cl)

	if hub.ClientCount() != 0 || hub.TopicCount(TopicPatients) != 0 {
		t.Error("expected empty hub after unregister")
	}
	if err := hub.Publish(context.Background(), NewEvent(EventPatientRegistered, TopicPatients, nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	// Send channel is closed on unregister.
	if _, open := <-cl.send; open {
		t.Error("expected closed send channel")
	}
}

func TestHub_SubscribeUnsubscribe(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	cl := newTestClient(uuid.New())
	hub.register(cl)

	hub.subscribe(cl, []string{TopicPatients})
	if hub.TopicCount(TopicPatients) != 1 {
		t.Fatal("expected subscription to take effect")
	}

	hub.unsubscribe(cl, []string{TopicPatients})
	if hub.TopicCount(TopicPatients) != 0 {
		t.Error("expected unsubscribe to take effect")
	}
}

func TestHub_SlowClientSkipped(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	cl := &client{staffID: uuid.New(), topics: []string{TopicPatients}, send: make(chan []byte)}
	hub.register(cl)

	// Unbuffered channel with no reader: Publish must not block.
	done := make(chan struct{})
	go func() {
		hub.Publish(context.Background(), NewEvent(EventPatientRegistered, TopicPatients, nil))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow client")
	}
}

type staticVerifier struct {
	staffID uuid.UUID
	err     error
}

func (v staticVerifier) Verify(string) (uuid.UUID, string, error) {
	return v.staffID, "doctor", v.err
}

func TestHandler_RejectsMissingToken(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	e := echo.New()
	NewHandler(hub, staticVerifier{staffID: uuid.New()}).RegisterRoutes(e.Group("/api/v1"))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandler_ConnectAndReceive(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	staffID := uuid.New()

	e := echo.New()
	NewHandler(hub, staticVerifier{staffID: staffID}).RegisterRoutes(e.Group("/api/v1"))
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=tok"
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Registration happens inside the upgrade handler; wait for it.
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.TopicCount(StaffTopic(staffID)) != 1 {
		t.Fatal("expected client subscribed to its inbox topic")
	}
	if hub.TopicCount(TopicPatients) != 1 {
		t.Fatal("expected client subscribed to the patients topic")
	}

	hub.Publish(context.Background(), NewEvent(EventChatMessage, StaffTopic(staffID), map[string]string{"content": "hi"}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got Event
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != EventChatMessage || got.Topic != StaffTopic(staffID) {
		t.Errorf("unexpected event: %+v", got)
	}
}
