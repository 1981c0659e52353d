// Package websocket pushes server events to connected staff. Clients connect
// once, get a private inbox topic for chat delivery, and share the patients
// topic for directory changes. Push is additive: every event a client can
// receive here is also observable through the polling endpoints, so a dropped
// connection loses nothing.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Event types pushed to clients.
const (
	EventChatMessage       = "chat.message"
	EventPatientRegistered = "patient.registered"
)

// TopicPatients carries directory changes to every connected client.
const TopicPatients = "patients"

// StaffTopic is the private inbox topic for one staff member.
func StaffTopic(staffID uuid.UUID) string {
	return "staff:" + staffID.String()
}

// Event is one notification pushed over a connection.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an Event, marshaling payload into Data. A payload that does
// not marshal yields an event without data rather than no event.
func NewEvent(eventType, topic string, payload interface{}) Event {
	event := Event{Type: eventType, Topic: topic, Timestamp: time.Now().UTC()}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			event.Data = data
		}
	}
	return event
}

// Publisher is the send-side interface services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// clientMessage is an inbound subscription change from a client.
type clientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// client is one connected staff websocket.
type client struct {
	staffID uuid.UUID
	topics  []string
	send    chan []byte
}

// Hub tracks connections and their topic subscriptions.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{} // topic -> subscribers
	all     map[*client]struct{}
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]map[*client]struct{}),
		all:     make(map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[c] = struct{}{}
	for _, topic := range c.topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*client]struct{})
		}
		h.clients[topic][c] = struct{}{}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	for _, topic := range c.topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, c)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}
	delete(h.all, c)
	close(c.send)
}

func (h *Hub) subscribe(c *client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*client]struct{})
		}
		h.clients[topic][c] = struct{}{}
	}
	c.topics = append(c.topics, topics...)
}

func (h *Hub) unsubscribe(c *client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	removeSet := make(map[string]struct{}, len(topics))
	for _, t := range topics {
		removeSet[t] = struct{}{}
		if subscribers, ok := h.clients[t]; ok {
			delete(subscribers, c)
			if len(subscribers) == 0 {
				delete(h.clients, t)
			}
		}
	}

	remaining := c.topics[:0]
	for _, t := range c.topics {
		if _, rm := removeSet[t]; !rm {
			remaining = append(remaining, t)
		}
	}
	c.topics = remaining
}

// Publish broadcasts the event to every subscriber of its topic. Slow clients
// are skipped rather than blocked on.
func (h *Hub) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[event.Topic] {
		select {
		case c.send <- data:
		default:
			h.log.Warn().Str("topic", event.Topic).Str("staff_id", c.staffID.String()).
				Msg("dropping event for slow websocket client")
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of subscribers on one topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// TokenVerifier checks a connection token and returns the staff identity.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, string, error)
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades HTTP connections and pumps hub events to them.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
}

func NewHandler(hub *Hub, verifier TokenVerifier) *Handler {
	return &Handler{hub: hub, verifier: verifier}
}

// RegisterRoutes mounts the websocket endpoint on the group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.HandleConnect)
}

// HandleConnect authenticates the token query parameter, upgrades the
// connection, and subscribes the client to its inbox and the patients topic.
// The token travels as a query parameter because browser websocket clients
// cannot set request headers.
func (h *Handler) HandleConnect(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	staffID, _, err := h.verifier.Verify(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		staffID: staffID,
		topics:  []string{StaffTopic(staffID), TopicPatients},
		send:    make(chan []byte, 256),
	}
	h.hub.register(cl)

	go h.writePump(cl, ws)
	go h.readPump(cl, ws)
	return nil
}

func (h *Handler) readPump(cl *client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.unregister(cl)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			h.hub.subscribe(cl, msg.Topics)
		case "unsubscribe":
			h.hub.unsubscribe(cl, msg.Topics)
		}
	}
}

func (h *Handler) writePump(cl *client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range cl.send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}
