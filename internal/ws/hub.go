package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"chat-core/internal/models"
	"chat-core/internal/observability"
)

const (
	wsKind       = "chat"
	wsRoutingKey = "ws_events.chats"
	writeTimeout = 5 * time.Second
)

// EventPublisher forwards websocket lifecycle events to the event bus.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type client struct {
	conn *websocket.Conn
	info ConnInfo
	mu   sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub fans chat events out to subscribed websocket connections. Pushes are
// additive: every event is also observable through the polling endpoints.
type Hub struct {
	rooms     map[int]map[*websocket.Conn]*client
	publisher EventPublisher
	mu        sync.RWMutex
}

// NewHub creates an empty hub. publisher may be nil.
func NewHub(publisher EventPublisher) *Hub {
	return &Hub{
		rooms:     make(map[int]map[*websocket.Conn]*client),
		publisher: publisher,
	}
}

// AddChatClient registers a websocket connection to a chat room.
func (h *Hub) AddChatClient(chatID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*websocket.Conn]*client)
	}
	h.rooms[chatID][conn] = &client{conn: conn, info: info}
}

// RemoveChatClient removes a chat websocket connection.
func (h *Hub) RemoveChatClient(chatID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[chatID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// RoomSize reports how many connections are subscribed to a chat.
func (h *Hub) RoomSize(chatID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

func (h *Hub) snapshot(chatID int) []*client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*client, 0, len(h.rooms[chatID]))
	for _, c := range h.rooms[chatID] {
		clients = append(clients, c)
	}
	return clients
}

// Broadcast sends event to every subscriber of the chat. Broken connections are dropped.
func (h *Hub) Broadcast(chatID int, event models.ChatEvent) {
	clients := h.snapshot(chatID)
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("encode chat event")
		return
	}
	for _, c := range clients {
		if err := c.write(payload); err != nil {
			log.Warn().Err(err).Int("chat_id", chatID).Str("conn_id", c.info.ConnID).Msg("websocket write error")
			c.conn.Close()
			h.RemoveChatClient(chatID, c.conn)
			h.publishLifecycle(context.Background(), chatID, c.info, "ws_error", err.Error())
		}
	}
	observability.IncWSEvent(wsKind, event.Type)
}

func (h *Hub) publishLifecycle(ctx context.Context, chatID int, info ConnInfo, event, reason string) {
	observability.IncWSEvent(wsKind, event)
	if h.publisher == nil {
		return
	}
	_ = h.publisher.Publish(ctx, wsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		RequestID: info.RequestID,
		TraceID:   info.TraceID,
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        wsKind,
				"resource_id": chatID,
				"event":       event,
				"conn_id":     info.ConnID,
				"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
				"reason":      reason,
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	})
}
