package ws

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chat-core/internal/auth"
	"chat-core/internal/observability"
)

// MembershipChecker reports whether a user belongs to a chat.
type MembershipChecker interface {
	IsMember(ctx context.Context, chatID int, userID int) (bool, error)
}

// TokenVerifier validates an auth token.
type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// ChatWebSocketHandler handles chat websocket subscriptions.
type ChatWebSocketHandler struct {
	hub      *Hub
	chats    MembershipChecker
	verifier TokenVerifier
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, chats MembershipChecker, verifier TokenVerifier) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, chats: chats, verifier: verifier}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates, checks membership, upgrades and registers the client.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	ctx, span := otel.Tracer("chat-core/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	span.SetAttributes(attribute.Int("chat.id", chatID))

	token := c.GetHeader("X-Auth-Token")
	if token == "" {
		token = c.Query("token")
	}
	id, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	member, err := h.chats.IsMember(ctx, chatID, id.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      id.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     trace.SpanContextFromContext(ctx).TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddChatClient(chatID, conn, info)
	observability.IncWSActive(wsKind)
	h.hub.publishLifecycle(ctx, chatID, info, "ws_connect", "")

	// Clients only listen; reads exist to notice disconnects.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveChatClient(chatID, conn)
			observability.DecWSActive(wsKind)
			h.hub.publishLifecycle(context.Background(), chatID, info, "ws_disconnect", closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.hub.publishLifecycle(context.Background(), chatID, info, "ws_error", closeReason)
				}
				return
			}
		}
	}()
}
