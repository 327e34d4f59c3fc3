package handlers

import (
	"github.com/gin-gonic/gin"

	"chat-core/internal/middleware"
	"chat-core/internal/observability"
)

const (
	requestIDContextKey = middleware.RequestIDKey
	userIDKey           = middleware.UserIDKey
)

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := observability.RequestIDFromRequest(c.Request)
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int {
	if userID := c.GetInt(userIDKey); userID != 0 {
		return &userID
	}
	return nil
}

func emitAudit(c *gin.Context, auditor Auditor, action, text string, fields map[string]any) {
	if auditor == nil {
		return
	}
	auditor.Emit(c.Request.Context(), "INFO", action, text, requestIDFromContext(c), userIDFromContext(c), fields)
}

func (h *ChatsHandler) audit(c *gin.Context, action, text string, fields map[string]any) {
	emitAudit(c, h.auditor, action, text, fields)
}
