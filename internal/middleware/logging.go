package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chat-core/internal/observability"
)

// RequestIDKey holds the request id in the gin context.
const RequestIDKey = "request_id"

// RequestLogger tags each request with an id and writes one access log line.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := observability.RequestIDFromRequest(c.Request)
		c.Set(RequestIDKey, requestID)
		c.Header(observability.RequestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("action", c.Query("action")).
			Int("status", status).
			Int("user_id", c.GetInt(UserIDKey)).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
