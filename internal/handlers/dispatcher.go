package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-core/internal/observability"
)

// action serves one declared action. body is the raw POST body, nil for GET.
type action func(c *gin.Context, userID int, body []byte)

// dispatcher routes a single endpoint by method and declared action.
type dispatcher struct {
	resource string
	get      map[string]action
	post     map[string]action
}

func (d dispatcher) serve(c *gin.Context) {
	var (
		name string
		fn   action
		body []byte
	)

	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusOK)
		return
	case http.MethodGet:
		name = c.Query("action")
		fn = d.get[name]
	case http.MethodPost:
		raw, err := c.GetRawData()
		if err != nil {
			badRequest(c, msgInvalidBody)
			return
		}
		if name, err = decodeAction(raw); err != nil {
			badRequest(c, msgInvalidBody)
			return
		}
		if name == "" {
			name = c.Query("action")
		}
		fn = d.post[name]
		body = raw
	}

	if fn == nil {
		methodNotAllowed(c)
		observability.ObserveAction(d.resource, "unknown", http.StatusMethodNotAllowed)
		return
	}

	fn(c, c.GetInt(userIDKey), body)
	observability.ObserveAction(d.resource, name, c.Writer.Status())
}
