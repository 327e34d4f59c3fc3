package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"chat-core/internal/auth"
)

const debugTokenTTL = time.Hour

// TokenIssuer signs tokens for local testing.
type TokenIssuer interface {
	Issue(id auth.Identity, ttl time.Duration) (string, error)
}

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, issuer TokenIssuer, auditor Auditor, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/token", func(c *gin.Context) {
		userID, err := strconv.Atoi(c.Query("userId"))
		if err != nil || userID <= 0 {
			badRequest(c, "userId required")
			return
		}
		token, err := issuer.Issue(auth.Identity{UserID: userID, Email: c.Query("email")}, debugTokenTTL)
		if err != nil {
			storeFailure(c, "issue_token", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(debugTokenTTL.Seconds())})
	})

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if auditor == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitAudit(c, auditor, "audit_test", "audit test", nil)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
