package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-core/internal/auth"
)

const (
	TokenHeader  = "X-Auth-Token"
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	unauthorized = "Unauthorized"
)

// TokenVerifier turns a raw token into an identity.
type TokenVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// AuthMiddleware validates the X-Auth-Token header. Preflight requests pass through.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		id, err := verifier.Verify(c.GetHeader(TokenHeader))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": unauthorized})
			return
		}

		c.Set(UserIDKey, id.UserID)
		c.Set(UserEmailKey, id.Email)
		c.Next()
	}
}
