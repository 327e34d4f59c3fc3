package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	msgUnauthorized     = "Unauthorized"
	msgForbidden        = "Forbidden"
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "Internal server error"
	msgInvalidBody      = "Invalid JSON body"
)

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, http.StatusBadRequest, msg)
}

func forbidden(c *gin.Context) {
	respondError(c, http.StatusForbidden, msgForbidden)
}

func notFound(c *gin.Context, msg string) {
	respondError(c, http.StatusNotFound, msg)
}

func methodNotAllowed(c *gin.Context) {
	respondError(c, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// storeFailure logs err and answers with the generic 500 body.
func storeFailure(c *gin.Context, op string, err error) {
	log.Error().Err(err).
		Str("op", op).
		Str("request_id", requestIDFromContext(c)).
		Int("user_id", c.GetInt(userIDKey)).
		Msg("store operation failed")
	respondError(c, http.StatusInternalServerError, msgInternal)
}
