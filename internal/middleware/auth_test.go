package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-core/internal/auth"
)

func setupRouter(verifier TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(verifier))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetInt(UserIDKey)})
	}
	r.GET("/chats", handler)
	r.OPTIONS("/chats", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	verifier := auth.NewVerifier("secret")
	token, err := verifier.Issue(auth.Identity{UserID: 4, Email: "x@y.z"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	req.Header.Set(TokenHeader, token)
	rec := httptest.NewRecorder()
	setupRouter(verifier).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":4}`, rec.Body.String())
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	setupRouter(auth.NewVerifier("secret")).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestAuthMiddlewareRejectsBearerScheme(t *testing.T) {
	verifier := auth.NewVerifier("secret")
	token, err := verifier.Issue(auth.Identity{UserID: 4}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	setupRouter(verifier).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareSkipsPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/chats", nil)
	rec := httptest.NewRecorder()
	setupRouter(auth.NewVerifier("secret")).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
