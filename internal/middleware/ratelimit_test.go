package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRateLimiterBurstThenReject(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	rl.now = fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	assert.True(t, rl.Allow("user:1"))
	assert.True(t, rl.Allow("user:1"))
	assert.False(t, rl.Allow("user:1"))
	assert.True(t, rl.Allow("user:2"))
}

func TestRateLimiterSweepDropsIdleBuckets(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = fixedClock(start)
	rl.Allow("user:1")

	rl.now = fixedClock(start.Add(time.Minute))
	rl.Allow("user:2")

	rl.now = fixedClock(start.Add(limiterIdleTTL + 30*time.Second))
	assert.Equal(t, 1, rl.Sweep())
	assert.Len(t, rl.entries, 1)
	assert.Contains(t, rl.entries, "user:2")
}

func TestRateLimitMiddlewareKeysByUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, 1)
	rl.now = fixedClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-User") == "a" {
			c.Set(UserIDKey, 1)
		} else {
			c.Set(UserIDKey, 2)
		}
		c.Next()
	}, RateLimit(rl))
	r.GET("/chats", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		req := httptest.NewRequest(http.MethodGet, "/chats", nil)
		req.Header.Set("X-User", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"))
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(nil))
	r.GET("/chats", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chats", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}
