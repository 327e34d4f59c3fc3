package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-core/internal/auth"
	"chat-core/internal/mocks"
)

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, auth.NewVerifier("s"), nil, false)

	rec := perform(r, http.MethodGet, "/debug/token?userId=1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugTokenIsVerifiable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	verifier := auth.NewVerifier("s")
	RegisterDebugRoutes(r, verifier, nil, true)

	rec := perform(r, http.MethodGet, "/debug/token?userId=7&email=a@b.c", "")
	require.Equal(t, http.StatusOK, rec.Code)

	id, err := verifier.Verify(decodeBody(t, rec)["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, 7, id.UserID)
	assert.Equal(t, "a@b.c", id.Email)

	requireError(t, perform(r, http.MethodGet, "/debug/token", ""), http.StatusBadRequest, "userId required")
	requireError(t, perform(r, http.MethodGet, "/debug/audit-test", ""), http.StatusServiceUnavailable, "audit emitter not configured")
}

func TestDebugAuditTest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auditor := new(mocks.AuditorMock)
	RegisterDebugRoutes(r, auth.NewVerifier("s"), auditor, true)
	auditor.On("Emit", mock.Anything, "INFO", "audit_test", "audit test", mock.Anything, (*int)(nil), map[string]any(nil)).Once()

	rec := perform(r, http.MethodGet, "/debug/audit-test", "")

	require.Equal(t, http.StatusOK, rec.Code)
	auditor.AssertExpectations(t)
}
