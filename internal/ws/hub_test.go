package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-core/internal/auth"
	"chat-core/internal/models"
)

type membershipMock struct {
	mock.Mock
}

func (m *membershipMock) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func TestHubAddAndRemoveChatClient(t *testing.T) {
	hub := NewHub(nil)

	hub.AddChatClient(1, nil, ConnInfo{})
	assert.Equal(t, 1, hub.RoomSize(1))

	hub.RemoveChatClient(1, nil)
	assert.Equal(t, 0, hub.RoomSize(1))
	assert.Empty(t, hub.rooms)
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil)
	assert.NotPanics(t, func() {
		hub.Broadcast(42, models.ChatEvent{Type: "message_deleted", MessageID: 7})
	})
}

func setupWSServer(t *testing.T, hub *Hub, chats MembershipChecker, verifier *auth.Verifier) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/chats/:chat_id", NewChatWebSocketHandler(hub, chats, verifier).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestChatWebSocketReceivesBroadcast(t *testing.T) {
	hub := NewHub(nil)
	chats := new(membershipMock)
	verifier := auth.NewVerifier("secret")
	srv := setupWSServer(t, hub, chats, verifier)

	token, err := verifier.Issue(auth.Identity{UserID: 1}, time.Hour)
	require.NoError(t, err)
	chats.On("IsMember", mock.Anything, 5, 1).Return(true, nil).Once()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chats/5?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.RoomSize(5) == 1 }, time.Second, 10*time.Millisecond)

	hub.Broadcast(5, models.ChatEvent{Type: "message", Message: &models.Message{ID: 9, ChatID: 5, SenderID: 2, Text: "hi"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event models.ChatEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	assert.Equal(t, "message", event.Type)
	require.NotNil(t, event.Message)
	assert.Equal(t, "hi", event.Message.Text)
	chats.AssertExpectations(t)
}

func TestChatWebSocketRejectsBadToken(t *testing.T) {
	srv := setupWSServer(t, NewHub(nil), new(membershipMock), auth.NewVerifier("secret"))

	resp, err := http.Get(srv.URL + "/ws/chats/5?token=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatWebSocketRejectsNonMember(t *testing.T) {
	chats := new(membershipMock)
	verifier := auth.NewVerifier("secret")
	srv := setupWSServer(t, NewHub(nil), chats, verifier)

	token, err := verifier.Issue(auth.Identity{UserID: 3}, time.Hour)
	require.NoError(t, err)
	chats.On("IsMember", mock.Anything, 5, 3).Return(false, nil).Once()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ws/chats/5", nil)
	require.NoError(t, err)
	req.Header.Set("X-Auth-Token", token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	chats.AssertExpectations(t)
}
