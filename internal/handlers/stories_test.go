package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-core/internal/mocks"
	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/storage"
	"chat-core/internal/telemetry"
)

type storyFixture struct {
	stories  *mocks.StoryRepositoryMock
	store    *mocks.MediaStoreMock
	notifier *mocks.NotifierMock
	auditor  *mocks.AuditorMock
	router   *gin.Engine
}

func newStoryFixture(t *testing.T) *storyFixture {
	t.Helper()
	f := &storyFixture{
		stories:  new(mocks.StoryRepositoryMock),
		store:    new(mocks.MediaStoreMock),
		notifier: new(mocks.NotifierMock),
		auditor:  new(mocks.AuditorMock),
	}
	handler := NewStoriesHandler(f.stories, f.store, f.notifier, f.auditor, 1024)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDKey, 1)
		c.Next()
	})
	r.Any("/stories", handler.Handle)
	f.router = r

	t.Cleanup(func() {
		f.stories.AssertExpectations(t)
		f.store.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
		f.auditor.AssertExpectations(t)
	})
	return f
}

func TestStoryFeedGroupsByAuthor(t *testing.T) {
	f := newStoryFixture(t)
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	f.stories.On("Feed", mock.Anything, 1).Return([]models.StoryItem{
		{ID: 1, UserID: 2, Username: "ann", CreatedAt: base, IsViewed: true},
		{ID: 2, UserID: 3, Username: "bob", CreatedAt: base.Add(time.Minute)},
	}, nil).Once()

	rec := perform(f.router, http.MethodGet, "/stories", "")

	require.Equal(t, http.StatusOK, rec.Code)
	groups := decodeBody(t, rec)["stories"].([]any)
	require.Len(t, groups, 2)
	assert.Equal(t, "bob", groups[0].(map[string]any)["username"])
	assert.Equal(t, true, groups[0].(map[string]any)["has_unviewed"])
}

func TestUserStoriesRequiresUserID(t *testing.T) {
	f := newStoryFixture(t)

	requireError(t, perform(f.router, http.MethodGet, "/stories?action=user", ""), http.StatusBadRequest, "userId required")
}

func TestUserStoriesAndMentions(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("ForUser", mock.Anything, 4, 1).Return([]models.StoryItem{{ID: 9, UserID: 4}}, nil).Once()
	f.stories.On("Mentions", mock.Anything, 1).Return([]models.StoryItem{}, nil).Once()

	rec := perform(f.router, http.MethodGet, "/stories?action=user&userId=4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["items"], 1)

	rec = perform(f.router, http.MethodGet, "/stories?action=mentions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["items"])
}

func TestViewersOnlyForOwner(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("Get", mock.Anything, 9).Return(models.StoryItem{ID: 9, UserID: 4}, nil).Once()
	f.stories.On("Get", mock.Anything, 10).Return(models.StoryItem{ID: 10, UserID: 1}, nil).Once()
	f.stories.On("Viewers", mock.Anything, 10).Return([]models.StoryViewer{{UserID: 2, Username: "ann"}}, nil).Once()

	requireError(t, perform(f.router, http.MethodGet, "/stories?action=viewers&storyId=9", ""), http.StatusForbidden, "Forbidden")

	rec := perform(f.router, http.MethodGet, "/stories?action=viewers&storyId=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["viewers"], 1)
}

func TestCreateStoryAppliesDefaultsAndNotifiesMentions(t *testing.T) {
	f := newStoryFixture(t)
	expected := models.StoryItem{UserID: 1, MediaURL: "https://cdn.test/s.jpg", MediaType: models.StoryImage, Duration: models.DefaultStoryDuration}
	f.stories.On("Create", mock.Anything, expected, []int{2, 3}).
		Return(models.StoryItem{ID: 11, UserID: 1}, []int{2}, nil).Once()
	f.notifier.On("Notify", mock.Anything, telemetry.NotificationStoryMention, 2, 1, map[string]any{"story_id": 11}).Return(nil).Once()

	rec := perform(f.router, http.MethodPost, "/stories", `{"action":"create_story","mediaUrl":"https://cdn.test/s.jpg","mentions":[2,3]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(11), decodeBody(t, rec)["story"].(map[string]any)["id"])
}

func TestCreateStoryUploadsData(t *testing.T) {
	f := newStoryFixture(t)
	f.store.On("Put", mock.Anything, storage.Object{Prefix: "stories/1", ContentType: "image/png", Body: []byte("png")}).
		Return("https://s3.test/p.png", nil).Once()
	f.stories.On("Create", mock.Anything, mock.MatchedBy(func(item models.StoryItem) bool {
		return item.MediaURL == "https://s3.test/p.png"
	}), []int(nil)).Return(models.StoryItem{ID: 12}, []int{}, nil).Once()

	rec := perform(f.router, http.MethodPost, "/stories", `{"action":"create_story","mediaData":"data:image/png;base64,cG5n"}`)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateStoryValidation(t *testing.T) {
	f := newStoryFixture(t)

	requireError(t, perform(f.router, http.MethodPost, "/stories", `{"action":"create_story"}`), http.StatusBadRequest, "mediaUrl required")
	requireError(t, perform(f.router, http.MethodPost, "/stories", `{"action":"create_story","mediaType":"text"}`), http.StatusBadRequest, "caption required")
	requireError(t, perform(f.router, http.MethodPost, "/stories", `{"action":"create_story","mediaType":"audio"}`), http.StatusBadRequest, "mediaType is invalid")
}

func TestViewStoryCountsOnce(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("Get", mock.Anything, 9).Return(models.StoryItem{ID: 9, UserID: 4}, nil).Twice()
	f.stories.On("MarkViewed", mock.Anything, 9, 1).Return(true, nil).Once()
	f.stories.On("MarkViewed", mock.Anything, 9, 1).Return(false, nil).Once()

	rec := perform(f.router, http.MethodPost, "/stories", `{"action":"view_story","storyId":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["counted"])

	rec = perform(f.router, http.MethodPost, "/stories", `{"action":"view_story","storyId":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["counted"])
}

func TestViewOwnStoryIgnored(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("Get", mock.Anything, 9).Return(models.StoryItem{ID: 9, UserID: 1}, nil).Once()

	rec := perform(f.router, http.MethodPost, "/stories", `{"action":"view_story","storyId":9}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["counted"])
	f.stories.AssertNotCalled(t, "MarkViewed", mock.Anything, mock.Anything, mock.Anything)
}

func TestViewExpiredStory(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("Get", mock.Anything, 9).Return(nil, repositories.ErrStoryNotFound).Once()

	requireError(t, perform(f.router, http.MethodPost, "/stories", `{"action":"view_story","storyId":9}`), http.StatusNotFound, "story not found")
}

func TestReactStoryNotificationFailureIsIgnored(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("Get", mock.Anything, 9).Return(models.StoryItem{ID: 9, UserID: 4}, nil).Once()
	f.stories.On("React", mock.Anything, 9, 1, "🔥").Return(nil).Once()
	f.notifier.On("Notify", mock.Anything, telemetry.NotificationStoryReaction, 4, 1, mock.Anything).Return(assert.AnError).Once()

	rec := perform(f.router, http.MethodPost, "/stories", `{"action":"react_story","storyId":9,"emoji":"🔥"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
}

func TestDeleteStoryOwnerOnly(t *testing.T) {
	f := newStoryFixture(t)
	f.stories.On("Get", mock.Anything, 9).Return(models.StoryItem{ID: 9, UserID: 4}, nil).Once()
	f.stories.On("Get", mock.Anything, 10).Return(models.StoryItem{ID: 10, UserID: 1}, nil).Once()
	f.stories.On("Delete", mock.Anything, 10, 1).Return(nil).Once()
	f.auditor.On("Emit", mock.Anything, "INFO", "story_delete", mock.Anything, mock.Anything, mock.Anything, map[string]any{"story_id": 10}).Once()

	requireError(t, perform(f.router, http.MethodPost, "/stories", `{"action":"delete_story","storyId":9}`), http.StatusForbidden, "Forbidden")

	rec := perform(f.router, http.MethodPost, "/stories", `{"action":"delete_story","storyId":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
}
