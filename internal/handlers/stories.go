package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/storage"
	"chat-core/internal/telemetry"
)

// StoriesHandler serves the /stories action endpoint.
type StoriesHandler struct {
	stories       repositories.StoryRepository
	store         storage.MediaStore
	notifier      Notifier
	auditor       Auditor
	mediaMaxBytes int
	dispatch      dispatcher
}

// NewStoriesHandler builds a StoriesHandler. notifier and auditor may be nil.
func NewStoriesHandler(stories repositories.StoryRepository, store storage.MediaStore, notifier Notifier, auditor Auditor, mediaMaxBytes int) *StoriesHandler {
	h := &StoriesHandler{
		stories:       stories,
		store:         store,
		notifier:      notifier,
		auditor:       auditor,
		mediaMaxBytes: mediaMaxBytes,
	}
	h.dispatch = dispatcher{
		resource: "stories",
		get: map[string]action{
			"":         h.feed,
			"user":     h.userStories,
			"mentions": h.mentions,
			"viewers":  h.viewers,
		},
		post: map[string]action{
			"create_story": h.createStory,
			"view_story":   h.viewStory,
			"react_story":  h.reactStory,
			"delete_story": h.deleteStory,
		},
	}
	return h
}

// Handle dispatches a /stories request by method and action.
func (h *StoriesHandler) Handle(c *gin.Context) {
	h.dispatch.serve(c)
}

func (h *StoriesHandler) notify(c *gin.Context, kind string, recipientID, actorID int, data map[string]any) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Notify(c.Request.Context(), kind, recipientID, actorID, data); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("story notification dropped")
	}
}

// loadStory writes 404 or 500 and returns false when the item is not visible.
func (h *StoriesHandler) loadStory(c *gin.Context, storyID int) (models.StoryItem, bool) {
	item, err := h.stories.Get(c.Request.Context(), storyID)
	if errors.Is(err, repositories.ErrStoryNotFound) {
		notFound(c, "story not found")
		return models.StoryItem{}, false
	}
	if err != nil {
		storeFailure(c, "get_story", err)
		return models.StoryItem{}, false
	}
	return item, true
}

func (h *StoriesHandler) feed(c *gin.Context, userID int, _ []byte) {
	items, err := h.stories.Feed(c.Request.Context(), userID)
	if err != nil {
		storeFailure(c, "story_feed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": models.GroupStories(items)})
}

func (h *StoriesHandler) userStories(c *gin.Context, userID int, _ []byte) {
	authorID, ok := queryID(c, "userId")
	if !ok {
		return
	}
	items, err := h.stories.ForUser(c.Request.Context(), authorID, userID)
	if err != nil {
		storeFailure(c, "user_stories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *StoriesHandler) mentions(c *gin.Context, userID int, _ []byte) {
	items, err := h.stories.Mentions(c.Request.Context(), userID)
	if err != nil {
		storeFailure(c, "story_mentions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *StoriesHandler) viewers(c *gin.Context, userID int, _ []byte) {
	storyID, ok := queryID(c, "storyId")
	if !ok {
		return
	}
	item, ok := h.loadStory(c, storyID)
	if !ok {
		return
	}
	if item.UserID != userID {
		forbidden(c)
		return
	}

	viewers, err := h.stories.Viewers(c.Request.Context(), storyID)
	if err != nil {
		storeFailure(c, "story_viewers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"viewers": viewers})
}

func (h *StoriesHandler) createStory(c *gin.Context, userID int, body []byte) {
	var req createStoryRequest
	if !bindBody(c, body, &req) {
		return
	}

	item := models.StoryItem{
		UserID:          userID,
		MediaURL:        req.MediaURL,
		MediaType:       req.MediaType,
		Caption:         strings.TrimSpace(req.Caption),
		BackgroundColor: req.BackgroundColor,
		FontStyle:       req.FontStyle,
		Duration:        req.Duration,
	}
	if item.MediaType == "" {
		item.MediaType = models.StoryImage
	}
	if item.Duration == 0 {
		item.Duration = models.DefaultStoryDuration
	}

	if item.MediaURL == "" && req.MediaData != "" {
		url, ok := h.storeBlob(c, fmt.Sprintf("stories/%d", userID), req.MediaData, req.ContentType, req.FileName)
		if !ok {
			return
		}
		item.MediaURL = url
	}
	switch {
	case item.MediaType == models.StoryText && item.Caption == "":
		badRequest(c, "caption required")
		return
	case item.MediaType != models.StoryText && item.MediaURL == "":
		badRequest(c, "mediaUrl required")
		return
	}

	stored, mentioned, err := h.stories.Create(c.Request.Context(), item, req.Mentions)
	if err != nil {
		storeFailure(c, "create_story", err)
		return
	}
	for _, id := range mentioned {
		h.notify(c, telemetry.NotificationStoryMention, id, userID, map[string]any{"story_id": stored.ID})
	}
	c.JSON(http.StatusOK, gin.H{"story": stored})
}

func (h *StoriesHandler) viewStory(c *gin.Context, userID int, body []byte) {
	var req storyRequest
	if !bindBody(c, body, &req) {
		return
	}
	item, ok := h.loadStory(c, req.StoryID)
	if !ok {
		return
	}
	if item.UserID == userID {
		c.JSON(http.StatusOK, gin.H{"success": true, "counted": false})
		return
	}

	counted, err := h.stories.MarkViewed(c.Request.Context(), req.StoryID, userID)
	if err != nil {
		storeFailure(c, "view_story", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "counted": counted})
}

func (h *StoriesHandler) reactStory(c *gin.Context, userID int, body []byte) {
	var req reactStoryRequest
	if !bindBody(c, body, &req) {
		return
	}
	item, ok := h.loadStory(c, req.StoryID)
	if !ok {
		return
	}

	if err := h.stories.React(c.Request.Context(), req.StoryID, userID, req.Emoji); err != nil {
		storeFailure(c, "react_story", err)
		return
	}
	if item.UserID != userID {
		h.notify(c, telemetry.NotificationStoryReaction, item.UserID, userID, map[string]any{
			"story_id": item.ID,
			"emoji":    req.Emoji,
		})
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *StoriesHandler) deleteStory(c *gin.Context, userID int, body []byte) {
	var req storyRequest
	if !bindBody(c, body, &req) {
		return
	}
	item, ok := h.loadStory(c, req.StoryID)
	if !ok {
		return
	}
	if item.UserID != userID {
		forbidden(c)
		return
	}

	err := h.stories.Delete(c.Request.Context(), req.StoryID, userID)
	if errors.Is(err, repositories.ErrStoryNotFound) {
		notFound(c, "story not found")
		return
	}
	if err != nil {
		storeFailure(c, "delete_story", err)
		return
	}

	emitAudit(c, h.auditor, "story_delete", "story removed", map[string]any{"story_id": req.StoryID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// storeBlob uploads base64 story media. It writes the error response itself and reports success.
func (h *StoriesHandler) storeBlob(c *gin.Context, prefix, data, contentType, fileName string) (string, bool) {
	return uploadBlob(c, h.store, h.mediaMaxBytes, prefix, data, contentType, fileName)
}
