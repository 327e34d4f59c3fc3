package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/storage"
)

var (
	errMediaTooLarge = errors.New("media too large")
	errMediaEncoding = errors.New("media data is not valid base64")
)

// decodeDataURL accepts raw base64 or a data: URL and returns the payload and its declared content type.
func decodeDataURL(data string, maxBytes int) ([]byte, string, error) {
	contentType := ""
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, "", errMediaEncoding
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		data = payload
	}

	if base64.StdEncoding.DecodedLen(len(data)) > maxBytes+2 {
		return nil, "", errMediaTooLarge
	}
	body, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", errMediaEncoding
	}
	if len(body) > maxBytes {
		return nil, "", errMediaTooLarge
	}
	return body, contentType, nil
}

func (h *ChatsHandler) storeBlob(c *gin.Context, prefix, data, contentType, fileName string) (string, bool) {
	return uploadBlob(c, h.store, h.mediaMaxBytes, prefix, data, contentType, fileName)
}

// uploadBlob stores base64 data under prefix. It writes the error response itself and reports success.
func uploadBlob(c *gin.Context, store storage.MediaStore, maxBytes int, prefix, data, contentType, fileName string) (string, bool) {
	body, declared, err := decodeDataURL(data, maxBytes)
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	if contentType == "" {
		contentType = declared
	}

	url, err := store.Put(c.Request.Context(), storage.Object{
		Prefix:      prefix,
		FileName:    fileName,
		ContentType: contentType,
		Body:        body,
	})
	if errors.Is(err, storage.ErrDisabled) {
		badRequest(c, err.Error())
		return "", false
	}
	if err != nil {
		storeFailure(c, "put_media", err)
		return "", false
	}
	return url, true
}

func (h *ChatsHandler) uploadMedia(c *gin.Context, userID int, body []byte) {
	var req uploadMediaRequest
	if !bindBody(c, body, &req) {
		return
	}
	if req.MediaURL == "" && req.Data == "" {
		badRequest(c, "mediaUrl required")
		return
	}

	msg, ok := h.loadMessage(c, req.MessageID)
	if !ok {
		return
	}
	if msg.SenderID != userID {
		forbidden(c)
		return
	}

	prefix := fmt.Sprintf("chats/%d/messages/%d", msg.ChatID, msg.ID)
	mediaURL := req.MediaURL
	if mediaURL == "" {
		if mediaURL, ok = h.storeBlob(c, prefix, req.Data, req.ContentType, req.FileName); !ok {
			return
		}
	}

	var thumbnail *string
	if req.MediaType == models.MediaVideo {
		thumbURL := req.ThumbnailURL
		if thumbURL == "" && req.ThumbnailData != "" {
			if thumbURL, ok = h.storeBlob(c, prefix+"/thumbnails", req.ThumbnailData, "", ""); !ok {
				return
			}
		}
		if thumbURL != "" {
			thumbnail = &thumbURL
		}
	}

	stored, err := h.media.Upsert(c.Request.Context(), models.MediaAttachment{
		MessageID:    msg.ID,
		Type:         req.MediaType,
		URL:          mediaURL,
		Duration:     req.Duration,
		ThumbnailURL: thumbnail,
	})
	if errors.Is(err, repositories.ErrMessageNotFound) {
		notFound(c, "message not found")
		return
	}
	if err != nil {
		storeFailure(c, "upsert_media", err)
		return
	}

	h.broadcast(msg.ChatID, models.ChatEvent{Type: "media_attached", MessageID: msg.ID})
	c.JSON(http.StatusOK, gin.H{
		"mediaUrl":     stored.URL,
		"thumbnailUrl": stored.ThumbnailURL,
		"messageId":    stored.MessageID,
	})
}
