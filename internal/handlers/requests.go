package handlers

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"chat-core/internal/models"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("mediatype", func(fl validator.FieldLevel) bool {
			return models.ValidMediaType(fl.Field().String())
		})
		_ = v.RegisterValidation("storytype", func(fl validator.FieldLevel) bool {
			return models.ValidStoryType(fl.Field().String())
		})
	}
}

// actionEnvelope is decoded first to pick the request type for a POST body.
type actionEnvelope struct {
	Action string `json:"action"`
}

type createChatRequest struct {
	OtherUserID int `json:"otherUserId" binding:"required"`
}

type sendMessageRequest struct {
	ChatID int    `json:"chatId" binding:"required"`
	Text   string `json:"text" binding:"required,max=1000"`
}

type editMessageRequest struct {
	MessageID int    `json:"messageId" binding:"required"`
	Text      string `json:"text" binding:"required,max=1000"`
}

type addReactionRequest struct {
	MessageID int    `json:"messageId" binding:"required"`
	Reaction  string `json:"reaction" binding:"required,max=32"`
}

type removeReactionRequest struct {
	ReactionID int `json:"reactionId" binding:"required"`
}

type deleteMessageRequest struct {
	MessageID int `json:"messageId" binding:"required"`
}

type uploadMediaRequest struct {
	MessageID     int    `json:"messageId" binding:"required"`
	MediaType     string `json:"mediaType" binding:"required,mediatype"`
	MediaURL      string `json:"mediaUrl" binding:"omitempty,url"`
	Data          string `json:"data"`
	ContentType   string `json:"contentType"`
	FileName      string `json:"fileName"`
	Duration      *int   `json:"duration" binding:"omitempty,min=0"`
	ThumbnailURL  string `json:"thumbnailUrl" binding:"omitempty,url"`
	ThumbnailData string `json:"thumbnailData"`
}

type setTypingRequest struct {
	ChatID   int   `json:"chatId" binding:"required"`
	IsTyping *bool `json:"isTyping" binding:"required"`
}

type initiateCallRequest struct {
	ReceiverID int    `json:"receiverId" binding:"required"`
	CallType   string `json:"callType" binding:"required,oneof=audio video"`
}

type endCallRequest struct {
	CallID string `json:"callId" binding:"required,uuid"`
}

type createStoryRequest struct {
	MediaURL        string `json:"mediaUrl" binding:"omitempty,url"`
	MediaData       string `json:"mediaData"`
	ContentType     string `json:"contentType"`
	FileName        string `json:"fileName"`
	MediaType       string `json:"mediaType" binding:"omitempty,storytype"`
	Caption         string `json:"caption" binding:"max=500"`
	BackgroundColor string `json:"backgroundColor" binding:"max=32"`
	FontStyle       string `json:"fontStyle" binding:"max=32"`
	Duration        int    `json:"duration" binding:"omitempty,min=1,max=60"`
	Mentions        []int  `json:"mentions" binding:"max=50"`
}

type storyRequest struct {
	StoryID int `json:"storyId" binding:"required"`
}

type reactStoryRequest struct {
	StoryID int    `json:"storyId" binding:"required"`
	Emoji   string `json:"emoji" binding:"required,max=32"`
}

func decodeAction(body []byte) (string, error) {
	var env actionEnvelope
	if len(body) == 0 {
		return "", nil
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return "", err
	}
	return env.Action, nil
}

// bindBody decodes and validates body into req. On failure it writes a 400 and returns false.
func bindBody(c *gin.Context, body []byte, req any) bool {
	err := binding.JSON.BindBody(body, req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		badRequest(c, fieldErrorMessage(req, verrs[0]))
		return false
	}
	badRequest(c, msgInvalidBody)
	return false
}

func fieldErrorMessage(req any, fe validator.FieldError) string {
	name := jsonFieldName(req, fe.StructField())
	switch fe.Tag() {
	case "required":
		return name + " required"
	case "max":
		return name + " is too long"
	default:
		return name + " is invalid"
	}
}

func jsonFieldName(req any, field string) string {
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(field); ok {
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
			return tag
		}
	}
	return field
}
