package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/telemetry"
)

func (h *ChatsHandler) initiateCall(c *gin.Context, userID int, body []byte) {
	var req initiateCallRequest
	if !bindBody(c, body, &req) {
		return
	}
	if req.ReceiverID == userID {
		badRequest(c, "cannot call yourself")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.Get(ctx, req.ReceiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			notFound(c, "user not found")
			return
		}
		storeFailure(c, "get_user", err)
		return
	}

	call, err := h.calls.Create(ctx, models.Call{
		ID:         uuid.NewString(),
		CallerID:   userID,
		ReceiverID: req.ReceiverID,
		CallType:   req.CallType,
		Status:     models.CallInitiated,
	})
	if err != nil {
		storeFailure(c, "create_call", err)
		return
	}

	if h.notifier != nil {
		data := map[string]any{"call_id": call.ID, "call_type": call.CallType}
		if err := h.notifier.Notify(ctx, telemetry.NotificationCallIncoming, call.ReceiverID, userID, data); err != nil {
			log.Warn().Err(err).Str("call_id", call.ID).Msg("incoming call notification dropped")
		}
	}
	h.audit(c, "call_initiate", "call initiated", map[string]any{"call_id": call.ID, "receiver_id": call.ReceiverID})
	c.JSON(http.StatusOK, gin.H{"callId": call.ID, "status": models.CallInitiated})
}

func (h *ChatsHandler) endCall(c *gin.Context, userID int, body []byte) {
	var req endCallRequest
	if !bindBody(c, body, &req) {
		return
	}

	ctx := c.Request.Context()
	call, err := h.calls.Get(ctx, req.CallID)
	if errors.Is(err, repositories.ErrCallNotFound) {
		notFound(c, "call not found")
		return
	}
	if err != nil {
		storeFailure(c, "get_call", err)
		return
	}
	if call.CallerID != userID && call.ReceiverID != userID {
		forbidden(c)
		return
	}

	if call.Status != models.CallEnded {
		if _, err := h.calls.End(ctx, call.ID); err != nil {
			storeFailure(c, "end_call", err)
			return
		}
		h.audit(c, "call_end", "call ended", map[string]any{"call_id": call.ID})
	}
	c.JSON(http.StatusOK, gin.H{"status": "call_ended"})
}
