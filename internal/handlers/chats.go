package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chat-core/internal/models"
	"chat-core/internal/repositories"
	"chat-core/internal/storage"
	"chat-core/internal/typing"
)

// Broadcaster pushes chat events to live subscribers.
type Broadcaster interface {
	Broadcast(chatID int, event models.ChatEvent)
}

// Notifier delivers best-effort user notifications.
type Notifier interface {
	Notify(ctx context.Context, kind string, recipientID, actorID int, data map[string]any) error
}

// Auditor records security-relevant actions.
type Auditor interface {
	Emit(ctx context.Context, level, action, text, requestID string, userID *int, fields map[string]any)
}

// ChatDeps wires the collaborators of ChatsHandler. Hub, Notifier and Auditor may be nil.
type ChatDeps struct {
	Users     repositories.UserRepository
	Chats     repositories.ChatRepository
	Messages  repositories.MessageRepository
	Reactions repositories.ReactionRepository
	Media     repositories.MediaRepository
	Calls     repositories.CallRepository
	Typing    typing.Tracker
	Store     storage.MediaStore
	Hub       Broadcaster
	Notifier  Notifier
	Auditor   Auditor

	OnlineWindow  time.Duration
	MediaMaxBytes int
}

// ChatsHandler serves the /chats action endpoint.
type ChatsHandler struct {
	users     repositories.UserRepository
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	reactions repositories.ReactionRepository
	media     repositories.MediaRepository
	calls     repositories.CallRepository
	typing    typing.Tracker
	store     storage.MediaStore
	hub       Broadcaster
	notifier  Notifier
	auditor   Auditor

	onlineWindow  time.Duration
	mediaMaxBytes int
	now           func() time.Time
	dispatch      dispatcher
}

// NewChatsHandler builds a ChatsHandler.
func NewChatsHandler(deps ChatDeps) *ChatsHandler {
	h := &ChatsHandler{
		users:         deps.Users,
		chats:         deps.Chats,
		messages:      deps.Messages,
		reactions:     deps.Reactions,
		media:         deps.Media,
		calls:         deps.Calls,
		typing:        deps.Typing,
		store:         deps.Store,
		hub:           deps.Hub,
		notifier:      deps.Notifier,
		auditor:       deps.Auditor,
		onlineWindow:  deps.OnlineWindow,
		mediaMaxBytes: deps.MediaMaxBytes,
		now:           time.Now,
	}
	h.dispatch = dispatcher{
		resource: "chats",
		get: map[string]action{
			"":         h.listChats,
			"users":    h.searchUsers,
			"contacts": h.listContacts,
			"messages": h.listMessages,
			"typing":   h.getTyping,
		},
		post: map[string]action{
			"create_chat":     h.createChat,
			"send_message":    h.sendMessage,
			"edit_message":    h.editMessage,
			"add_reaction":    h.addReaction,
			"remove_reaction": h.removeReaction,
			"delete_message":  h.deleteMessage,
			"upload_media":    h.uploadMedia,
			"set_typing":      h.setTyping,
			"initiate_call":   h.initiateCall,
			"end_call":        h.endCall,
		},
	}
	return h
}

// Handle dispatches a /chats request by method and action.
func (h *ChatsHandler) Handle(c *gin.Context) {
	h.dispatch.serve(c)
}

func (h *ChatsHandler) broadcast(chatID int, event models.ChatEvent) {
	if h.hub != nil {
		h.hub.Broadcast(chatID, event)
	}
}

// requireMember writes 403 or 500 and returns false unless userID belongs to chatID.
func (h *ChatsHandler) requireMember(c *gin.Context, chatID, userID int) bool {
	member, err := h.chats.IsMember(c.Request.Context(), chatID, userID)
	if err != nil {
		storeFailure(c, "is_member", err)
		return false
	}
	if !member {
		forbidden(c)
		return false
	}
	return true
}

// loadMessage writes 404 or 500 and returns false when the message cannot be read.
func (h *ChatsHandler) loadMessage(c *gin.Context, messageID int) (models.Message, bool) {
	msg, err := h.messages.Get(c.Request.Context(), messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		notFound(c, "message not found")
		return models.Message{}, false
	}
	if err != nil {
		storeFailure(c, "get_message", err)
		return models.Message{}, false
	}
	return msg, true
}

func queryID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Query(name))
	if err != nil || id <= 0 {
		badRequest(c, name+" required")
		return 0, false
	}
	return id, true
}

func (h *ChatsHandler) listChats(c *gin.Context, userID int, _ []byte) {
	chats, err := h.chats.ListForUser(c.Request.Context(), userID)
	if err != nil {
		storeFailure(c, "list_chats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (h *ChatsHandler) searchUsers(c *gin.Context, userID int, _ []byte) {
	users, err := h.users.Search(c.Request.Context(), userID, strings.TrimSpace(c.Query("search")))
	if err != nil {
		storeFailure(c, "search_users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *ChatsHandler) listContacts(c *gin.Context, userID int, _ []byte) {
	users, err := h.users.Contacts(c.Request.Context(), userID)
	if err != nil {
		storeFailure(c, "list_contacts", err)
		return
	}

	now := h.now()
	contacts := make([]models.Contact, 0, len(users))
	for _, u := range users {
		contacts = append(contacts, models.Contact{User: u, Online: models.IsOnline(u.LastSeen, now, h.onlineWindow)})
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

func (h *ChatsHandler) listMessages(c *gin.Context, userID int, _ []byte) {
	chatID, ok := queryID(c, "chatId")
	if !ok || !h.requireMember(c, chatID, userID) {
		return
	}

	msgs, err := h.messages.ListForChat(c.Request.Context(), chatID)
	if err != nil {
		storeFailure(c, "list_messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *ChatsHandler) createChat(c *gin.Context, userID int, body []byte) {
	var req createChatRequest
	if !bindBody(c, body, &req) {
		return
	}
	if req.OtherUserID == userID {
		badRequest(c, "cannot create chat with yourself")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.Get(ctx, req.OtherUserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			notFound(c, "user not found")
			return
		}
		storeFailure(c, "get_user", err)
		return
	}

	chatID, err := h.chats.CreateDirect(ctx, userID, req.OtherUserID)
	if errors.Is(err, repositories.ErrSelfChat) {
		badRequest(c, "cannot create chat with yourself")
		return
	}
	if err != nil {
		storeFailure(c, "create_chat", err)
		return
	}

	h.audit(c, "chat_create", "direct chat opened", map[string]any{"chat_id": chatID, "other_user_id": req.OtherUserID})
	c.JSON(http.StatusOK, gin.H{"chatId": chatID})
}

func (h *ChatsHandler) sendMessage(c *gin.Context, userID int, body []byte) {
	var req sendMessageRequest
	if !bindBody(c, body, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		badRequest(c, "text required")
		return
	}
	if !h.requireMember(c, req.ChatID, userID) {
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), req.ChatID, userID, text)
	if err != nil {
		storeFailure(c, "send_message", err)
		return
	}

	h.broadcast(msg.ChatID, models.ChatEvent{Type: "message", Message: &msg})
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *ChatsHandler) editMessage(c *gin.Context, userID int, body []byte) {
	var req editMessageRequest
	if !bindBody(c, body, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		badRequest(c, "text required")
		return
	}

	current, ok := h.loadMessage(c, req.MessageID)
	if !ok {
		return
	}
	if current.SenderID != userID {
		forbidden(c)
		return
	}

	msg, err := h.messages.Edit(c.Request.Context(), req.MessageID, userID, text)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		notFound(c, "message not found")
		return
	}
	if err != nil {
		storeFailure(c, "edit_message", err)
		return
	}

	h.broadcast(msg.ChatID, models.ChatEvent{Type: "message_edited", Message: &msg})
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (h *ChatsHandler) addReaction(c *gin.Context, userID int, body []byte) {
	var req addReactionRequest
	if !bindBody(c, body, &req) {
		return
	}

	msg, ok := h.loadMessage(c, req.MessageID)
	if !ok || !h.requireMember(c, msg.ChatID, userID) {
		return
	}

	if err := h.reactions.Add(c.Request.Context(), req.MessageID, userID, req.Reaction); err != nil {
		storeFailure(c, "add_reaction", err)
		return
	}

	h.broadcast(msg.ChatID, models.ChatEvent{Type: "reaction_added", MessageID: msg.ID, UserID: userID, Reaction: req.Reaction})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatsHandler) removeReaction(c *gin.Context, userID int, body []byte) {
	var req removeReactionRequest
	if !bindBody(c, body, &req) {
		return
	}

	ctx := c.Request.Context()
	messageID, err := h.reactions.Remove(ctx, req.ReactionID, userID)
	if err != nil {
		storeFailure(c, "remove_reaction", err)
		return
	}

	if messageID != 0 {
		if msg, err := h.messages.Get(ctx, messageID); err == nil {
			h.broadcast(msg.ChatID, models.ChatEvent{Type: "reaction_removed", MessageID: messageID, UserID: userID})
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ChatsHandler) deleteMessage(c *gin.Context, userID int, body []byte) {
	var req deleteMessageRequest
	if !bindBody(c, body, &req) {
		return
	}

	chatID, removed, err := h.messages.SoftDelete(c.Request.Context(), req.MessageID, userID)
	switch {
	case errors.Is(err, repositories.ErrMessageNotFound):
		notFound(c, "message not found")
		return
	case errors.Is(err, repositories.ErrNotSender):
		forbidden(c)
		return
	case err != nil:
		storeFailure(c, "delete_message", err)
		return
	}

	if removed {
		h.audit(c, "message_delete", "message removed", map[string]any{"chat_id": chatID, "message_id": req.MessageID})
		h.broadcast(chatID, models.ChatEvent{Type: "message_deleted", MessageID: req.MessageID})
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// getTyping reports one typing member other than the requester. With several
// typists the lowest user id wins, not the most recent; direct chats have one.
func (h *ChatsHandler) getTyping(c *gin.Context, userID int, _ []byte) {
	chatID, ok := queryID(c, "chatId")
	if !ok || !h.requireMember(c, chatID, userID) {
		return
	}

	ctx := c.Request.Context()
	members, err := h.chats.MemberIDs(ctx, chatID)
	if err != nil {
		storeFailure(c, "member_ids", err)
		return
	}
	others := make([]int, 0, len(members))
	for _, id := range members {
		if id != userID {
			others = append(others, id)
		}
	}

	typingIDs, err := h.typing.TypingUsers(ctx, chatID, others)
	if err != nil {
		storeFailure(c, "typing_users", err)
		return
	}
	if len(typingIDs) == 0 {
		c.JSON(http.StatusOK, gin.H{"isTyping": false, "userId": nil, "username": nil})
		return
	}

	user, err := h.users.Get(ctx, typingIDs[0])
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		storeFailure(c, "get_user", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isTyping": true, "userId": typingIDs[0], "username": user.Username})
}

func (h *ChatsHandler) setTyping(c *gin.Context, userID int, body []byte) {
	var req setTypingRequest
	if !bindBody(c, body, &req) {
		return
	}
	if !h.requireMember(c, req.ChatID, userID) {
		return
	}

	if err := h.typing.SetTyping(c.Request.Context(), req.ChatID, userID, *req.IsTyping); err != nil {
		storeFailure(c, "set_typing", err)
		return
	}

	h.broadcast(req.ChatID, models.ChatEvent{Type: "typing", UserID: userID, IsTyping: req.IsTyping})
	c.JSON(http.StatusOK, gin.H{"success": true})
}
