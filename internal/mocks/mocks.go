package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-core/internal/models"
	"chat-core/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Get(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) Search(ctx context.Context, requesterID int, term string) ([]models.User, error) {
	args := m.Called(ctx, requesterID, term)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) Contacts(ctx context.Context, requesterID int) ([]models.User, error) {
	args := m.Called(ctx, requesterID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateDirect(ctx context.Context, userID int, otherUserID int) (int, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Int(0), args.Error(1)
}

func (m *ChatRepositoryMock) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) MemberIDs(ctx context.Context, chatID int) ([]int, error) {
	args := m.Called(ctx, chatID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ChatRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, chatID int, senderID int, text string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForChat(ctx context.Context, chatID int) ([]models.MessageView, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.MessageView
	if val := args.Get(0); val != nil {
		msgs = val.([]models.MessageView)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Edit(ctx context.Context, messageID int, senderID int, text string) (models.Message, error) {
	args := m.Called(ctx, messageID, senderID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID int, removedBy int) (chatID int, removed bool, err error) {
	args := m.Called(ctx, messageID, removedBy)
	return args.Int(0), args.Bool(1), args.Error(2)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) Add(ctx context.Context, messageID int, userID int, reaction string) error {
	args := m.Called(ctx, messageID, userID, reaction)
	return args.Error(0)
}

func (m *ReactionRepositoryMock) Remove(ctx context.Context, reactionID int, userID int) (int, error) {
	args := m.Called(ctx, reactionID, userID)
	return args.Int(0), args.Error(1)
}

type MediaRepositoryMock struct {
	mock.Mock
}

func (m *MediaRepositoryMock) Upsert(ctx context.Context, media models.MediaAttachment) (models.MediaAttachment, error) {
	args := m.Called(ctx, media)
	var stored models.MediaAttachment
	if val := args.Get(0); val != nil {
		stored = val.(models.MediaAttachment)
	}
	return stored, args.Error(1)
}

type CallRepositoryMock struct {
	mock.Mock
}

func (m *CallRepositoryMock) Create(ctx context.Context, call models.Call) (models.Call, error) {
	args := m.Called(ctx, call)
	var stored models.Call
	if val := args.Get(0); val != nil {
		stored = val.(models.Call)
	}
	return stored, args.Error(1)
}

func (m *CallRepositoryMock) Get(ctx context.Context, callID string) (models.Call, error) {
	args := m.Called(ctx, callID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

func (m *CallRepositoryMock) End(ctx context.Context, callID string) (models.Call, error) {
	args := m.Called(ctx, callID)
	var call models.Call
	if val := args.Get(0); val != nil {
		call = val.(models.Call)
	}
	return call, args.Error(1)
}

type StoryRepositoryMock struct {
	mock.Mock
}

func (m *StoryRepositoryMock) Create(ctx context.Context, item models.StoryItem, mentions []int) (models.StoryItem, []int, error) {
	args := m.Called(ctx, item, mentions)
	var stored models.StoryItem
	if val := args.Get(0); val != nil {
		stored = val.(models.StoryItem)
	}
	var mentioned []int
	if val := args.Get(1); val != nil {
		mentioned = val.([]int)
	}
	return stored, mentioned, args.Error(2)
}

func (m *StoryRepositoryMock) Get(ctx context.Context, storyID int) (models.StoryItem, error) {
	args := m.Called(ctx, storyID)
	var item models.StoryItem
	if val := args.Get(0); val != nil {
		item = val.(models.StoryItem)
	}
	return item, args.Error(1)
}

func (m *StoryRepositoryMock) Feed(ctx context.Context, viewerID int) ([]models.StoryItem, error) {
	args := m.Called(ctx, viewerID)
	return storyItems(args.Get(0)), args.Error(1)
}

func (m *StoryRepositoryMock) ForUser(ctx context.Context, authorID int, viewerID int) ([]models.StoryItem, error) {
	args := m.Called(ctx, authorID, viewerID)
	return storyItems(args.Get(0)), args.Error(1)
}

func (m *StoryRepositoryMock) Mentions(ctx context.Context, userID int) ([]models.StoryItem, error) {
	args := m.Called(ctx, userID)
	return storyItems(args.Get(0)), args.Error(1)
}

func (m *StoryRepositoryMock) Viewers(ctx context.Context, storyID int) ([]models.StoryViewer, error) {
	args := m.Called(ctx, storyID)
	var viewers []models.StoryViewer
	if val := args.Get(0); val != nil {
		viewers = val.([]models.StoryViewer)
	}
	return viewers, args.Error(1)
}

func (m *StoryRepositoryMock) MarkViewed(ctx context.Context, storyID int, viewerID int) (bool, error) {
	args := m.Called(ctx, storyID, viewerID)
	return args.Bool(0), args.Error(1)
}

func (m *StoryRepositoryMock) React(ctx context.Context, storyID int, userID int, emoji string) error {
	args := m.Called(ctx, storyID, userID, emoji)
	return args.Error(0)
}

func (m *StoryRepositoryMock) Delete(ctx context.Context, storyID int, ownerID int) error {
	args := m.Called(ctx, storyID, ownerID)
	return args.Error(0)
}

func storyItems(val any) []models.StoryItem {
	if val == nil {
		return nil
	}
	return val.([]models.StoryItem)
}

var (
	_ repositories.UserRepository     = (*UserRepositoryMock)(nil)
	_ repositories.ChatRepository     = (*ChatRepositoryMock)(nil)
	_ repositories.MessageRepository  = (*MessageRepositoryMock)(nil)
	_ repositories.ReactionRepository = (*ReactionRepositoryMock)(nil)
	_ repositories.MediaRepository    = (*MediaRepositoryMock)(nil)
	_ repositories.CallRepository     = (*CallRepositoryMock)(nil)
	_ repositories.StoryRepository    = (*StoryRepositoryMock)(nil)
)
