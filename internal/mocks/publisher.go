package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-core/internal/models"
	"chat-core/internal/rabbitmq"
	"chat-core/internal/storage"
	"chat-core/internal/typing"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type TrackerMock struct {
	mock.Mock
}

func (m *TrackerMock) SetTyping(ctx context.Context, chatID int, userID int, isTyping bool) error {
	args := m.Called(ctx, chatID, userID, isTyping)
	return args.Error(0)
}

func (m *TrackerMock) TypingUsers(ctx context.Context, chatID int, candidates []int) ([]int, error) {
	args := m.Called(ctx, chatID, candidates)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type MediaStoreMock struct {
	mock.Mock
}

func (m *MediaStoreMock) Put(ctx context.Context, obj storage.Object) (string, error) {
	args := m.Called(ctx, obj)
	return args.String(0), args.Error(1)
}

// HubMock records chat events instead of writing to websockets.
type HubMock struct {
	mock.Mock
}

func (m *HubMock) Broadcast(chatID int, event models.ChatEvent) {
	m.Called(chatID, event)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, kind string, recipientID, actorID int, data map[string]any) error {
	args := m.Called(ctx, kind, recipientID, actorID, data)
	return args.Error(0)
}

type AuditorMock struct {
	mock.Mock
}

func (m *AuditorMock) Emit(ctx context.Context, level, action, text, requestID string, userID *int, fields map[string]any) {
	m.Called(ctx, level, action, text, requestID, userID, fields)
}

var (
	_ rabbitmq.Publisher = (*PublisherMock)(nil)
	_ typing.Tracker     = (*TrackerMock)(nil)
	_ storage.MediaStore = (*MediaStoreMock)(nil)
)
