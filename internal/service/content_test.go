package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drawroom/internal/domain"
	"drawroom/internal/repository/mocks"
	"drawroom/internal/service"
)

func newContentService(contentRepo *mocks.ContentRepository, stateRepo *mocks.StateRepository, roomRepo *mocks.RoomRepository) *service.ContentService {
	roomService := service.NewRoomService(roomRepo, new(mocks.MembershipRepository), service.NewPermissionEvaluator())
	return service.NewContentService(contentRepo, stateRepo, roomService)
}

func TestContentService_PostMessage_PersistsThenCaches(t *testing.T) {
	contentRepo := new(mocks.ContentRepository)
	stateRepo := new(mocks.StateRepository)
	roomRepo := new(mocks.RoomRepository)
	svc := newContentService(contentRepo, stateRepo, roomRepo)
	ctx := context.Background()

	contentRepo.On("CreateMessage", ctx, mock.MatchedBy(func(msg *domain.Message) bool {
		return msg.RoomID == 1 && msg.UserID == 10 && msg.Text == "hello"
	})).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Message).ID = 42 }).
		Return(nil).
		Once()
	stateRepo.On("PushMessageToHistory", ctx, uint(1), mock.AnythingOfType("domain.Message")).Return(nil).Once()
	roomRepo.On("TouchLastActive", ctx, uint(1)).Return(nil).Once()

	msg, err := svc.PostMessage(ctx, 1, 10, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, uint(42), msg.ID)
	assert.Equal(t, "hello", msg.Text, "whitespace is trimmed before persisting")

	contentRepo.AssertExpectations(t)
	stateRepo.AssertExpectations(t)
}

func TestContentService_PostMessage_StoreFailureShortCircuits(t *testing.T) {
	contentRepo := new(mocks.ContentRepository)
	stateRepo := new(mocks.StateRepository)
	roomRepo := new(mocks.RoomRepository)
	svc := newContentService(contentRepo, stateRepo, roomRepo)
	ctx := context.Background()

	contentRepo.On("CreateMessage", ctx, mock.AnythingOfType("*domain.Message")).
		Return(errors.New("connection reset")).Once()

	_, err := svc.PostMessage(ctx, 1, 10, "hello")
	assert.True(t, errors.Is(err, service.ErrInternalServer))
	stateRepo.AssertNotCalled(t, "PushMessageToHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestContentService_PostMessage_CacheFailureIsBestEffort(t *testing.T) {
	contentRepo := new(mocks.ContentRepository)
	stateRepo := new(mocks.StateRepository)
	roomRepo := new(mocks.RoomRepository)
	svc := newContentService(contentRepo, stateRepo, roomRepo)
	ctx := context.Background()

	contentRepo.On("CreateMessage", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Once()
	stateRepo.On("PushMessageToHistory", ctx, uint(1), mock.AnythingOfType("domain.Message")).
		Return(errors.New("redis down")).Once()
	roomRepo.On("TouchLastActive", ctx, uint(1)).Return(nil).Once()

	_, err := svc.PostMessage(ctx, 1, 10, "hello")
	assert.NoError(t, err, "durability comes from the store; the cache write may fail")
}

func TestContentService_PostMessage_Validation(t *testing.T) {
	contentRepo := new(mocks.ContentRepository)
	svc := newContentService(contentRepo, new(mocks.StateRepository), new(mocks.RoomRepository))
	ctx := context.Background()

	_, err := svc.PostMessage(ctx, 1, 10, "   ")
	assert.True(t, errors.Is(err, service.ErrInvalidContent))

	_, err = svc.PostMessage(ctx, 1, 10, strings.Repeat("x", 2001))
	assert.True(t, errors.Is(err, service.ErrInvalidContent))

	contentRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestContentService_AddShape(t *testing.T) {
	ctx := context.Background()

	t.Run("valid shape is persisted", func(t *testing.T) {
		contentRepo := new(mocks.ContentRepository)
		roomRepo := new(mocks.RoomRepository)
		svc := newContentService(contentRepo, new(mocks.StateRepository), roomRepo)

		contentRepo.On("CreateShape", ctx, mock.MatchedBy(func(s *domain.Shape) bool {
			return s.RoomID == 1 && s.ShapeType == "rect"
		})).Return(nil).Once()
		roomRepo.On("TouchLastActive", ctx, uint(1)).Return(nil).Once()

		shape, err := svc.AddShape(ctx, 1, 10, "rect", `{"x":1,"y":2}`)
		require.NoError(t, err)
		assert.Equal(t, "rect", shape.ShapeType)
	})

	t.Run("empty payload is rejected", func(t *testing.T) {
		contentRepo := new(mocks.ContentRepository)
		svc := newContentService(contentRepo, new(mocks.StateRepository), new(mocks.RoomRepository))

		_, err := svc.AddShape(ctx, 1, 10, "", `{}`)
		assert.True(t, errors.Is(err, service.ErrInvalidContent))
		_, err = svc.AddShape(ctx, 1, 10, "rect", "")
		assert.True(t, errors.Is(err, service.ErrInvalidContent))
		contentRepo.AssertNotCalled(t, "CreateShape", mock.Anything, mock.Anything)
	})
}

func TestContentService_RecentMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit wins", func(t *testing.T) {
		contentRepo := new(mocks.ContentRepository)
		stateRepo := new(mocks.StateRepository)
		svc := newContentService(contentRepo, stateRepo, new(mocks.RoomRepository))

		cached := []domain.Message{{ID: 1, RoomID: 1, Text: "cached"}}
		stateRepo.On("GetRecentMessages", ctx, uint(1), 50).Return(cached, nil).Once()

		messages, err := svc.RecentMessages(ctx, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, "cached", messages[0].Text)
		contentRepo.AssertNotCalled(t, "ListRecentMessages", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cold cache falls back to store", func(t *testing.T) {
		contentRepo := new(mocks.ContentRepository)
		stateRepo := new(mocks.StateRepository)
		svc := newContentService(contentRepo, stateRepo, new(mocks.RoomRepository))

		stateRepo.On("GetRecentMessages", ctx, uint(1), 50).Return([]domain.Message{}, nil).Once()
		stored := []domain.Message{{ID: 2, RoomID: 1, Text: "stored"}}
		contentRepo.On("ListRecentMessages", ctx, uint(1), 50).Return(stored, nil).Once()

		messages, err := svc.RecentMessages(ctx, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, "stored", messages[0].Text)
	})

	t.Run("cache outage falls back to store", func(t *testing.T) {
		contentRepo := new(mocks.ContentRepository)
		stateRepo := new(mocks.StateRepository)
		svc := newContentService(contentRepo, stateRepo, new(mocks.RoomRepository))

		stateRepo.On("GetRecentMessages", ctx, uint(1), 50).Return(nil, errors.New("redis down")).Once()
		contentRepo.On("ListRecentMessages", ctx, uint(1), 50).Return([]domain.Message{}, nil).Once()

		_, err := svc.RecentMessages(ctx, 1, 50)
		assert.NoError(t, err)
	})
}
