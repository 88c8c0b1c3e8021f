package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"drawroom/internal/domain"
	"drawroom/internal/repository"
)

const (
	maxMessageLength = 2000 // runes
	maxShapeDataSize = 16 * 1024
)

// ContentService persists chat messages and shapes. It is the durable half of
// the event path: the hub only broadcasts what this service has already
// written, so a failed write here must surface as an error and suppress the
// broadcast.
type ContentService struct {
	contentRepo repository.ContentRepository
	stateRepo   repository.StateRepository
	roomService *RoomService
}

func NewContentService(contentRepo repository.ContentRepository, stateRepo repository.StateRepository, roomService *RoomService) *ContentService {
	if contentRepo == nil {
		panic("ContentRepository cannot be nil for ContentService")
	}
	if stateRepo == nil {
		panic("StateRepository cannot be nil for ContentService")
	}
	if roomService == nil {
		panic("RoomService cannot be nil for ContentService")
	}
	return &ContentService{contentRepo: contentRepo, stateRepo: stateRepo, roomService: roomService}
}

// PostMessage validates and persists a chat message, then caches it for
// replay. The cache write is best-effort; durability comes from the store.
func (s *ContentService) PostMessage(ctx context.Context, roomID, userID uint, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxMessageLength {
		return nil, ErrInvalidContent
	}

	msg := &domain.Message{RoomID: roomID, UserID: userID, Text: text}
	if err := s.contentRepo.CreateMessage(ctx, msg); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Error("Failed to persist message")
		return nil, ErrInternalServer
	}

	if err := s.stateRepo.PushMessageToHistory(ctx, roomID, *msg); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to cache message in history")
	}
	s.roomService.TouchActivity(ctx, roomID)
	return msg, nil
}

// AddShape validates and persists a drawing element.
func (s *ContentService) AddShape(ctx context.Context, roomID, userID uint, shapeType, data string) (*domain.Shape, error) {
	if shapeType == "" || data == "" || len(data) > maxShapeDataSize {
		return nil, ErrInvalidContent
	}

	shape := &domain.Shape{RoomID: roomID, UserID: userID, ShapeType: shapeType, Data: data}
	if err := s.contentRepo.CreateShape(ctx, shape); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Error("Failed to persist shape")
		return nil, ErrInternalServer
	}
	s.roomService.TouchActivity(ctx, roomID)
	return shape, nil
}

// ClearShapes deletes every shape in the room.
func (s *ContentService) ClearShapes(ctx context.Context, roomID uint) error {
	if err := s.contentRepo.ClearShapes(ctx, roomID); err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to clear shapes")
		return ErrInternalServer
	}
	s.roomService.TouchActivity(ctx, roomID)
	return nil
}

// RecentMessages returns the room's recent chat, cache first with a store
// fallback for cold rooms.
func (s *ContentService) RecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	cached, err := s.stateRepo.GetRecentMessages(ctx, roomID, limit)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Warn("History cache unavailable, falling back to store")
	} else if len(cached) > 0 {
		return cached, nil
	}

	messages, err := s.contentRepo.ListRecentMessages(ctx, roomID, limit)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load recent messages")
		return nil, ErrInternalServer
	}
	return messages, nil
}

// Shapes returns the room's current drawing state for late joiners.
func (s *ContentService) Shapes(ctx context.Context, roomID uint) ([]domain.Shape, error) {
	shapes, err := s.contentRepo.ListShapes(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Failed to load shapes")
		return nil, ErrInternalServer
	}
	return shapes, nil
}
