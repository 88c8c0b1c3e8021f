package repository

import (
	"context"

	"drawroom/internal/domain"
)

// ContentRepository defines durable storage of room content (chat messages
// and shapes). The engine persists through this interface before any
// broadcast; a failed write must short-circuit delivery.
type ContentRepository interface {
	CreateMessage(ctx context.Context, msg *domain.Message) error
	CreateShape(ctx context.Context, shape *domain.Shape) error

	// ListRecentMessages returns up to limit messages, oldest first.
	ListRecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error)

	// ListShapes returns the room's current shapes, oldest first.
	ListShapes(ctx context.Context, roomID uint) ([]domain.Shape, error)

	// ClearShapes deletes every shape in the room.
	ClearShapes(ctx context.Context, roomID uint) error
}
