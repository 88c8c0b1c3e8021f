package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"drawroom/internal/domain"
)



// GormContentRepository is the GORM implementation of
// repository.ContentRepository.
type GormContentRepository struct {
	db *gorm.DB
}

func NewGormContentRepository(db *gorm.DB) *GormContentRepository {
	if db == nil {
		panic("database connection cannot be nil for GormContentRepository")
	}
	return &GormContentRepository{db: db}
}

func (r *GormContentRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("gorm: create message in room %d: %w", msg.RoomID, err)
	}
	return nil
}

func (r *GormContentRepository) CreateShape(ctx context.Context, shape *domain.Shape) error {
	if err := r.db.WithContext(ctx).Create(shape).Error; err != nil {
		return fmt.Errorf("gorm: create shape in room %d: %w", shape.RoomID, err)
	}
	return nil
}

func (r *GormContentRepository) ListRecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	// Fetch the newest rows, then flip to chronological order for replay.
	var newest []domain.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		Limit(limit).
		Find(&newest).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list recent messages of room %d: %w", roomID, err)
	}
	messages := make([]domain.Message, len(newest))
	for i, m := range newest {
		messages[len(newest)-1-i] = m
	}
	return messages, nil
}

func (r *GormContentRepository) ListShapes(ctx context.Context, roomID uint) ([]domain.Shape, error) {
	var shapes []domain.Shape
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id ASC").
		Find(&shapes).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list shapes of room %d: %w", roomID, err)
	}
	return shapes, nil
}

func (r *GormContentRepository) ClearShapes(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Delete(&domain.Shape{}).Error
	if err != nil {
		return fmt.Errorf("gorm: clear shapes of room %d: %w", roomID, err)
	}
	return nil
}
