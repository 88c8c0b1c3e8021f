package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"drawroom/internal/domain"
	"drawroom/internal/repository"
)

// GormRoomRepository is the GORM implementation of repository.RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindByInviteCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by invite code '%s': %w", code, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindAllByMember(ctx context.Context, userID uint) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.room_id = rooms.id").
		Where("memberships.user_id = ?", userID).
		Order("rooms.last_active DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find rooms for member %d: %w", userID, err)
	}
	return rooms, nil
}

// CreateWithOwner creates the room and the owner's ADMIN membership in one
// transaction, so the "room has at least one member" invariant holds from the
// first instant the row is visible.
func (r *GormRoomRepository) CreateWithOwner(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		member := domain.Membership{
			RoomID:   room.ID,
			UserID:   room.OwnerID,
			Role:     domain.RoleAdmin,
			JoinedAt: time.Now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room with owner %d: %w", room.OwnerID, err)
	}
	return nil
}

func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Save(room).Error
	if err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d): %w", room.ID, err)
	}
	return nil
}

func (r *GormRoomRepository) TouchLastActive(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ?", roomID).
		Update("last_active", time.Now()).Error
	if err != nil {
		return fmt.Errorf("gorm: touch last_active for room %d: %w", roomID, err)
	}
	return nil
}

func (r *GormRoomRepository) IsInviteCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("invite_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by invite code '%s': %w", code, err)
	}
	return count > 0, nil
}

func (r *GormRoomRepository) FindStaleIDs(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("last_active < ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find stale rooms before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return ids, nil
}

// Delete removes the room and cascades to memberships, messages and shapes.
// Everything happens in one transaction; the room either fully exists or is
// fully gone.
func (r *GormRoomRepository) Delete(ctx context.Context, roomID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteRoomCascade(tx, roomID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrRoomNotFound
		}
		return fmt.Errorf("gorm: delete room %d: %w", roomID, err)
	}
	return nil
}

// deleteRoomCascade removes a room and its dependents inside the caller's
// transaction. Shared with GormMembershipRepository.Leave for the sole-member
// branch of ownership succession.
func deleteRoomCascade(tx *gorm.DB, roomID uint) error {
	var room domain.Room
	if err := tx.First(&room, roomID).Error; err != nil {
		return err
	}
	if err := tx.Where("room_id = ?", roomID).Delete(&domain.Shape{}).Error; err != nil {
		return err
	}
	if err := tx.Where("room_id = ?", roomID).Delete(&domain.Message{}).Error; err != nil {
		return err
	}
	if err := tx.Where("room_id = ?", roomID).Delete(&domain.Membership{}).Error; err != nil {
		return err
	}
	return tx.Delete(&domain.Room{}, roomID).Error
}
