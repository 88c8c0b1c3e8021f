package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"drawroom/internal/domain"
	"drawroom/internal/repository"
)

// GormMembershipRepository is the GORM implementation of
// repository.MembershipRepository.
type GormMembershipRepository struct {
	db *gorm.DB
}

func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMembershipRepository")
	}
	return &GormMembershipRepository{db: db}
}

func (r *GormMembershipRepository) Get(ctx context.Context, roomID, userID uint) (*domain.Membership, error) {
	var m domain.Membership
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("gorm: get membership (room %d, user %d): %w", roomID, userID, err)
	}
	return &m, nil
}

func (r *GormMembershipRepository) ListMembers(ctx context.Context, roomID uint) ([]domain.Membership, error) {
	var members []domain.Membership
	// joined_at ASC, user_id ASC: succession tie-breaks depend on this order.
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("joined_at ASC, user_id ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list members of room %d: %w", roomID, err)
	}
	return members, nil
}

func (r *GormMembershipRepository) Add(ctx context.Context, m *domain.Membership) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: add membership (room %d, user %d): %w", m.RoomID, m.UserID, err)
	}
	return nil
}

func (r *GormMembershipRepository) SetRole(ctx context.Context, roomID, userID uint, role domain.Role) error {
	result := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("role", role)
	if result.Error != nil {
		return fmt.Errorf("gorm: set role for (room %d, user %d): %w", roomID, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrMembershipNotFound
	}
	return nil
}

func (r *GormMembershipRepository) Remove(ctx context.Context, roomID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.Membership{})
	if result.Error != nil {
		return fmt.Errorf("gorm: remove membership (room %d, user %d): %w", roomID, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrMembershipNotFound
	}
	return nil
}

// Leave removes the user's membership. When the leaver owns the room the
// whole succession runs here, inside one transaction holding a FOR UPDATE
// lock on the room row: two members leaving at once serialize on that lock,
// so they cannot both conclude they are the last member or promote different
// successors.
func (r *GormMembershipRepository) Leave(ctx context.Context, roomID, userID uint) (*repository.LeaveOutcome, error) {
	outcome := &repository.LeaveOutcome{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room domain.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			return err
		}

		var leaver domain.Membership
		if err := tx.Where("room_id = ? AND user_id = ?", roomID, userID).First(&leaver).Error; err != nil {
			return err
		}

		if room.OwnerID != userID {
			return tx.Where("room_id = ? AND user_id = ?", roomID, userID).
				Delete(&domain.Membership{}).Error
		}

		var members []domain.Membership
		if err := tx.Where("room_id = ?", roomID).
			Order("joined_at ASC, user_id ASC").
			Find(&members).Error; err != nil {
			return err
		}

		plan := domain.PlanSuccession(userID, members)
		if plan.DeleteRoom {
			if err := deleteRoomCascade(tx, roomID); err != nil {
				return err
			}
			outcome.RoomDeleted = true
			return nil
		}

		if plan.Promote {
			if err := tx.Model(&domain.Membership{}).
				Where("room_id = ? AND user_id = ?", roomID, plan.NewOwnerID).
				Update("role", domain.RoleAdmin).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&domain.Room{}).
			Where("id = ?", roomID).
			Update("owner_id", plan.NewOwnerID).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ? AND user_id = ?", roomID, userID).
			Delete(&domain.Membership{}).Error; err != nil {
			return err
		}
		outcome.OwnerChanged = true
		outcome.NewOwnerID = plan.NewOwnerID
		outcome.Promoted = plan.Promote
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("gorm: leave room %d (user %d): %w", roomID, userID, err)
	}
	return outcome, nil
}
