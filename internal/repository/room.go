package repository

import (
	"context"
	"time"

	"drawroom/internal/domain"
)

// RoomRepository defines storage and retrieval of rooms.
type RoomRepository interface {
	// FindByID returns ErrRoomNotFound when no such room exists.
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByInviteCode returns ErrRoomNotFound when no such room exists.
	FindByInviteCode(ctx context.Context, code string) (*domain.Room, error)

	// FindAllByMember returns every room the user holds a membership in.
	FindAllByMember(ctx context.Context, userID uint) ([]domain.Room, error)

	// CreateWithOwner creates the room together with the owner's ADMIN
	// membership in one transaction, so a room never exists without a member.
	CreateWithOwner(ctx context.Context, room *domain.Room) error

	// Save persists field changes on an existing room.
	Save(ctx context.Context, room *domain.Room) error

	// TouchLastActive bumps the room's last_active timestamp.
	TouchLastActive(ctx context.Context, roomID uint) error

	// IsInviteCodeExists reports whether the code is already taken.
	IsInviteCodeExists(ctx context.Context, code string) (bool, error)

	// FindStaleIDs lists rooms whose last activity is older than the cutoff.
	FindStaleIDs(ctx context.Context, cutoff time.Time) ([]uint, error)

	// Delete removes the room and cascades to its memberships, messages and
	// shapes in one transaction. Returns ErrRoomNotFound for unknown rooms.
	Delete(ctx context.Context, roomID uint) error
}
