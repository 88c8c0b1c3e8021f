package repository

import (
	"context"

	"drawroom/internal/domain"
)

// LeaveOutcome describes what a Leave call did to the room, so callers can
// announce the right events afterwards.
type LeaveOutcome struct {
	RoomDeleted  bool
	OwnerChanged bool
	NewOwnerID   uint
	Promoted     bool // successor was raised to ADMIN as part of the transfer
}

// MembershipRepository defines storage of the (room, user) -> role relation.
//
// Composite mutations (Leave, and room deletion on RoomRepository) are atomic:
// the presence and permission layers trust the store to be instantaneously
// consistent, so partial application is a correctness violation.
type MembershipRepository interface {
	// Get returns ErrMembershipNotFound when the user is not a member.
	Get(ctx context.Context, roomID, userID uint) (*domain.Membership, error)

	// ListMembers returns the room's members ordered by joined_at ascending,
	// user_id ascending. The ordering is load-bearing: succession and
	// tie-breaks depend on it.
	ListMembers(ctx context.Context, roomID uint) ([]domain.Membership, error)

	// Add inserts a membership row. Duplicate (room, user) pairs map to
	// ErrDuplicateEntry.
	Add(ctx context.Context, m *domain.Membership) error

	// SetRole updates the role of an existing membership.
	SetRole(ctx context.Context, roomID, userID uint, role domain.Role) error

	// Remove deletes a membership row without ownership resolution. Used for
	// kicks, which never target the owner.
	Remove(ctx context.Context, roomID, userID uint) error

	// Leave removes the user's membership, resolving ownership succession in
	// the same transaction when the leaver owns the room: sole member deletes
	// the room, otherwise ownership transfers per domain.PlanSuccession.
	// Returns ErrRoomNotFound / ErrMembershipNotFound as appropriate.
	Leave(ctx context.Context, roomID, userID uint) (*LeaveOutcome, error)
}
