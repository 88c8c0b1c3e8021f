package domain

import "time"

// Role is the capability level a membership grants inside a room.
// Ownership is not a role: the owner is whoever Room.OwnerID points at, and
// that user always holds an ADMIN membership.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership is the (room, user) relation granting access to a room.
// JoinedAt is the tie-break for ownership succession and must be set when the
// row is created.
type Membership struct {
	RoomID   uint      `gorm:"primaryKey;autoIncrement:false" json:"room_id"`
	UserID   uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Role     Role      `gorm:"type:varchar(16);not null" json:"role"`
	JoinedAt time.Time `gorm:"index;not null" json:"joined_at"`
}

// IsAdmin reports whether the membership carries the ADMIN role.
func (m Membership) IsAdmin() bool { return m.Role == RoleAdmin }
