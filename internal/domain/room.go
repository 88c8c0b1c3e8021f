package domain

import "time"

// Room is a shared drawing surface plus a chat stream.
//
// Invariants maintained by the membership store:
//   - OwnerID always refers to a user holding an ADMIN membership for this room.
//   - A room has at least one member while it exists; it is deleted, never
//     left empty or ownerless.
type Room struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(191);not null" json:"name"`
	OwnerID    uint      `gorm:"index;not null" json:"owner_id"`
	IsShared   bool      `gorm:"not null;default:false" json:"is_shared"` // non-members may self-join when true
	InviteCode string    `gorm:"uniqueIndex;size:191;not null" json:"invite_code,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastActive time.Time `gorm:"index" json:"last_active"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"-"`
}
