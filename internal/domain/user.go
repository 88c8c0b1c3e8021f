// Package domain defines the persistent and transient data structures of the
// collaboration engine.
package domain

import "time"

// User represents a registered account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"username"`
	DisplayName string    `gorm:"type:varchar(191);not null" json:"display_name"`
	Email       string    `gorm:"type:varchar(191);uniqueIndex" json:"email,omitempty"`
	Password    string    `gorm:"type:text;not null" json:"-"` // bcrypt hash, never serialized
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}
