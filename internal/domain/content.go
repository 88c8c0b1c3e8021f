package domain

import "time"

// Message is a persisted chat message. The engine routes it; it does not
// interpret the text.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"room_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Shape is a persisted drawing element. Data is an opaque JSON document owned
// by the client; the server stores and routes it unmodified.
type Shape struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"room_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ShapeType string    `gorm:"size:50;not null" json:"shape_type"`
	Data      string    `gorm:"type:text;not null" json:"data"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
