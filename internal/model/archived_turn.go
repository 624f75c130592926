package model

import "time"

// ArchivedTurn is one turn copied to the optional transcript archive.
type ArchivedTurn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:36;not null;index" json:"session_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Role      string    `gorm:"size:16;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Source    string    `gorm:"size:16" json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
