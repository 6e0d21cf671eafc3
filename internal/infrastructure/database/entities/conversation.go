package entities

import "time"

// Conversation models the persisted representation of a conversation row.
type Conversation struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"type:uuid;not null;index:idx_conversations_user_created,priority:1"`
	Title     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_conversations_user_created,priority:2,sort:desc"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (Conversation) TableName() string {
	return "conversations"
}
