package entities

import (
	"time"
)

// Review is an append-only reader submission. It stays invisible to readers
// until moderation sets Approved; rejection deletes the row outright.
type Review struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	BookID       uint   `gorm:"index;not null" json:"book_id"`
	UserID       *uint  `gorm:"index" json:"user_id,omitempty"`
	ReviewerName string `gorm:"size:100;not null" json:"reviewer_name"`
	Content      string `gorm:"type:text;not null" json:"content"`
	Approved     bool   `gorm:"default:false" json:"approved"`

	CreatedAt time.Time `json:"created_at"`
}
