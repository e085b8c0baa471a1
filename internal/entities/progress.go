package entities

import (
	"time"
)

// ReadingProgress points at the last chapter a user viewed in a book.
// There is at most one row per (user, book) pair; it is updated in place on
// every chapter view.
type ReadingProgress struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	UserID    uint `gorm:"uniqueIndex:idx_user_book;not null" json:"user_id"`
	BookID    uint `gorm:"uniqueIndex:idx_user_book;not null" json:"book_id"`
	ChapterID uint `gorm:"not null" json:"chapter_id"`

	Book    Book    `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Chapter Chapter `gorm:"foreignKey:ChapterID" json:"chapter,omitempty"`

	LastReadAt time.Time `json:"last_read_at"`
}
