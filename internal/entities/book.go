package entities

import (
	"time"
)

type Book struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Subtitle    string `gorm:"size:200" json:"subtitle,omitempty"`
	Description string `gorm:"type:text" json:"description"`
	ImageURL    string `gorm:"size:500" json:"image_url,omitempty"`

	Chapters []Chapter `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
	Reviews  []Review  `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"reviews,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Chapter struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BookID        uint   `gorm:"index;uniqueIndex:idx_book_chapter_number;not null" json:"book_id"`
	ChapterNumber int    `gorm:"uniqueIndex:idx_book_chapter_number;not null" json:"chapter_number"`
	Title         string `gorm:"size:200;not null" json:"title"`
	Content       string `gorm:"type:text" json:"content,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChapterSummary is the chapter listing shape without content, used on book
// pages where only navigation data is wanted.
type ChapterSummary struct {
	ID            uint      `json:"id"`
	BookID        uint      `json:"book_id"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary strips the chapter content for listing responses.
func (c Chapter) Summary() ChapterSummary {
	return ChapterSummary{
		ID:            c.ID,
		BookID:        c.BookID,
		ChapterNumber: c.ChapterNumber,
		Title:         c.Title,
		CreatedAt:     c.CreatedAt,
	}
}
