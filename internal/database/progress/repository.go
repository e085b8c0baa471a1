// Package progress tracks the last chapter each user read per book.
package progress

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

var (
	// ErrChapterMismatch is returned when the viewed chapter does not belong
	// to the book the progress row is for.
	ErrChapterMismatch = errors.New("chapter does not belong to book")
)

// Repository handles reading progress persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reading progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RecordView upserts the single (user, book) progress row to point at the
// given chapter. The read-modify-write runs in one transaction so concurrent
// views of the same pair resolve last-writer-wins without duplicate rows.
func (r *Repository) RecordView(userID, bookID, chapterID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Chapter{}).
			Where("id = ? AND book_id = ?", chapterID, bookID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrChapterMismatch
		}

		var existing entities.ReadingProgress
		err := tx.Where("user_id = ? AND book_id = ?", userID, bookID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&entities.ReadingProgress{
				UserID:     userID,
				BookID:     bookID,
				ChapterID:  chapterID,
				LastReadAt: time.Now(),
			}).Error
		}
		if err != nil {
			return err
		}

		return tx.Model(&existing).Updates(map[string]any{
			"chapter_id":   chapterID,
			"last_read_at": time.Now(),
		}).Error
	})
}

// Get returns the progress row for a (user, book) pair, or nil when the user
// has not opened the book yet.
func (r *Repository) Get(userID, bookID uint) (*entities.ReadingProgress, error) {
	var row entities.ReadingProgress
	err := r.db.Preload("Chapter").
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListForUser returns the user's progress rows, most recently read first,
// with book and chapter preloaded for the profile page.
func (r *Repository) ListForUser(userID uint) ([]entities.ReadingProgress, error) {
	var list []entities.ReadingProgress
	err := r.db.Preload("Book").Preload("Chapter").
		Where("user_id = ?", userID).
		Order("last_read_at DESC").
		Find(&list).Error
	return list, err
}
