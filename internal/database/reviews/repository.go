// Package reviews provides database operations for the review ledger.
//
// Submissions start unapproved and become reader-visible only after
// moderation approves them; rejection removes the row, no rejected state is
// kept.
package reviews

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrBookNotFound    = errors.New("book not found")
	ErrContentRequired = errors.New("review content is required")
	ErrNameRequired    = errors.New("reviewer name is required")
)

// Repository handles all review ledger database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new review repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Submit appends a pending review for a book. userID is nil for submissions
// that are not tied to an account.
func (r *Repository) Submit(bookID uint, userID *uint, reviewerName, content string) (*entities.Review, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}
	if strings.TrimSpace(reviewerName) == "" {
		return nil, ErrNameRequired
	}

	var count int64
	if err := r.db.Model(&entities.Book{}).Where("id = ?", bookID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrBookNotFound
	}

	review := &entities.Review{
		BookID:       bookID,
		UserID:       userID,
		ReviewerName: reviewerName,
		Content:      content,
		Approved:     false,
	}
	if err := r.db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

// Approve marks a review as reader-visible. Approving an already-approved
// review is a no-op.
func (r *Repository) Approve(id uint) error {
	result := r.db.Model(&entities.Review{}).Where("id = ?", id).Update("approved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Update matched nothing: either absent or already approved.
		var count int64
		if err := r.db.Model(&entities.Review{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrReviewNotFound
		}
	}
	return nil
}

// Reject deletes a review outright.
func (r *Repository) Reject(id uint) error {
	result := r.db.Delete(&entities.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListForBook returns reviews for a book, newest first. With approvedOnly set
// it returns only reader-visible reviews.
func (r *Repository) ListForBook(bookID uint, approvedOnly bool) ([]entities.Review, error) {
	query := r.db.Where("book_id = ?", bookID)
	if approvedOnly {
		query = query.Where("approved = ?", true)
	}
	var list []entities.Review
	err := query.Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListAll returns the full moderation queue, newest first.
func (r *Repository) ListAll() ([]entities.Review, error) {
	var list []entities.Review
	err := r.db.Order("created_at DESC").Find(&list).Error
	return list, err
}

// ListForUser returns a user's own submissions, newest first.
func (r *Repository) ListForUser(userID uint) ([]entities.Review, error) {
	var list []entities.Review
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&list).Error
	return list, err
}
