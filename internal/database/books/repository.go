// Package books provides database operations for the book catalog and its
// ordered chapters.
package books

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

var (
	ErrBookNotFound           = errors.New("book not found")
	ErrChapterNotFound        = errors.New("chapter not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrDescriptionRequired    = errors.New("description is required")
	ErrChapterTitleRequired   = errors.New("chapter title is required")
	ErrChapterContentRequired = errors.New("chapter content is required")
	ErrChapterNumberInvalid   = errors.New("chapter number must be a positive integer")
	ErrChapterNumberTaken     = errors.New("chapter number already used in this book")
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateBook adds a book to the catalog. Title and description are required.
func (r *Repository) CreateBook(title, subtitle, description, imageURL string) (*entities.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionRequired
	}

	book := &entities.Book{
		Title:       title,
		Subtitle:    subtitle,
		Description: description,
		ImageURL:    imageURL,
	}
	if err := r.db.Create(book).Error; err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}

// UpdateBook edits book metadata. An empty imageURL keeps the existing cover.
func (r *Repository) UpdateBook(id uint, title, subtitle, description, imageURL string) (*entities.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionRequired
	}

	book, err := r.getBook(r.db, id)
	if err != nil {
		return nil, err
	}

	book.Title = title
	book.Subtitle = subtitle
	book.Description = description
	if imageURL != "" {
		book.ImageURL = imageURL
	}

	if err := r.db.Save(book).Error; err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}
	return book, nil
}

// DeleteBook removes a book together with its chapters, reviews and reading
// progress in a single transaction.
func (r *Repository) DeleteBook(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := r.getBook(tx, id); err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.ReadingProgress{}).Error; err != nil {
			return fmt.Errorf("failed to delete reading progress: %w", err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Chapter{}).Error; err != nil {
			return fmt.Errorf("failed to delete chapters: %w", err)
		}
		return tx.Delete(&entities.Book{}, id).Error
	})
}

// GetBook retrieves a book with its chapters ordered by chapter number.
func (r *Repository) GetBook(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Chapters", func(db *gorm.DB) *gorm.DB {
		return db.Order("chapter_number ASC")
	}).First(&book, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

// ListBooks returns the catalog newest-first. Chapters are preloaded without
// their content so listings can show chapter counts.
func (r *Repository) ListBooks() ([]entities.Book, error) {
	var list []entities.Book
	err := r.db.Preload("Chapters", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, book_id, chapter_number, title").Order("chapter_number ASC")
	}).Order("created_at DESC").Find(&list).Error
	return list, err
}

// AddChapter appends a chapter to a book. The (book, chapter number) pair must
// be unique within the book.
func (r *Repository) AddChapter(bookID uint, number int, title, content string) (*entities.Chapter, error) {
	if err := validateChapter(number, title, content); err != nil {
		return nil, err
	}

	var chapter *entities.Chapter
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if _, err := r.getBook(tx, bookID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&entities.Chapter{}).
			Where("book_id = ? AND chapter_number = ?", bookID, number).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrChapterNumberTaken
		}

		chapter = &entities.Chapter{
			BookID:        bookID,
			ChapterNumber: number,
			Title:         title,
			Content:       content,
		}
		return tx.Create(chapter).Error
	})
	if err != nil {
		return nil, err
	}
	return chapter, nil
}

// UpdateChapter edits a chapter. The uniqueness check excludes the chapter
// itself so renumbering to its own number is a no-op.
func (r *Repository) UpdateChapter(chapterID uint, number int, title, content string) (*entities.Chapter, error) {
	if err := validateChapter(number, title, content); err != nil {
		return nil, err
	}

	var chapter entities.Chapter
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&chapter, chapterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChapterNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&entities.Chapter{}).
			Where("book_id = ? AND chapter_number = ? AND id <> ?", chapter.BookID, number, chapter.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrChapterNumberTaken
		}

		chapter.ChapterNumber = number
		chapter.Title = title
		chapter.Content = content
		return tx.Save(&chapter).Error
	})
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// GetChapter retrieves a chapter, verifying it belongs to the given book.
func (r *Repository) GetChapter(bookID, chapterID uint) (*entities.Chapter, error) {
	var chapter entities.Chapter
	err := r.db.Where("id = ? AND book_id = ?", chapterID, bookID).First(&chapter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}
	return &chapter, nil
}

// DeleteChapter removes a chapter from a book, along with any reading
// progress rows pointing at it.
func (r *Repository) DeleteChapter(bookID, chapterID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var chapter entities.Chapter
		err := tx.Where("id = ? AND book_id = ?", chapterID, bookID).First(&chapter).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChapterNotFound
			}
			return err
		}
		if err := tx.Where("chapter_id = ?", chapterID).Delete(&entities.ReadingProgress{}).Error; err != nil {
			return fmt.Errorf("failed to delete reading progress: %w", err)
		}
		return tx.Delete(&chapter).Error
	})
}

// Navigate returns the chapters adjacent to the given chapter number within a
// book: the greatest number strictly below it and the least strictly above.
// Either side is nil at the catalog boundary.
func (r *Repository) Navigate(bookID uint, chapterNumber int) (prev, next *entities.Chapter, err error) {
	var before entities.Chapter
	err = r.db.Where("book_id = ? AND chapter_number < ?", bookID, chapterNumber).
		Order("chapter_number DESC").
		First(&before).Error
	switch {
	case err == nil:
		prev = &before
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No previous chapter
	default:
		return nil, nil, err
	}

	var after entities.Chapter
	err = r.db.Where("book_id = ? AND chapter_number > ?", bookID, chapterNumber).
		Order("chapter_number ASC").
		First(&after).Error
	switch {
	case err == nil:
		next = &after
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No next chapter
	default:
		return nil, nil, err
	}

	return prev, next, nil
}

func (r *Repository) getBook(tx *gorm.DB, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := tx.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	return &book, nil
}

func validateChapter(number int, title, content string) error {
	if number <= 0 {
		return ErrChapterNumberInvalid
	}
	if strings.TrimSpace(title) == "" {
		return ErrChapterTitleRequired
	}
	if strings.TrimSpace(content) == "" {
		return ErrChapterContentRequired
	}
	return nil
}
