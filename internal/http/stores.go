package http

import (
	"mime/multipart"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

// Controllers depend on narrow store interfaces rather than the concrete
// repositories, so handler tests can run against mocks.

// CatalogStore covers book and chapter operations.
type CatalogStore interface {
	CreateBook(title, subtitle, description, imageURL string) (*entities.Book, error)
	UpdateBook(id uint, title, subtitle, description, imageURL string) (*entities.Book, error)
	DeleteBook(id uint) error
	GetBook(id uint) (*entities.Book, error)
	ListBooks() ([]entities.Book, error)

	AddChapter(bookID uint, number int, title, content string) (*entities.Chapter, error)
	UpdateChapter(chapterID uint, number int, title, content string) (*entities.Chapter, error)
	GetChapter(bookID, chapterID uint) (*entities.Chapter, error)
	DeleteChapter(bookID, chapterID uint) error
	Navigate(bookID uint, chapterNumber int) (prev, next *entities.Chapter, err error)
}

// ReviewStore covers review submission and moderation.
type ReviewStore interface {
	Submit(bookID uint, userID *uint, reviewerName, content string) (*entities.Review, error)
	Approve(id uint) error
	Reject(id uint) error
	ListForBook(bookID uint, approvedOnly bool) ([]entities.Review, error)
	ListAll() ([]entities.Review, error)
	ListForUser(userID uint) ([]entities.Review, error)
}

// ProgressStore covers per-user reading progress.
type ProgressStore interface {
	RecordView(userID, bookID, chapterID uint) error
	Get(userID, bookID uint) (*entities.ReadingProgress, error)
	ListForUser(userID uint) ([]entities.ReadingProgress, error)
}

// CoverStore saves uploaded cover images and returns their public URLs.
type CoverStore interface {
	SaveCover(header *multipart.FileHeader) (string, error)
	Remove(imageURL string) error
}
