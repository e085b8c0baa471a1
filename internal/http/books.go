package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/database/books"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

// BooksController serves the public catalog.
type BooksController struct {
	catalog  CatalogStore
	reviews  ReviewStore
	progress ProgressStore
}

func NewBooksController(catalog CatalogStore, reviews ReviewStore, progress ProgressStore) *BooksController {
	return &BooksController{
		catalog:  catalog,
		reviews:  reviews,
		progress: progress,
	}
}

// bookListItem is the catalog listing shape: no chapters, no reviews.
type bookListItem struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle,omitempty"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url,omitempty"`
	ChapterCount int    `json:"chapter_count"`
}

// ListBooks returns the full catalog, newest first.
func (controller *BooksController) ListBooks(c *gin.Context) {
	allBooks, err := controller.catalog.ListBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	items := make([]bookListItem, 0, len(allBooks))
	for _, book := range allBooks {
		items = append(items, bookListItem{
			ID:           book.ID,
			Title:        book.Title,
			Subtitle:     book.Subtitle,
			Description:  book.Description,
			ImageURL:     book.ImageURL,
			ChapterCount: len(book.Chapters),
		})
	}

	c.JSON(http.StatusOK, gin.H{"books": items, "count": len(items)})
}

// GetBook returns one book with its chapter listing, approved reviews, and
// the requesting user's reading progress when they are signed in.
func (controller *BooksController) GetBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.catalog.GetBook(bookID)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	chapters := make([]entities.ChapterSummary, 0, len(book.Chapters))
	for _, chapter := range book.Chapters {
		chapters = append(chapters, chapter.Summary())
	}

	approved, err := controller.reviews.ListForBook(bookID, true)
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}

	response := gin.H{
		"id":          book.ID,
		"title":       book.Title,
		"subtitle":    book.Subtitle,
		"description": book.Description,
		"image_url":   book.ImageURL,
		"created_at":  book.CreatedAt,
		"chapters":    chapters,
		"reviews":     approved,
	}

	if userID := auth.GetUserID(c); userID != 0 {
		record, err := controller.progress.Get(userID, bookID)
		if err != nil {
			log.Printf("Failed to load progress for user %d book %d: %v", userID, bookID, err)
		} else if record != nil {
			response["progress"] = gin.H{
				"chapter_id":     record.ChapterID,
				"chapter_number": record.Chapter.ChapterNumber,
				"chapter_title":  record.Chapter.Title,
				"last_read_at":   record.LastReadAt,
			}
		}
	}

	c.JSON(http.StatusOK, response)
}
