package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/database/books"
	"github.com/SmoothCdoer9981/bookclub/internal/uploads"
)

// Announcer queues a new-book announcement for email fan-out.
type Announcer interface {
	AnnounceBook(bookID uint) error
}

// AdminBooksController handles catalog management: creating, editing and
// deleting books and chapters. All routes require the admin tier.
type AdminBooksController struct {
	catalog   CatalogStore
	covers    CoverStore
	announcer Announcer
}

func NewAdminBooksController(catalog CatalogStore, covers CoverStore, announcer Announcer) *AdminBooksController {
	return &AdminBooksController{
		catalog:   catalog,
		covers:    covers,
		announcer: announcer,
	}
}

// saveCoverIfPresent stores the optional "image" form file, returning its
// public URL or "" when no file was uploaded.
func (controller *AdminBooksController) saveCoverIfPresent(c *gin.Context) (string, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		// No file in the form
		return "", true
	}

	url, err := controller.covers.SaveCover(header)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrFileTooLarge),
			errors.Is(err, uploads.ErrUnsupportedType),
			errors.Is(err, uploads.ErrEmptyUpload):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "save cover")
		}
		return "", false
	}
	return url, true
}

// CreateBook publishes a new book from a multipart form with an optional
// cover image, then queues the announcement email fan-out.
func (controller *AdminBooksController) CreateBook(c *gin.Context) {
	imageURL, ok := controller.saveCoverIfPresent(c)
	if !ok {
		return
	}

	book, err := controller.catalog.CreateBook(
		c.PostForm("title"),
		c.PostForm("subtitle"),
		c.PostForm("description"),
		imageURL,
	)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrTitleRequired), errors.Is(err, books.ErrDescriptionRequired):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "create book")
		}
		return
	}

	if controller.announcer != nil {
		if err := controller.announcer.AnnounceBook(book.ID); err != nil {
			log.Printf("Failed to queue announcement for book %d: %v", book.ID, err)
		}
	}

	respondCreated(c, book)
}

// UpdateBook edits a book's details. Omitting the cover image keeps the
// current one; uploading a new one replaces it on disk.
func (controller *AdminBooksController) UpdateBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	existing, err := controller.catalog.GetBook(bookID)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	imageURL, ok := controller.saveCoverIfPresent(c)
	if !ok {
		return
	}

	book, err := controller.catalog.UpdateBook(
		bookID,
		c.PostForm("title"),
		c.PostForm("subtitle"),
		c.PostForm("description"),
		imageURL,
	)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrTitleRequired), errors.Is(err, books.ErrDescriptionRequired):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "update book")
		}
		return
	}

	// Old cover is unreferenced once a replacement landed
	if imageURL != "" && existing.ImageURL != "" && existing.ImageURL != imageURL {
		if err := controller.covers.Remove(existing.ImageURL); err != nil {
			log.Printf("Failed to remove replaced cover %s: %v", existing.ImageURL, err)
		}
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook removes a book with its chapters, reviews and progress rows.
func (controller *AdminBooksController) DeleteBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	existing, err := controller.catalog.GetBook(bookID)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	if err := controller.catalog.DeleteBook(bookID); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}

	if existing.ImageURL != "" {
		if err := controller.covers.Remove(existing.ImageURL); err != nil {
			log.Printf("Failed to remove cover %s: %v", existing.ImageURL, err)
		}
	}

	respondSuccess(c, "book deleted")
}

type chapterRequest struct {
	ChapterNumber int    `json:"chapter_number" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Content       string `json:"content" binding:"required"`
}

// AddChapter appends a chapter to a book. Chapter numbers are unique within
// a book but need not be contiguous.
func (controller *AdminBooksController) AddChapter(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "chapter_number, title and content are required")
		return
	}

	chapter, err := controller.catalog.AddChapter(bookID, req.ChapterNumber, req.Title, req.Content)
	if err != nil {
		controller.respondChapterError(c, err, "add chapter")
		return
	}

	respondCreated(c, chapter)
}

// UpdateChapter edits a chapter, including renumbering it.
func (controller *AdminBooksController) UpdateChapter(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := parseIDParam(c, "chapterID")
	if !ok {
		return
	}

	// The chapter must belong to the addressed book
	if _, err := controller.catalog.GetChapter(bookID, chapterID); err != nil {
		controller.respondChapterError(c, err, "get chapter")
		return
	}

	var req chapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "chapter_number, title and content are required")
		return
	}

	chapter, err := controller.catalog.UpdateChapter(chapterID, req.ChapterNumber, req.Title, req.Content)
	if err != nil {
		controller.respondChapterError(c, err, "update chapter")
		return
	}

	c.JSON(http.StatusOK, chapter)
}

// DeleteChapter removes a chapter and any progress rows pointing at it.
func (controller *AdminBooksController) DeleteChapter(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := parseIDParam(c, "chapterID")
	if !ok {
		return
	}

	if err := controller.catalog.DeleteChapter(bookID, chapterID); err != nil {
		controller.respondChapterError(c, err, "delete chapter")
		return
	}

	respondSuccess(c, "chapter deleted")
}

func (controller *AdminBooksController) respondChapterError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, books.ErrChapterNotFound):
		respondNotFound(c, "chapter")
	case errors.Is(err, books.ErrChapterNumberTaken):
		respondConflict(c, err.Error())
	case errors.Is(err, books.ErrChapterTitleRequired),
		errors.Is(err, books.ErrChapterContentRequired),
		errors.Is(err, books.ErrChapterNumberInvalid):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
