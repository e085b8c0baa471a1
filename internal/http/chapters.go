package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/database/books"
)

// ChaptersController serves chapter content with prev/next navigation.
type ChaptersController struct {
	catalog  CatalogStore
	progress ProgressStore
}

func NewChaptersController(catalog CatalogStore, progress ProgressStore) *ChaptersController {
	return &ChaptersController{
		catalog:  catalog,
		progress: progress,
	}
}

// GetChapter returns a chapter's content together with its neighbours by
// chapter number. Viewing a chapter while signed in moves the reader's
// bookmark for the book; a failure to record it never fails the read.
func (controller *ChaptersController) GetChapter(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := parseIDParam(c, "chapterID")
	if !ok {
		return
	}

	chapter, err := controller.catalog.GetChapter(bookID, chapterID)
	if err != nil {
		switch {
		case errors.Is(err, books.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, books.ErrChapterNotFound):
			respondNotFound(c, "chapter")
		default:
			respondInternalError(c, err, "get chapter")
		}
		return
	}

	prev, next, err := controller.catalog.Navigate(bookID, chapter.ChapterNumber)
	if err != nil {
		respondInternalError(c, err, "navigate chapters")
		return
	}

	if userID := auth.GetUserID(c); userID != 0 {
		if err := controller.progress.RecordView(userID, bookID, chapterID); err != nil {
			log.Printf("Failed to record progress for user %d chapter %d: %v", userID, chapterID, err)
		}
	}

	response := gin.H{"chapter": chapter}
	if prev != nil {
		response["prev"] = prev.Summary()
	}
	if next != nil {
		response["next"] = next.Summary()
	}

	c.JSON(http.StatusOK, response)
}
