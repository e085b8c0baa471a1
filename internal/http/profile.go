package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
)

// ProfileController serves the signed-in user's own data.
type ProfileController struct {
	service  *auth.Service
	reviews  ReviewStore
	progress ProgressStore
}

func NewProfileController(service *auth.Service, reviews ReviewStore, progress ProgressStore) *ProfileController {
	return &ProfileController{
		service:  service,
		reviews:  reviews,
		progress: progress,
	}
}

type updateProfileRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
}

// UpdateProfile changes the caller's username and email.
func (controller *ProfileController) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username is required")
		return
	}

	user, err := controller.service.UpdateProfile(auth.GetUserID(c), req.Username, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			respondConflict(c, err.Error())
		case errors.Is(err, auth.ErrUsernameRequired),
			errors.Is(err, auth.ErrUsernameInvalid),
			errors.Is(err, auth.ErrEmailInvalid):
			respondBadRequest(c, err.Error())
		case errors.Is(err, auth.ErrUserNotFound):
			respondNotFound(c, "user")
		default:
			respondInternalError(c, err, "update profile")
		}
		return
	}

	c.JSON(http.StatusOK, summarizeUser(*user))
}

// MyProgress lists the caller's bookmarks across all books, most recently
// read first.
func (controller *ProfileController) MyProgress(c *gin.Context) {
	records, err := controller.progress.ListForUser(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list progress")
		return
	}

	type progressItem struct {
		BookID        uint      `json:"book_id"`
		BookTitle     string    `json:"book_title"`
		ChapterID     uint      `json:"chapter_id"`
		ChapterNumber int       `json:"chapter_number"`
		ChapterTitle  string    `json:"chapter_title"`
		LastReadAt    time.Time `json:"last_read_at"`
	}

	items := make([]progressItem, 0, len(records))
	for _, record := range records {
		items = append(items, progressItem{
			BookID:        record.BookID,
			BookTitle:     record.Book.Title,
			ChapterID:     record.ChapterID,
			ChapterNumber: record.Chapter.ChapterNumber,
			ChapterTitle:  record.Chapter.Title,
			LastReadAt:    record.LastReadAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"progress": items, "count": len(items)})
}

// MyReviews lists the caller's reviews, including ones still pending
// moderation.
func (controller *ProfileController) MyReviews(c *gin.Context) {
	mine, err := controller.reviews.ListForUser(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list own reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": mine, "count": len(mine)})
}
