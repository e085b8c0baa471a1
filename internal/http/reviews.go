package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/database/reviews"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

// ReviewsController handles review submission and moderation.
type ReviewsController struct {
	reviews ReviewStore
}

func NewReviewsController(store ReviewStore) *ReviewsController {
	return &ReviewsController{reviews: store}
}

type submitReviewRequest struct {
	Content      string `json:"content" binding:"required"`
	ReviewerName string `json:"reviewer_name"`
}

// SubmitReview accepts a review for a book from a signed-in reader. The
// review is attributed to the caller's account; reviewer_name only overrides
// the display name shown alongside it. Every review starts out pending
// moderation.
func (controller *ReviewsController) SubmitReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "content is required")
		return
	}

	id := auth.GetUserID(c)
	userID := &id
	name := req.ReviewerName
	if name == "" {
		name = auth.GetUsername(c)
	}

	review, err := controller.reviews.Submit(bookID, userID, name, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrBookNotFound):
			respondNotFound(c, "book")
		case errors.Is(err, reviews.ErrContentRequired), errors.Is(err, reviews.ErrNameRequired):
			respondBadRequest(c, err.Error())
		default:
			respondInternalError(c, err, "submit review")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"review":  review,
		"message": "review submitted and awaiting moderation",
	})
}

// ListBookReviews returns the approved reviews for a book.
func (controller *ReviewsController) ListBookReviews(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	approved, err := controller.reviews.ListForBook(bookID, true)
	if err != nil {
		respondInternalError(c, err, "list reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": approved, "count": len(approved)})
}

// ListAllReviews returns every review for moderation. With ?pending=true
// only reviews still awaiting a decision are returned.
func (controller *ReviewsController) ListAllReviews(c *gin.Context) {
	all, err := controller.reviews.ListAll()
	if err != nil {
		respondInternalError(c, err, "list all reviews")
		return
	}

	if c.Query("pending") == "true" {
		pending := make([]entities.Review, 0, len(all))
		for _, review := range all {
			if !review.Approved {
				pending = append(pending, review)
			}
		}
		all = pending
	}

	c.JSON(http.StatusOK, gin.H{"reviews": all, "count": len(all)})
}

// ApproveReview publishes a pending review. Approving an already-approved
// review is a no-op.
func (controller *ReviewsController) ApproveReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.reviews.Approve(reviewID); err != nil {
		if errors.Is(err, reviews.ErrReviewNotFound) {
			respondNotFound(c, "review")
			return
		}
		respondInternalError(c, err, "approve review")
		return
	}

	respondSuccess(c, "review approved")
}

// RejectReview deletes a review. Rejection is permanent; the author is not
// notified.
func (controller *ReviewsController) RejectReview(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.reviews.Reject(reviewID); err != nil {
		if errors.Is(err, reviews.ErrReviewNotFound) {
			respondNotFound(c, "review")
			return
		}
		respondInternalError(c, err, "reject review")
		return
	}

	respondSuccess(c, "review rejected")
}
