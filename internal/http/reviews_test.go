package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	return postJSONMethod(router, "POST", path, body)
}

func postJSONMethod(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req, _ := http.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitReview_RequiresSignIn(t *testing.T) {
	store := newMockReviews()
	controller := NewReviewsController(store)
	m := &auth.Middleware{}

	router := gin.New()
	router.POST("/api/books/:id/reviews", m.RequireAuth(), controller.SubmitReview)

	w := postJSON(router, "/api/books/1/reviews", gin.H{
		"content":       "Loved it",
		"reviewer_name": "A Reader",
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d: %s", w.Code, w.Body.String())
	}
	if all, _ := store.ListAll(); len(all) != 0 {
		t.Errorf("expected no stored reviews, got %d", len(all))
	}
}

func TestSubmitReview_DisplayNameOverride(t *testing.T) {
	store := newMockReviews()
	controller := NewReviewsController(store)

	router := gin.New()
	router.POST("/api/books/:id/reviews", asUser(4, "dana", entities.UserRoleUser), controller.SubmitReview)

	w := postJSON(router, "/api/books/1/reviews", gin.H{
		"content":       "Loved it",
		"reviewer_name": "A Reader",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	all, _ := store.ListAll()
	if len(all) != 1 {
		t.Fatalf("expected 1 stored review, got %d", len(all))
	}
	review := all[0]
	if review.UserID == nil || *review.UserID != 4 {
		t.Errorf("expected review attributed to user 4, got %v", review.UserID)
	}
	if review.ReviewerName != "A Reader" {
		t.Errorf("expected display name override to be kept, got %q", review.ReviewerName)
	}
	if review.Approved {
		t.Error("new review must start pending")
	}
}

func TestSubmitReview_SignedInDefaultsName(t *testing.T) {
	store := newMockReviews()
	controller := NewReviewsController(store)

	router := gin.New()
	router.POST("/api/books/:id/reviews", asUser(9, "paul", entities.UserRoleUser), controller.SubmitReview)

	w := postJSON(router, "/api/books/1/reviews", gin.H{"content": "Loved it"})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	all, _ := store.ListAll()
	review := all[0]
	if review.UserID == nil || *review.UserID != 9 {
		t.Errorf("expected review attributed to user 9, got %v", review.UserID)
	}
	if review.ReviewerName != "paul" {
		t.Errorf("expected username as default reviewer name, got %q", review.ReviewerName)
	}
}

func TestSubmitReview_Validation(t *testing.T) {
	controller := NewReviewsController(newMockReviews())

	router := gin.New()
	router.POST("/api/books/:id/reviews", asUser(4, "dana", entities.UserRoleUser), controller.SubmitReview)

	w := postJSON(router, "/api/books/1/reviews", gin.H{"reviewer_name": "A Reader"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for missing content, got %d", w.Code)
	}
}

func TestSubmitReview_UnknownBook(t *testing.T) {
	store := newMockReviews()
	store.bookExists = func(uint) bool { return false }
	controller := NewReviewsController(store)

	router := gin.New()
	router.POST("/api/books/:id/reviews", asUser(4, "dana", entities.UserRoleUser), controller.SubmitReview)

	w := postJSON(router, "/api/books/404/reviews", gin.H{
		"content":       "Loved it",
		"reviewer_name": "A Reader",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestListAllReviews_PendingFilter(t *testing.T) {
	store := newMockReviews()
	pending, _ := store.Submit(1, nil, "anon", "still waiting")
	done, _ := store.Submit(1, nil, "fan", "published")
	if err := store.Approve(done.ID); err != nil {
		t.Fatalf("failed to approve: %v", err)
	}

	controller := NewReviewsController(store)

	router := gin.New()
	router.GET("/api/admin/reviews", controller.ListAllReviews)

	req, _ := http.NewRequest("GET", "/api/admin/reviews?pending=true", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Reviews []entities.Review `json:"reviews"`
		Count   int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Count != 1 || response.Reviews[0].ID != pending.ID {
		t.Errorf("expected only the pending review, got %+v", response.Reviews)
	}
}

func TestApproveReview(t *testing.T) {
	store := newMockReviews()
	review, _ := store.Submit(1, nil, "anon", "great")

	controller := NewReviewsController(store)

	router := gin.New()
	router.POST("/api/admin/reviews/:id/approve", controller.ApproveReview)

	req, _ := http.NewRequest("POST", "/api/admin/reviews/1/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !store.byID[review.ID].Approved {
		t.Error("review was not approved")
	}
}

func TestApproveReview_NotFound(t *testing.T) {
	controller := NewReviewsController(newMockReviews())

	router := gin.New()
	router.POST("/api/admin/reviews/:id/approve", controller.ApproveReview)

	req, _ := http.NewRequest("POST", "/api/admin/reviews/999/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestRejectReview(t *testing.T) {
	store := newMockReviews()
	review, _ := store.Submit(1, nil, "anon", "spam")

	controller := NewReviewsController(store)

	router := gin.New()
	router.DELETE("/api/admin/reviews/:id", controller.RejectReview)

	req, _ := http.NewRequest("DELETE", "/api/admin/reviews/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if _, ok := store.byID[review.ID]; ok {
		t.Error("rejected review should be gone")
	}
}
