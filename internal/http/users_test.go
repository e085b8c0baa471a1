package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/config"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

type recordingMailer struct {
	invites []string
}

func (m *recordingMailer) SendInvite(email, username, inviteURL string) error {
	m.invites = append(m.invites, email)
	return nil
}

func setupUsersController(t *testing.T) (*UsersController, *auth.Service, *recordingMailer) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entities.User{}, &entities.Review{}, &entities.ReadingProgress{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	service := auth.NewService(db, config.Auth{BcryptCost: 10})
	inviter := auth.NewInviter("test-invite-secret", time.Hour)
	mailer := &recordingMailer{}
	controller := NewUsersController(service, inviter, mailer, "http://localhost:8080")
	return controller, service, mailer
}

func TestCreateUserEndpoint(t *testing.T) {
	controller, service, _ := setupUsersController(t)

	router := gin.New()
	router.POST("/api/admin/users", controller.CreateUser)

	w := postJSON(router, "/api/admin/users", gin.H{
		"username": "librarian",
		"email":    "lib@example.com",
		"password": "password12345",
		"role":     "admin",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	user, err := service.GetUserByUsername("librarian")
	if err != nil {
		t.Fatalf("created user not found: %v", err)
	}
	if user.Role != entities.UserRoleAdmin {
		t.Errorf("expected admin role, got %q", user.Role)
	}
}

func TestCreateUserEndpoint_BadRole(t *testing.T) {
	controller, _, _ := setupUsersController(t)

	router := gin.New()
	router.POST("/api/admin/users", controller.CreateUser)

	w := postJSON(router, "/api/admin/users", gin.H{
		"username": "librarian",
		"password": "password12345",
		"role":     "emperor",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestDeleteUserEndpoint_SelfDeleteGuard(t *testing.T) {
	controller, service, _ := setupUsersController(t)

	head, err := service.CreateUser("overseer", nil, "password12345", entities.UserRoleHead)
	if err != nil {
		t.Fatalf("failed to seed head: %v", err)
	}

	router := gin.New()
	router.DELETE("/api/admin/users/:id", asUser(head.ID, head.Username, entities.UserRoleHead), controller.DeleteUser)

	req, _ := http.NewRequest("DELETE", "/api/admin/users/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409 for self-delete, got %d: %s", w.Code, w.Body.String())
	}
	if _, err := service.GetUserByID(head.ID); err != nil {
		t.Error("head account should still exist")
	}
}

func TestDeleteUserEndpoint_LastHead(t *testing.T) {
	controller, service, _ := setupUsersController(t)

	if _, err := service.CreateUser("overseer", nil, "password12345", entities.UserRoleHead); err != nil {
		t.Fatalf("failed to seed head: %v", err)
	}

	router := gin.New()
	// A different head tries to delete the only other head account
	router.DELETE("/api/admin/users/:id", asUser(99, "other", entities.UserRoleHead), controller.DeleteUser)

	req, _ := http.NewRequest("DELETE", "/api/admin/users/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409 for last head, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInviteEndpoint(t *testing.T) {
	controller, service, mailer := setupUsersController(t)

	router := gin.New()
	router.POST("/api/admin/users/invite", controller.Invite)

	w := postJSON(router, "/api/admin/users/invite", gin.H{
		"username": "newcomer",
		"email":    "new@example.com",
		"role":     "user",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Token     string `json:"token"`
		InviteURL string `json:"invite_url"`
		Username  string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Token == "" {
		t.Error("expected a token in the response")
	}
	if response.InviteURL != "http://localhost:8080/api/invite/"+response.Token {
		t.Errorf("unexpected invite URL %q", response.InviteURL)
	}
	if len(mailer.invites) != 1 || mailer.invites[0] != "new@example.com" {
		t.Errorf("expected invite mail queued, got %v", mailer.invites)
	}

	// The username is reserved immediately by a placeholder account that
	// cannot log in until the invite is claimed.
	user, err := service.GetUserByUsername("newcomer")
	if err != nil {
		t.Fatalf("invited account not provisioned: %v", err)
	}
	if !user.MustSetPassword {
		t.Error("invited account should be awaiting its first password")
	}
	if user.Role != entities.UserRoleUser {
		t.Errorf("expected user role, got %q", user.Role)
	}
	if user.Email == nil || *user.Email != "new@example.com" {
		t.Errorf("expected email recorded on invited account, got %v", user.Email)
	}
}

func TestInviteEndpoint_NoEmailSkipsMail(t *testing.T) {
	controller, _, mailer := setupUsersController(t)

	router := gin.New()
	router.POST("/api/admin/users/invite", controller.Invite)

	w := postJSON(router, "/api/admin/users/invite", gin.H{
		"username": "newcomer",
		"role":     "user",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(mailer.invites) != 0 {
		t.Errorf("expected no invite mail, got %v", mailer.invites)
	}
}

func TestInviteEndpoint_TakenUsername(t *testing.T) {
	controller, service, _ := setupUsersController(t)

	if _, err := service.CreateUser("newcomer", nil, "password12345", entities.UserRoleUser); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	router := gin.New()
	router.POST("/api/admin/users/invite", controller.Invite)

	w := postJSON(router, "/api/admin/users/invite", gin.H{
		"username": "newcomer",
		"role":     "user",
	})

	if w.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInviteEndpoint_BadRole(t *testing.T) {
	controller, _, _ := setupUsersController(t)

	router := gin.New()
	router.POST("/api/admin/users/invite", controller.Invite)

	w := postJSON(router, "/api/admin/users/invite", gin.H{
		"username": "newcomer",
		"role":     "emperor",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
