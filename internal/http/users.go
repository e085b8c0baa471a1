package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

// InviteMailer queues delivery of an invite link.
type InviteMailer interface {
	SendInvite(email, username, inviteURL string) error
}

// UsersController handles account administration. All routes require the
// head tier.
type UsersController struct {
	service *auth.Service
	inviter *auth.Inviter
	mailer  InviteMailer
	baseURL string
}

func NewUsersController(service *auth.Service, inviter *auth.Inviter, mailer InviteMailer, baseURL string) *UsersController {
	return &UsersController{
		service: service,
		inviter: inviter,
		mailer:  mailer,
		baseURL: baseURL,
	}
}

type userSummary struct {
	ID              uint              `json:"id"`
	Username        string            `json:"username"`
	Email           string            `json:"email,omitempty"`
	Role            entities.UserRole `json:"role"`
	MustSetPassword bool              `json:"must_set_password,omitempty"`
	LastLoginAt     *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func summarizeUser(user entities.User) userSummary {
	s := userSummary{
		ID:              user.ID,
		Username:        user.Username,
		Role:            user.Role,
		MustSetPassword: user.MustSetPassword,
		LastLoginAt:     user.LastLoginAt,
		CreatedAt:       user.CreatedAt,
	}
	if user.Email != nil {
		s.Email = *user.Email
	}
	return s
}

// ListUsers returns every account.
func (controller *UsersController) ListUsers(c *gin.Context) {
	users, err := controller.service.ListUsers()
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}

	summaries := make([]userSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, summarizeUser(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": summaries, "count": len(summaries)})
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// CreateUser creates an account with explicit credentials and role.
func (controller *UsersController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username, password and role are required")
		return
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	user, err := controller.service.CreateUser(req.Username, email, req.Password, entities.UserRole(req.Role))
	if err != nil {
		controller.respondUserError(c, err, "create user")
		return
	}

	respondCreated(c, summarizeUser(*user))
}

type updateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Password string `json:"password"`
}

// UpdateUser edits an account's username and role; a non-empty password
// resets the account's credentials.
func (controller *UsersController) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and role are required")
		return
	}

	user, err := controller.service.UpdateUser(userID, req.Username, entities.UserRole(req.Role), req.Password)
	if err != nil {
		controller.respondUserError(c, err, "update user")
		return
	}

	c.JSON(http.StatusOK, summarizeUser(*user))
}

// DeleteUser removes an account. The last head account and the caller's own
// account are protected.
func (controller *UsersController) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if userID == auth.GetUserID(c) {
		respondConflict(c, "cannot delete your own account")
		return
	}

	if err := controller.service.DeleteUser(userID); err != nil {
		controller.respondUserError(c, err, "delete user")
		return
	}

	respondSuccess(c, "user deleted")
}

type inviteRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email"`
	Role     string `json:"role" binding:"required"`
}

// Invite provisions a placeholder account with an unusable password and
// issues a signed invite token for it. The username is reserved from this
// moment; claiming the token sets the real password. When an email address is
// given the invite link is also mailed out, and the token is returned either
// way so the link can be passed along out of band.
func (controller *UsersController) Invite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and role are required")
		return
	}

	role := entities.UserRole(req.Role)
	if !role.Valid() {
		respondBadRequest(c, "invalid role")
		return
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	user, err := controller.service.CreateInvitedUser(req.Username, email, role)
	if err != nil {
		controller.respondUserError(c, err, "provision invited account")
		return
	}

	token, err := controller.inviter.Issue(user.Username, req.Email, role)
	if err != nil {
		respondInternalError(c, err, "issue invite")
		return
	}

	inviteURL := fmt.Sprintf("%s/api/invite/%s", controller.baseURL, token)

	if req.Email != "" && controller.mailer != nil {
		if err := controller.mailer.SendInvite(req.Email, req.Username, inviteURL); err != nil {
			log.Printf("Failed to queue invite email for %s: %v", req.Username, err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"invite_url": inviteURL,
		"username":   req.Username,
		"role":       role,
	})
}

func (controller *UsersController) respondUserError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		respondNotFound(c, "user")
	case errors.Is(err, auth.ErrUserExists):
		respondConflict(c, err.Error())
	case errors.Is(err, auth.ErrLastHead):
		respondConflict(c, err.Error())
	case errors.Is(err, auth.ErrUsernameRequired),
		errors.Is(err, auth.ErrUsernameInvalid),
		errors.Is(err, auth.ErrEmailInvalid),
		errors.Is(err, auth.ErrPasswordRequired),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordTooLong):
		respondBadRequest(c, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
