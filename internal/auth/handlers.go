package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	inviter        *Inviter
	loginLimiter   *LoginLimiter
}

// NewAuthController creates a new authentication controller.
func NewAuthController(service *Service, sessionManager *SessionManager, inviter *Inviter) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		inviter:        inviter,
		loginLimiter:   NewLoginLimiter(5, 0, 0),
	}
}

// Close releases background resources held by the controller.
func (ac *AuthController) Close() {
	ac.loginLimiter.Stop()
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type claimInviteRequest struct {
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password" binding:"required"`
}

// userResponse is the account shape returned by auth endpoints.
type userResponse struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role"`
	MustSetPassword bool   `json:"must_set_password,omitempty"`
}

func toUserResponse(user *entities.User) userResponse {
	resp := userResponse{
		ID:              user.ID,
		Username:        user.Username,
		Role:            string(user.Role),
		MustSetPassword: user.MustSetPassword,
	}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	return resp
}

// Login authenticates a user by username or email and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login and password are required"})
		return
	}

	ip := c.ClientIP()
	if allowed, retryAfter := ac.loginLimiter.Allow(ip, req.Login); !allowed {
		c.Header("Retry-After", retryAfter.String())
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"retry_after": retryAfter.String(),
		})
		return
	}

	user, err := ac.service.Authenticate(req.Login, req.Password)
	if err != nil {
		ac.loginLimiter.RecordFailure(ip, req.Login)
		// Same response for unknown user and wrong password
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	ac.loginLimiter.RecordSuccess(ip, req.Login)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// Logout destroys the current session.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to destroy session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Register creates a self-service account with the base "user" role and
// starts a session for it.
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, email and password are required"})
		return
	}

	user, err := ac.service.Register(req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUsernameInvalid), errors.Is(err, ErrEmailInvalid),
			errors.Is(err, ErrUsernameRequired), errors.Is(err, ErrPasswordRequired),
			errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		}
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

// InspectInvite validates an invite token and returns the account details it
// carries, so clients can render the claim form.
func (ac *AuthController) InspectInvite(c *gin.Context) {
	claims, err := ac.inviter.Redeem(c.Param("token"))
	if err != nil {
		respondInviteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": claims.Subject,
		"email":    claims.Email,
		"role":     claims.Role,
	})
}

// ClaimInvite redeems an invite token: the invited account gets the chosen
// password and a session is started. When the head pre-provisioned a
// placeholder account, its password is set; otherwise the account is created
// from the token's claims.
func (ac *AuthController) ClaimInvite(c *gin.Context) {
	claims, err := ac.inviter.Redeem(c.Param("token"))
	if err != nil {
		respondInviteError(c, err)
		return
	}

	var req claimInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	user, err := ac.service.GetUserByUsername(claims.Subject)
	switch {
	case err == nil:
		if !user.MustSetPassword {
			// Already claimed
			c.JSON(http.StatusConflict, gin.H{"error": "invite has already been used"})
			return
		}
		if err := ac.service.SetPassword(user.ID, req.Password); err != nil {
			respondPasswordError(c, err)
			return
		}
		user.MustSetPassword = false
	case errors.Is(err, ErrUserNotFound):
		var email *string
		if claims.Email != "" {
			email = &claims.Email
		}
		user, err = ac.service.CreateUser(claims.Subject, email, req.Password, entities.UserRole(claims.Role))
		if err != nil {
			if errors.Is(err, ErrUserExists) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			respondPasswordError(c, err)
			return
		}
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up account"})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// Me returns the current session's account.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.service.GetUserByID(GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// ChangePassword updates the current user's password. Invited accounts that
// have never chosen a password skip the old-password check.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_password is required"})
		return
	}

	userID := GetUserID(c)
	user, err := ac.service.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if user.MustSetPassword {
		err = ac.service.SetPassword(userID, req.NewPassword)
	} else {
		err = ac.service.ChangePassword(userID, req.OldPassword, req.NewPassword)
	}
	if err != nil {
		respondPasswordError(c, err)
		return
	}

	ac.sessionManager.ClearMustSetPassword(c.Request)
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func respondInviteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInviteExpired):
		c.JSON(http.StatusGone, gin.H{"error": "invite has expired"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invite token is invalid"})
	}
}

func respondPasswordError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update password"})
	}
}
