package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/SmoothCdoer9981/bookclub/internal/config"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\- ]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("username or email already in use")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidRole      = errors.New("invalid role")
	ErrLastHead         = errors.New("cannot remove or demote the last head account")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, letters, digits, spaces, underscore or hyphen")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// Service handles authentication and account management.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

func validateUsername(username string) error {
	if username == "" {
		return ErrUsernameRequired
	}
	if !usernamePattern.MatchString(username) {
		return ErrUsernameInvalid
	}
	return nil
}

func validateEmail(email string) error {
	// RFC 5321 length limit is 254
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// checkDuplicate returns ErrUserExists when username or email is already
// taken by an account other than excludeID.
func (s *Service) checkDuplicate(tx *gorm.DB, username string, email *string, excludeID uint) error {
	query := tx.Model(&entities.User{}).Where("username = ?", username)
	if email != nil {
		query = tx.Model(&entities.User{}).Where("username = ? OR email = ?", username, *email)
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return ErrUserExists
	}
	return nil
}

// Register creates a self-service account with the base "user" role.
func (s *Service) Register(username, email, password string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	if err := s.checkDuplicate(s.db, username, &email, 0); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        &email,
		PasswordHash: passwordHash,
		Role:         entities.UserRoleUser,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateUser creates an account with explicit credentials and role. Used by
// head-tier user administration; email is optional.
func (s *Service) CreateUser(username string, email *string, password string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if email != nil {
		if err := validateEmail(*email); err != nil {
			return nil, err
		}
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.checkDuplicate(s.db, username, email, 0); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// CreateInvitedUser provisions a placeholder account with an unusable random
// password. The account is claimed through the invite-token flow, which
// forces a password-set step.
func (s *Service) CreateInvitedUser(username string, email *string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if email != nil {
		if err := validateEmail(*email); err != nil {
			return nil, err
		}
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if err := s.checkDuplicate(s.db, username, email, 0); err != nil {
		return nil, err
	}

	placeholder, err := GeneratePlaceholderPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate placeholder password: %w", err)
	}
	passwordHash, err := HashPassword(placeholder, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:        username,
		Email:           email,
		PasswordHash:    passwordHash,
		Role:            role,
		MustSetPassword: true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user. The login value
// may be either a username or an email address.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ? OR email = ?", login, login).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, err
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login_at", now)
	user.LastLoginAt = &now

	return &user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := s.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by their exact username.
func (s *Service) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns all accounts ordered by creation time.
func (s *Service) ListUsers() ([]entities.User, error) {
	var users []entities.User
	err := s.db.Order("created_at ASC").Find(&users).Error
	return users, err
}

// ChangePassword updates a user's password after verifying the old one.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}

	return s.SetPassword(userID, newPassword)
}

// SetPassword replaces a user's password without checking the old one and
// clears the forced password-set flag. Used by the invite claim flow and
// head-tier password resets.
func (s *Service) SetPassword(userID uint, newPassword string) error {
	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	result := s.db.Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"password_hash":     newHash,
		"must_set_password": false,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUser edits an account's username and role, optionally resetting the
// password. Head-tier operation. Demoting the only remaining head account is
// refused, mirroring DeleteUser.
func (s *Service) UpdateUser(id uint, username string, role entities.UserRole, newPassword string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(s.db, username, nil, id); err != nil {
		return nil, err
	}

	// Demoting the only remaining head would lock everyone out of account
	// administration, same as deleting it.
	if user.Role == entities.UserRoleHead && role != entities.UserRoleHead {
		var heads int64
		if err := s.db.Model(&entities.User{}).Where("role = ?", entities.UserRoleHead).Count(&heads).Error; err != nil {
			return nil, err
		}
		if heads <= 1 {
			return nil, ErrLastHead
		}
	}

	user.Username = username
	user.Role = role
	if newPassword != "" {
		hash, err := HashPassword(newPassword, s.config.BcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		user.MustSetPassword = false
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdateProfile lets a user change their own username and email, with
// duplicate checks against every other account.
func (s *Service) UpdateProfile(id uint, username, email string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}

	var emailPtr *string
	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		emailPtr = &email
	}

	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.checkDuplicate(s.db, username, emailPtr, id); err != nil {
		return nil, err
	}

	user.Username = username
	if emailPtr != nil {
		user.Email = emailPtr
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account together with its reading progress; the
// user's reviews are detached, keeping the display name. Deleting the only
// remaining head account is refused so at least one head always exists.
func (s *Service) DeleteUser(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var user entities.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.Role == entities.UserRoleHead {
			var heads int64
			if err := tx.Model(&entities.User{}).Where("role = ?", entities.UserRoleHead).Count(&heads).Error; err != nil {
				return err
			}
			if heads <= 1 {
				return ErrLastHead
			}
		}

		if err := tx.Where("user_id = ?", id).Delete(&entities.ReadingProgress{}).Error; err != nil {
			return fmt.Errorf("failed to delete reading progress: %w", err)
		}
		if err := tx.Model(&entities.Review{}).Where("user_id = ?", id).Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach reviews: %w", err)
		}
		return tx.Delete(&user).Error
	})
}

// PromoteToHead raises the named account to the head tier. CLI maintenance
// operation.
func (s *Service) PromoteToHead(username string) (*entities.User, error) {
	user, err := s.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("role", entities.UserRoleHead).Error; err != nil {
		return nil, err
	}
	user.Role = entities.UserRoleHead
	return user, nil
}

// ResetAdmin deletes every account and creates a single head account with
// the given credentials. CLI maintenance operation.
func (s *Service) ResetAdmin(username, password string) (*entities.User, error) {
	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         entities.UserRoleHead,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entities.User{}).Error; err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// HasUsers returns true if any accounts exist.
func (s *Service) HasUsers() (bool, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByRole returns the number of accounts holding the given role.
func (s *Service) CountByRole(role entities.UserRole) (int64, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
