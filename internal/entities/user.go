package entities

import (
	"time"
)

// UserRole is an ordered permission tier. Comparisons go through Rank so
// adding a tier is a one-line change.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
	UserRoleHead  UserRole = "head"
)

// Rank returns the position of the role in the tier order.
// Unknown roles rank below every valid tier.
func (r UserRole) Rank() int {
	switch r {
	case UserRoleUser:
		return 1
	case UserRoleAdmin:
		return 2
	case UserRoleHead:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether the role meets or exceeds the given tier.
func (r UserRole) AtLeast(tier UserRole) bool {
	return r.Rank() >= tier.Rank() && r.Rank() > 0
}

// Valid reports whether the role is one of the known tiers.
func (r UserRole) Valid() bool {
	return r.Rank() > 0
}

type User struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Username     string   `gorm:"uniqueIndex;size:80" json:"username"`
	Email        *string  `gorm:"uniqueIndex;size:254" json:"email,omitempty"`
	PasswordHash string   `gorm:"size:128" json:"-"`
	Role         UserRole `gorm:"size:20;default:'user'" json:"role"`

	// MustSetPassword is true for invited accounts until they pick a password.
	MustSetPassword bool `gorm:"default:false" json:"must_set_password"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
