package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

const invitePurpose = "invite"

var (
	ErrInviteInvalid = errors.New("invite token is invalid")
	ErrInviteExpired = errors.New("invite token has expired")
)

// InviteClaims carry the account details encoded into an invite link.
type InviteClaims struct {
	Purpose string `json:"purpose"`
	Role    string `json:"role"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Inviter issues and redeems signed invite tokens. Tokens are self-contained:
// the invited username, role and expiry live in the token, so nothing is
// stored server-side until the invite is claimed.
type Inviter struct {
	secret []byte
	ttl    time.Duration
}

// NewInviter creates an Inviter signing with the given secret. Tokens expire
// after ttl.
func NewInviter(secret string, ttl time.Duration) *Inviter {
	return &Inviter{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed invite token for the given username, email and role.
func (i *Inviter) Issue(username, email string, role entities.UserRole) (string, error) {
	if !role.Valid() {
		return "", ErrInvalidRole
	}

	now := time.Now()
	claims := InviteClaims{
		Purpose: invitePurpose,
		Role:    string(role),
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Redeem validates an invite token and returns its claims. Expired tokens
// yield ErrInviteExpired; any other parsing or signature failure yields
// ErrInviteInvalid.
func (i *Inviter) Redeem(tokenString string) (*InviteClaims, error) {
	claims := &InviteClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInviteInvalid
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrInviteExpired
		}
		return nil, ErrInviteInvalid
	}
	if !token.Valid || claims.Purpose != invitePurpose || claims.Subject == "" {
		return nil, ErrInviteInvalid
	}
	return claims, nil
}
