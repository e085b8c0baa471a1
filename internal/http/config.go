package http

import (
	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/backup"
	"github.com/SmoothCdoer9981/bookclub/internal/database"
)

// RouterConfig contains all dependencies and configuration needed to create
// the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Catalog  CatalogStore
	Reviews  ReviewStore
	Progress ProgressStore
	Covers   CoverStore

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	Inviter        *auth.Inviter
	CSRFSecret     []byte
	SecureCookies  bool

	// Background work
	Announcer    Announcer
	InviteMailer InviteMailer

	// Maintenance
	BackupManager *backup.Manager

	// Static file serving
	StaticPath string

	// BaseURL is the externally visible address, used in invite links and
	// announcement emails.
	BaseURL string

	// Application info
	Version string
}
