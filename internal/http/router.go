package http

import (
	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	// Cover images are served from the static tree
	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	booksController := NewBooksController(cfg.Catalog, cfg.Reviews, cfg.Progress)
	chaptersController := NewChaptersController(cfg.Catalog, cfg.Progress)
	reviewsController := NewReviewsController(cfg.Reviews)
	authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.Inviter)
	adminBooksController := NewAdminBooksController(cfg.Catalog, cfg.Covers, cfg.Announcer)
	usersController := NewUsersController(cfg.AuthService, cfg.Inviter, cfg.InviteMailer, cfg.BaseURL)
	profileController := NewProfileController(cfg.AuthService, cfg.Reviews, cfg.Progress)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Session endpoints
	router.POST("/api/auth/login", authController.Login)
	router.POST("/api/auth/register", authController.Register)
	router.GET("/api/invite/:token", authController.InspectInvite)
	router.POST("/api/invite/:token", authController.ClaimInvite)

	// Public catalog
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/:id", booksController.GetBook)
	router.GET("/api/books/:id/chapters/:chapterID", chaptersController.GetChapter)
	router.GET("/api/books/:id/reviews", reviewsController.ListBookReviews)

	// Signed-in routes
	authed := router.Group("/api", cfg.AuthMiddleware.RequireAuth())
	{
		authed.POST("/books/:id/reviews", reviewsController.SubmitReview)

		authed.POST("/auth/logout", authController.Logout)
		authed.GET("/auth/me", authController.Me)
		authed.POST("/auth/password", authController.ChangePassword)

		authed.PUT("/profile", profileController.UpdateProfile)
		authed.GET("/profile/progress", profileController.MyProgress)
		authed.GET("/profile/reviews", profileController.MyReviews)
	}

	// Admin tier: catalog management and review moderation
	admin := router.Group("/api/admin", cfg.AuthMiddleware.RequireTier(entities.UserRoleAdmin))
	{
		admin.POST("/books", adminBooksController.CreateBook)
		admin.PUT("/books/:id", adminBooksController.UpdateBook)
		admin.DELETE("/books/:id", adminBooksController.DeleteBook)
		admin.POST("/books/:id/chapters", adminBooksController.AddChapter)
		admin.PUT("/books/:id/chapters/:chapterID", adminBooksController.UpdateChapter)
		admin.DELETE("/books/:id/chapters/:chapterID", adminBooksController.DeleteChapter)

		admin.GET("/reviews", reviewsController.ListAllReviews)
		admin.POST("/reviews/:id/approve", reviewsController.ApproveReview)
		admin.DELETE("/reviews/:id", reviewsController.RejectReview)
	}

	// Head tier: account administration and backups
	head := router.Group("/api/admin", cfg.AuthMiddleware.RequireTier(entities.UserRoleHead))
	{
		head.GET("/users", usersController.ListUsers)
		head.POST("/users", usersController.CreateUser)
		head.PUT("/users/:id", usersController.UpdateUser)
		head.DELETE("/users/:id", usersController.DeleteUser)
		head.POST("/users/invite", usersController.Invite)

		if cfg.BackupManager != nil {
			backupController := NewBackupController(cfg.BackupManager)
			head.POST("/backups", backupController.CreateBackup)
			head.GET("/backups", backupController.ListBackups)
			head.GET("/backups/:name/download", backupController.DownloadBackup)
			head.DELETE("/backups/:name", backupController.DeleteBackup)
			head.POST("/backups/:name/restore", backupController.RestoreBackup)
			head.POST("/backups/restore-upload", backupController.RestoreUpload)
		}
	}

	return router
}
