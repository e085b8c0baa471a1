package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/backup"
	"github.com/SmoothCdoer9981/bookclub/internal/config"
	"github.com/SmoothCdoer9981/bookclub/internal/database"
	"github.com/SmoothCdoer9981/bookclub/internal/database/books"
	"github.com/SmoothCdoer9981/bookclub/internal/database/progress"
	"github.com/SmoothCdoer9981/bookclub/internal/database/reviews"
	http_controllers "github.com/SmoothCdoer9981/bookclub/internal/http"
	"github.com/SmoothCdoer9981/bookclub/internal/mail"
	"github.com/SmoothCdoer9981/bookclub/internal/scheduler"
	"github.com/SmoothCdoer9981/bookclub/internal/tasks"
	"github.com/SmoothCdoer9981/bookclub/internal/uploads"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// announceAdapter queues book announcements on the task client.
type announceAdapter struct {
	client *tasks.Client
}

func (a *announceAdapter) AnnounceBook(bookID uint) error {
	_, err := a.client.Add(tasks.AnnounceBookTask{BookID: bookID}).Save()
	return err
}

// inviteMailAdapter queues invite emails on the task client.
type inviteMailAdapter struct {
	client *tasks.Client
}

func (a *inviteMailAdapter) SendInvite(email, username, inviteURL string) error {
	_, err := a.client.Add(tasks.SendInviteTask{
		Email:     email,
		Username:  username,
		InviteURL: inviteURL,
	}).Save()
	return err
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bookclub v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	catalogRepo := books.NewRepository(db.DB)
	reviewRepo := reviews.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	coverStore, err := uploads.NewStore(cfg.Uploads.StaticPath, cfg.Uploads.MaxBytes)
	if err != nil {
		log.Fatalf("Failed to initialize cover storage: %v", err)
	}

	backupManager, err := backup.NewManager(db.DB, cfg.Database.Path, cfg.Backup.Dir, cfg.Uploads.MaxBytes*64)
	if err != nil {
		log.Fatalf("Failed to initialize backup manager: %v", err)
	}

	mailSender := mail.New(cfg.Mail)
	if !cfg.Mail.Enabled {
		log.Printf("Mail delivery disabled; announcement and invite emails will be dropped")
	}

	// Task queue for email fan-out
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewAnnounceBookQueue(db.DB, mailSender, cfg.Mail.BaseURL),
			tasks.NewSendInviteQueue(mailSender),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Scheduled database snapshots
	backupScheduler := scheduler.NewBackupScheduler(backupManager, cfg.Backup.Schedule)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	if err := backupScheduler.Start(schedulerCtx); err != nil {
		log.Fatalf("Failed to start backup scheduler: %v", err)
	}

	// Authentication
	authService := auth.NewService(db.DB, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	authMiddleware := auth.NewMiddleware(authService, sessionManager)

	// One secret signs both CSRF cookies and invite tokens. A generated
	// secret stops verifying after a restart, so production deployments
	// should always configure AUTH_SESSION_SECRET.
	secret := cfg.Auth.SessionSecret
	if secret == "" {
		secret, err = auth.GenerateSessionSecret()
		if err != nil {
			log.Fatalf("Failed to generate session secret: %v", err)
		}
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	inviter := auth.NewInviter(secret, cfg.Auth.InviteTTL)

	csrfSecret, err := hex.DecodeString(secret)
	if err != nil {
		// Not hex, use as raw bytes
		csrfSecret = []byte(secret)
	}

	hasUsers, _ := authService.HasUsers()
	if !hasUsers {
		log.Printf("No users found. Run '%s reset-admin' to create the first head account.", os.Args[0])
	}

	var announcer http_controllers.Announcer
	var inviteMailer http_controllers.InviteMailer
	if taskClient != nil {
		announcer = &announceAdapter{client: taskClient}
		inviteMailer = &inviteMailAdapter{client: taskClient}
	}

	routerCfg := http_controllers.RouterConfig{
		Database: db,
		Catalog:  catalogRepo,
		Reviews:  reviewRepo,
		Progress: progressRepo,
		Covers:   coverStore,

		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		Inviter:        inviter,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,

		Announcer:    announcer,
		InviteMailer: inviteMailer,

		BackupManager: backupManager,

		StaticPath: cfg.Uploads.StaticPath,
		BaseURL:    cfg.Mail.BaseURL,
		Version:    version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		backupScheduler.Stop()
		schedulerCancel()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
