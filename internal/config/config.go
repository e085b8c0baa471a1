package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Auth
		Uploads
		Backup
		Mail
		Tasks
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Uploads struct {
		StaticPath string // Root of the static asset directory
		MaxBytes   int64  // Per-file size cap for cover uploads
	}
	Backup struct {
		Dir      string
		Schedule string // Cron format; empty disables scheduled backups
	}
	Mail struct {
		Enabled  bool
		Host     string
		Port     int
		Username string
		Password string
		From     string
		BaseURL  string // Public base URL used in invite links
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		InviteTTL       time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("static_path", "./static")
	v.SetDefault("upload_max_bytes", DefaultUploadMaxBytes)
	v.SetDefault("backup_dir", DefaultBackupDir)
	v.SetDefault("backup_schedule", "") // Disabled unless set, e.g. "0 3 * * *"

	// Mail defaults: disabled until SMTP credentials are provided
	v.SetDefault("mail_enabled", false)
	v.SetDefault("mail_host", "")
	v.SetDefault("mail_port", 587)
	v.SetDefault("mail_username", "")
	v.SetDefault("mail_password", "")
	v.SetDefault("mail_from", "")
	v.SetDefault("mail_base_url", "http://localhost:8188")

	// Auth defaults
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_invite_ttl", "24h")    // Invite token validity
	v.SetDefault("auth_bcrypt_cost", 12)      // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true) // HTTPS-only cookies

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Uploads: Uploads{
			StaticPath: v.GetString("STATIC_PATH"),
			MaxBytes:   v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Backup: Backup{
			Dir:      v.GetString("BACKUP_DIR"),
			Schedule: v.GetString("BACKUP_SCHEDULE"),
		},
		Mail: Mail{
			Enabled:  v.GetBool("MAIL_ENABLED"),
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
			BaseURL:  v.GetString("MAIL_BASE_URL"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			SessionSecret:   v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			InviteTTL:       v.GetDuration("AUTH_INVITE_TTL"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
	}
}
