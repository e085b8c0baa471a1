package config

const (
	// DefaultDatabasePath is the default path for the application database
	DefaultDatabasePath = "./bookclub.db"

	// DefaultBackupDir is where timestamped database backups are written
	DefaultBackupDir = "./backups"

	// DefaultUploadMaxBytes caps uploaded cover images at 2 MiB
	DefaultUploadMaxBytes = 2 * 1024 * 1024
)
