package tasks

import "time"

// Config tunes the background queue that delivers announcement and invite
// email.
type Config struct {
	// Workers is the number of concurrent task workers.
	Workers int

	// MaxRetries is the maximum delivery attempts for a failed task.
	MaxRetries int

	// RetryDelay is the backoff between attempts.
	RetryDelay time.Duration

	// TaskTimeout bounds a single execution.
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are handed back to the queue.
	ReleaseAfter time.Duration

	// CleanupInterval is how often completed tasks are swept.
	CleanupInterval time.Duration

	// RetentionDuration is how long completed tasks are kept for inspection.
	RetentionDuration time.Duration
}

// DefaultConfig returns the defaults used when no task settings are
// configured. Two workers is plenty for mail fan-out on a single-node
// deployment.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       5 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}
