// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/SmoothCdoer9981/bookclub/internal/backup"
)

// BackupScheduler takes periodic database snapshots on a cron schedule.
type BackupScheduler struct {
	manager  *backup.Manager
	schedule string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewBackupScheduler creates a scheduler running manager.Create on the given
// five-field cron schedule. An empty schedule disables it.
func NewBackupScheduler(manager *backup.Manager, schedule string) *BackupScheduler {
	return &BackupScheduler{
		manager:  manager,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if a schedule is configured.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.schedule == "" {
		log.Printf("Backup scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runBackup()
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule '%s': %w", s.schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Backup scheduler: started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running backup to
// complete.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Backup scheduler: stopped")
}

// RunNow triggers an immediate backup outside the schedule.
func (s *BackupScheduler) RunNow() {
	go s.runBackup()
}

// IsRunning returns whether the scheduler is active.
func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next backup will occur.
func (s *BackupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *BackupScheduler) runBackup() {
	start := time.Now()
	info, err := s.manager.Create()
	if err != nil {
		log.Printf("Scheduled backup failed: %v", err)
		return
	}
	log.Printf("Scheduled backup %s created (%d bytes) in %v", info.Name, info.SizeBytes, time.Since(start))
}
