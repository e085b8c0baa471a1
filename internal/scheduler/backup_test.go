package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SmoothCdoer9981/bookclub/internal/backup"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

func setupManager(t *testing.T) *backup.Manager {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Book{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	mgr, err := backup.NewManager(db, dbPath, filepath.Join(dir, "backups"), 0)
	require.NoError(t, err)
	return mgr
}

func TestBackupScheduler_DisabledWithoutSchedule(t *testing.T) {
	s := NewBackupScheduler(setupManager(t), "")

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.GetNextRunTime())
}

func TestBackupScheduler_InvalidSchedule(t *testing.T) {
	s := NewBackupScheduler(setupManager(t), "not a schedule")

	err := s.Start(context.Background())
	assert.Error(t, err)
}

func TestBackupScheduler_StartStop(t *testing.T) {
	s := NewBackupScheduler(setupManager(t), "0 3 * * *")

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	next := s.GetNextRunTime()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestBackupScheduler_ContextCancelStops(t *testing.T) {
	s := NewBackupScheduler(setupManager(t), "0 3 * * *")

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.True(t, s.IsRunning())

	cancel()

	// Stop runs from a goroutine watching the context
	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, s.IsRunning())
}

func TestBackupScheduler_RunNow(t *testing.T) {
	mgr := setupManager(t)
	s := NewBackupScheduler(mgr, "0 3 * * *")

	s.RunNow()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		backups, err := mgr.List()
		require.NoError(t, err)
		if len(backups) == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("RunNow did not produce a backup in time")
}
