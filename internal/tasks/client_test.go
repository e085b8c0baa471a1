package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	executed := make(chan string, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	})
	client.Register(queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	ids, err := client.Add(TestTask{Value: "hello"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

// recordingSender captures sent mail for assertions.
type recordingSender struct {
	mu            sync.Mutex
	announcements []string
	invites       []string
	failFor       map[string]bool
}

func (r *recordingSender) SendBookAnnouncement(to, username, bookTitle, bookURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[to] {
		return errors.New("smtp rejected")
	}
	r.announcements = append(r.announcements, to)
	return nil
}

func (r *recordingSender) SendInvite(to, username, inviteURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[to] {
		return errors.New("smtp rejected")
	}
	r.invites = append(r.invites, to)
	return nil
}

func setupAnnounceDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Book{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestAnnounceBookProcessor(t *testing.T) {
	db := setupAnnounceDB(t)

	book := entities.Book{Title: "Dune", Description: "Desert planet."}
	require.NoError(t, db.Create(&book).Error)

	users := []entities.User{
		{Username: "reader1", Email: strPtr("one@example.com"), PasswordHash: "x", Role: entities.UserRoleUser},
		{Username: "reader2", Email: strPtr("two@example.com"), PasswordHash: "x", Role: entities.UserRoleUser},
		{Username: "no-email", PasswordHash: "x", Role: entities.UserRoleUser},
	}
	require.NoError(t, db.Create(&users).Error)

	sender := &recordingSender{}
	processor := AnnounceBookProcessor(db, sender, "http://localhost:8188")

	err := processor(context.Background(), AnnounceBookTask{BookID: book.ID})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, sender.announcements)
}

func TestAnnounceBookProcessor_SkipsFailedRecipients(t *testing.T) {
	db := setupAnnounceDB(t)

	book := entities.Book{Title: "Dune", Description: "Desert planet."}
	require.NoError(t, db.Create(&book).Error)

	users := []entities.User{
		{Username: "reader1", Email: strPtr("one@example.com"), PasswordHash: "x", Role: entities.UserRoleUser},
		{Username: "reader2", Email: strPtr("two@example.com"), PasswordHash: "x", Role: entities.UserRoleUser},
	}
	require.NoError(t, db.Create(&users).Error)

	sender := &recordingSender{failFor: map[string]bool{"one@example.com": true}}
	processor := AnnounceBookProcessor(db, sender, "http://localhost:8188")

	// One bad address must not fail the task
	err := processor(context.Background(), AnnounceBookTask{BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"two@example.com"}, sender.announcements)
}

func TestAnnounceBookProcessor_MissingBook(t *testing.T) {
	db := setupAnnounceDB(t)

	sender := &recordingSender{}
	processor := AnnounceBookProcessor(db, sender, "http://localhost:8188")

	// Deleted book: no error, nothing sent
	err := processor(context.Background(), AnnounceBookTask{BookID: 999})
	require.NoError(t, err)
	assert.Empty(t, sender.announcements)
}

func TestSendInviteProcessor(t *testing.T) {
	sender := &recordingSender{}
	processor := SendInviteProcessor(sender)

	err := processor(context.Background(), SendInviteTask{
		Email:     "invitee@example.com",
		Username:  "invitee",
		InviteURL: "http://localhost:8188/invite/token",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"invitee@example.com"}, sender.invites)

	// Failed delivery propagates so the queue retries
	failing := &recordingSender{failFor: map[string]bool{"invitee@example.com": true}}
	err = SendInviteProcessor(failing)(context.Background(), SendInviteTask{
		Email:    "invitee@example.com",
		Username: "invitee",
	})
	assert.Error(t, err)
}

func TestTaskConfigs(t *testing.T) {
	announceCfg := AnnounceBookTask{BookID: 1}.Config()
	assert.Equal(t, "announce_book", announceCfg.Name)
	assert.Equal(t, 3, announceCfg.MaxAttempts)
	assert.NotNil(t, announceCfg.Retention)

	inviteCfg := SendInviteTask{}.Config()
	assert.Equal(t, "send_invite", inviteCfg.Name)
	assert.Equal(t, 3, inviteCfg.MaxAttempts)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 5*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}
