package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
	"gorm.io/gorm"

	"github.com/SmoothCdoer9981/bookclub/internal/entities"
	"github.com/SmoothCdoer9981/bookclub/internal/mail"
)

// AnnounceBookTask emails every account that has an address about a newly
// published book.
type AnnounceBookTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for book announcements.
func (t AnnounceBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "announce_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// AnnounceBookProcessor creates a processor function for AnnounceBookTask.
// Delivery failures for individual recipients are logged and skipped so one
// bad address never blocks the rest of the fan-out.
func AnnounceBookProcessor(db *gorm.DB, sender mail.Sender, baseURL string) backlite.QueueProcessor[AnnounceBookTask] {
	return func(ctx context.Context, task AnnounceBookTask) error {
		var book entities.Book
		if err := db.WithContext(ctx).First(&book, task.BookID).Error; err != nil {
			// Book may have been deleted before the task ran
			log.Printf("[TASK] Skipping announcement for missing book %d: %v", task.BookID, err)
			return nil
		}

		var users []entities.User
		if err := db.WithContext(ctx).Where("email IS NOT NULL").Find(&users).Error; err != nil {
			return fmt.Errorf("load recipients for book %d: %w", task.BookID, err)
		}

		bookURL := fmt.Sprintf("%s/api/books/%d", baseURL, book.ID)
		sent := 0
		for _, user := range users {
			if err := sender.SendBookAnnouncement(*user.Email, user.Username, book.Title, bookURL); err != nil {
				log.Printf("[TASK] Announcement for book %d to %s failed: %v", book.ID, user.Username, err)
				continue
			}
			sent++
		}

		log.Printf("[TASK] Announced book %d (%s) to %d of %d recipients", book.ID, book.Title, sent, len(users))
		return nil
	}
}

// NewAnnounceBookQueue creates a backlite queue for book announcements.
func NewAnnounceBookQueue(db *gorm.DB, sender mail.Sender, baseURL string) backlite.Queue {
	return backlite.NewQueue(AnnounceBookProcessor(db, sender, baseURL))
}
