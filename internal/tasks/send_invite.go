package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/SmoothCdoer9981/bookclub/internal/mail"
)

// SendInviteTask delivers an invite link to a prospective member.
type SendInviteTask struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	InviteURL string `json:"invite_url"`
}

// Config returns the queue configuration for invite delivery.
func (t SendInviteTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_invite",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SendInviteProcessor creates a processor function for SendInviteTask.
// Unlike announcements, a failed invite is retried: the recipient gets no
// other way to learn about their account.
func SendInviteProcessor(sender mail.Sender) backlite.QueueProcessor[SendInviteTask] {
	return func(ctx context.Context, task SendInviteTask) error {
		if err := sender.SendInvite(task.Email, task.Username, task.InviteURL); err != nil {
			return fmt.Errorf("deliver invite to %s: %w", task.Username, err)
		}
		return nil
	}
}

// NewSendInviteQueue creates a backlite queue for invite delivery.
func NewSendInviteQueue(sender mail.Sender) backlite.Queue {
	return backlite.NewQueue(SendInviteProcessor(sender))
}
