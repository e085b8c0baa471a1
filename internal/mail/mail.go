// Package mail sends transactional email over SMTP. When mail is disabled
// in configuration a no-op sender is used, so callers never branch on it.
package mail

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/SmoothCdoer9981/bookclub/internal/config"
)

// Sender delivers application email.
type Sender interface {
	// SendBookAnnouncement notifies a reader that a new book was published.
	SendBookAnnouncement(to, username, bookTitle, bookURL string) error
	// SendInvite delivers an invite link to a prospective member.
	SendInvite(to, username, inviteURL string) error
}

// New returns an SMTP sender, or a no-op one when mail is disabled.
func New(cfg config.Mail) Sender {
	if !cfg.Enabled {
		return NoopSender{}
	}
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
}

func (s *smtpSender) SendBookAnnouncement(to, username, bookTitle, bookURL string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("New book: %s", bookTitle))
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nA new book is available in the library: %s.\n\nRead it here: %s\n",
		username, bookTitle, bookURL,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send announcement to %s: %w", to, err)
	}
	return nil
}

func (s *smtpSender) SendInvite(to, username, inviteURL string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "You have been invited to the library")
	m.SetBody("text/plain", fmt.Sprintf(
		"Hi %s,\n\nYou have been invited to join the library. Claim your account here: %s\n\nThe link expires in 24 hours.\n",
		username, inviteURL,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send invite to %s: %w", to, err)
	}
	return nil
}

// NoopSender drops all mail. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendBookAnnouncement(_, _, _, _ string) error { return nil }
func (NoopSender) SendInvite(_, _, _ string) error              { return nil }
