package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
)

// ErrNotConfigured is returned when SMTP credentials are missing.
var ErrNotConfigured = errors.New("mailer: SMTP credentials not configured")

// Sender sends transactional email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string, attachments ...string) error
}

// Mailer sends mail over SMTP
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NoopMailer discards all mail, for tests and local development
type NoopMailer struct{}

// New creates a new Mailer from configuration
func New(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		from:     cfg.SMTP.From,
	}
}

// Send delivers one HTML email, optionally attaching files by path
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string, attachments ...string) error {
	if m.host == "" || m.username == "" || m.password == "" {
		return ErrNotConfigured
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	for _, path := range attachments {
		msg.AttachFile(path)
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Send discards the message
func (m *NoopMailer) Send(ctx context.Context, to, subject, htmlBody string, attachments ...string) error {
	return nil
}
