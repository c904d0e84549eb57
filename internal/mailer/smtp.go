package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/gomail.v2"
)

// Archiver keeps a copy of every sent message
type Archiver interface {
	Append(ctx context.Context, raw []byte, date time.Time) error
}

// SMTPConfig configuration for the SMTP relay
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTPMailer delivers messages through an SMTP relay
type SMTPMailer struct {
	dialer  *gomail.Dialer
	archive Archiver
	logger  *slog.Logger
}

// NewSMTPMailer creates a new SMTP mailer. archive may be nil.
func NewSMTPMailer(cfg SMTPConfig, archive Archiver, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		archive: archive,
		logger:  logger.With("component", "mailer", "smtp", cfg.Host),
	}
}

// Send composes and delivers msg. Archiving failures are logged only.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.Date.IsZero() {
		msg.Date = time.Now()
	}

	raw, err := Compose(msg)
	if err != nil {
		return err
	}

	sc, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer sc.Close()

	if err := sc.Send(msg.FromEmail, msg.Recipients(), bytes.NewBuffer(raw)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	m.logger.Info("Notification sent", "subject", msg.Subject, "recipients", len(msg.Recipients()))

	if m.archive != nil {
		if err := m.archive.Append(ctx, raw, msg.Date); err != nil {
			m.logger.Warn("Failed to archive notification", "error", err)
		}
	}

	return nil
}
